package services

import (
	"estatehub-server/storage"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const watermarkText = "EstateHub"

// ApplyWatermark stamps a translucent site mark onto the bottom-right corner
// of the stored image at relPath and returns the path the result lives at.
// PNG and JPEG sources are rewritten in place; anything else (webp) has no
// encoder and is re-encoded as JPEG under a .jpg name, with the original
// removed, so the stored extension always matches the content. Callers treat
// failure as non-fatal: an approved image without a watermark is still
// servable.
func ApplyWatermark(relPath string) (string, error) {
	absPath := storage.AbsolutePath(relPath)
	f, err := os.Open(absPath)
	if err != nil {
		return relPath, fmt.Errorf("opening image for watermark: %w", err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return relPath, fmt.Errorf("decoding image for watermark: %w", err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	stamp := renderStamp()
	// Scale the stamp to roughly a fifth of the image width, clamped so tiny
	// thumbnails still get a readable mark.
	targetW := bounds.Dx() / 5
	if targetW < stamp.Bounds().Dx() {
		targetW = stamp.Bounds().Dx()
	}
	targetH := targetW * stamp.Bounds().Dy() / stamp.Bounds().Dx()
	scaled := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), stamp, stamp.Bounds(), draw.Over, nil)

	margin := 8
	offset := image.Pt(bounds.Max.X-targetW-margin, bounds.Max.Y-targetH-margin)
	draw.Draw(canvas, scaled.Bounds().Add(offset), scaled, image.Point{}, draw.Over)

	outRel := relPath
	ext := strings.ToLower(filepath.Ext(relPath))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		outRel = strings.TrimSuffix(relPath, filepath.Ext(relPath)) + ".jpg"
	}

	if err := encodeTo(storage.AbsolutePath(outRel), canvas); err != nil {
		return relPath, err
	}
	if outRel != relPath {
		os.Remove(absPath)
	}
	return outRel, nil
}

// renderStamp draws the watermark text once at basicfont scale; the caller
// scales it to fit the target image.
func renderStamp() *image.RGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, watermarkText).Ceil()
	h := face.Metrics().Height.Ceil()
	img := image.NewRGBA(image.Rect(0, 0, w+2, h+2))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 140}),
		Face: face,
		Dot:  fixed.P(2, face.Metrics().Ascent.Ceil()+1),
	}
	drawer.DrawString(watermarkText)

	drawer.Src = image.NewUniform(color.RGBA{255, 255, 255, 180})
	drawer.Dot = fixed.P(1, face.Metrics().Ascent.Ceil())
	drawer.DrawString(watermarkText)

	return img
}

func encodeTo(absPath string, img image.Image) error {
	out, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("rewriting watermarked image: %w", err)
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".png":
		err = png.Encode(out, img)
	default:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return fmt.Errorf("encoding watermarked image: %w", err)
	}
	return nil
}
