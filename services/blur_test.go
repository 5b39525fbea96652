package services

import (
	"estatehub-server/storage"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

func flatImage(w, h int, c color.Gray) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, c)
		}
	}
	return img
}

// dottedImage is white with isolated black pixels: most Laplacian responses
// are zero and the dots spike, giving a large variance.
func dottedImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for y := 4; y < h-1; y += 8 {
		for x := 4; x < w-1; x += 8 {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return img
}

func TestAnalyze_FlatImageIsBlurry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.png")
	writePNG(t, path, flatImage(32, 32, color.Gray{Y: 128}))

	verdict := NewBlurDetector(DefaultBlurThresholds()).Analyze(path)
	if verdict.Variance > 1e-6 {
		t.Fatalf("flat image variance = %f, want ~0", verdict.Variance)
	}
	if !verdict.IsBlurry || verdict.Severity != BlurSeverityHigh {
		t.Fatalf("flat image verdict = %+v, want blurry HIGH", verdict)
	}
	if verdict.LowConfidence {
		t.Fatal("primary path must not be marked low confidence")
	}
}

func TestAnalyze_SharpImageIsNotBlurry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sharp.png")
	writePNG(t, path, dottedImage(64, 64))

	verdict := NewBlurDetector(DefaultBlurThresholds()).Analyze(path)
	if verdict.Variance < 100 {
		t.Fatalf("sharp image variance = %f, want >= 100", verdict.Variance)
	}
	if verdict.IsBlurry || verdict.Severity != BlurSeverityLow {
		t.Fatalf("sharp image verdict = %+v, want LOW and not blurry", verdict)
	}
}

func TestAnalyze_UnreadableFileIsMaximallyBlurry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatalf("writing garbage file: %v", err)
	}

	verdict := NewBlurDetector(DefaultBlurThresholds()).Analyze(path)
	if !verdict.IsBlurry || verdict.Severity != BlurSeverityHigh || verdict.BlurScore != 1 {
		t.Fatalf("garbage verdict = %+v, want maximally blurry", verdict)
	}
	if !verdict.LowConfidence {
		t.Fatal("unreadable verdict must be low confidence")
	}
}

func TestAnalyze_MissingFileIsMaximallyBlurry(t *testing.T) {
	verdict := NewBlurDetector(DefaultBlurThresholds()).Analyze(filepath.Join(t.TempDir(), "nope.png"))
	if !verdict.IsBlurry || verdict.BlurScore != 1 {
		t.Fatalf("missing file verdict = %+v, want maximally blurry", verdict)
	}
}

func TestAnalyze_TruncatedImageUsesFallback(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.png")
	writePNG(t, full, dottedImage(100, 100))

	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("reading png: %v", err)
	}
	// Keep the signature and IHDR so DecodeConfig works but Decode fails.
	truncated := filepath.Join(dir, "truncated.png")
	if err := os.WriteFile(truncated, data[:60], 0o644); err != nil {
		t.Fatalf("writing truncated png: %v", err)
	}

	verdict := NewBlurDetector(DefaultBlurThresholds()).Analyze(truncated)
	if !verdict.LowConfidence {
		t.Fatalf("truncated verdict = %+v, want fallback path", verdict)
	}
	// 60 bytes over 100x100 pixels is far below any plausible photo density.
	if !verdict.IsBlurry {
		t.Fatalf("truncated verdict = %+v, want blurry under the fallback threshold", verdict)
	}
}

func TestLaplacianVariance_TinyImage(t *testing.T) {
	if v := laplacianVariance(flatImage(2, 2, color.Gray{Y: 200})); v != 0 {
		t.Fatalf("variance of 2x2 image = %f, want 0 (no interior pixels)", v)
	}
}

func TestBlurScoreBands(t *testing.T) {
	thresholds := DefaultBlurThresholds()
	cases := []struct {
		variance float64
		want     float64
	}{
		{5, 0.95},
		{30, 0.8},
		{75, 0.5},
		{200, 0.3},
		{500, 0.1},
	}
	for _, tc := range cases {
		if got := blurScoreForVariance(tc.variance, thresholds); got != tc.want {
			t.Errorf("blurScoreForVariance(%f) = %f, want %f", tc.variance, got, tc.want)
		}
	}
}

func TestApplyWatermark_PreservesDimensions(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	relPath := "properties/7/photo.png"
	abs := storage.AbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("creating property dir: %v", err)
	}
	writePNG(t, abs, dottedImage(120, 80))

	outRel, err := ApplyWatermark(relPath)
	if err != nil {
		t.Fatalf("ApplyWatermark: %v", err)
	}
	if outRel != relPath {
		t.Fatalf("png watermark moved the file to %s", outRel)
	}

	f, err := os.Open(abs)
	if err != nil {
		t.Fatalf("reopening watermarked image: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding watermarked image: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 80 {
		t.Fatalf("watermarked size = %dx%d, want 120x80", cfg.Width, cfg.Height)
	}
}

// There is no webp encoder, so watermarking a webp re-encodes it as JPEG. The
// stored path has to follow the bytes to the new extension.
func TestApplyWatermark_RenamesWebpToJpeg(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	relPath := "properties/7/photo.webp"
	abs := storage.AbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("creating property dir: %v", err)
	}
	// Decoding sniffs the bytes, not the extension, so a PNG stands in for
	// real webp data here.
	writePNG(t, abs, dottedImage(60, 40))

	outRel, err := ApplyWatermark(relPath)
	if err != nil {
		t.Fatalf("ApplyWatermark: %v", err)
	}
	if outRel != "properties/7/photo.jpg" {
		t.Fatalf("outRel = %s, want properties/7/photo.jpg", outRel)
	}
	if storage.FileExists(relPath) {
		t.Fatal("original webp should be removed after re-encoding")
	}

	f, err := os.Open(storage.AbsolutePath(outRel))
	if err != nil {
		t.Fatalf("opening re-encoded image: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding re-encoded image: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("re-encoded format = %s, want jpeg", format)
	}
	if cfg.Width != 60 || cfg.Height != 40 {
		t.Fatalf("re-encoded size = %dx%d, want 60x40", cfg.Width, cfg.Height)
	}
}
