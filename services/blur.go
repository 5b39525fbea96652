package services

import (
	"image"
	"log"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Blur severity buckets derived from Laplacian variance.
const (
	BlurSeverityHigh   = "HIGH"
	BlurSeverityMedium = "MEDIUM"
	BlurSeverityLow    = "LOW"
)

// BlurThresholds are the variance cutoffs for the severity buckets.
type BlurThresholds struct {
	High   float64 // below this: severity HIGH, image rejected
	Medium float64 // below this (and >= High): severity MEDIUM, accepted
}

func DefaultBlurThresholds() BlurThresholds {
	return BlurThresholds{High: 50, Medium: 100}
}

// BlurVerdict is the classification for one image file.
//
// IsBlurry is the only field that drives automated rejection or queueing.
// BlurScore is a legacy 0..1 heuristic kept for logging and dashboard
// compatibility; it must not feed the accept/reject decision.
type BlurVerdict struct {
	Variance      float64 `json:"variance"`
	Severity      string  `json:"severity"`
	IsBlurry      bool    `json:"isBlurry"`
	BlurScore     float64 `json:"blurScore"`
	LowConfidence bool    `json:"lowConfidence"` // set when the fallback path produced the verdict
}

type BlurDetector struct {
	thresholds BlurThresholds
}

func NewBlurDetector(thresholds BlurThresholds) *BlurDetector {
	return &BlurDetector{thresholds: thresholds}
}

// Analyze classifies the sharpness of the image at path. It never returns an
// error: a file that cannot be read or decoded at all is reported as
// maximally blurry, which callers treat as rejection-worthy.
func (d *BlurDetector) Analyze(path string) BlurVerdict {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("blur: cannot open %s: %v", path, err)
		return unreadableVerdict()
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		// Full decode unavailable; estimate from compression density instead.
		return d.analyzeFallback(f, path)
	}

	variance := laplacianVariance(img)
	verdict := BlurVerdict{
		Variance:  variance,
		BlurScore: blurScoreForVariance(variance, d.thresholds),
	}
	switch {
	case variance < d.thresholds.High:
		verdict.Severity = BlurSeverityHigh
		verdict.IsBlurry = true
	case variance < d.thresholds.Medium:
		// Lenient on purpose: wide-angle and outdoor shots land here.
		verdict.Severity = BlurSeverityMedium
	default:
		verdict.Severity = BlurSeverityLow
	}
	return verdict
}

// analyzeFallback estimates blur from the bytes-per-pixel ratio when the
// pixel data cannot be decoded. A crude classifier with its own 0.4 score
// threshold, deliberately separate from the variance thresholds.
func (d *BlurDetector) analyzeFallback(f *os.File, path string) BlurVerdict {
	if _, err := f.Seek(0, 0); err != nil {
		return unreadableVerdict()
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		log.Printf("blur: cannot decode %s: %v", path, err)
		return unreadableVerdict()
	}
	info, err := f.Stat()
	if err != nil {
		return unreadableVerdict()
	}

	bpp := float64(info.Size()) / float64(cfg.Width*cfg.Height)
	score := 1.0 - bpp/1.5
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	verdict := BlurVerdict{
		BlurScore:     score,
		IsBlurry:      score > 0.4,
		LowConfidence: true,
	}
	switch {
	case score > 0.7:
		verdict.Severity = BlurSeverityHigh
	case score > 0.4:
		verdict.Severity = BlurSeverityMedium
	default:
		verdict.Severity = BlurSeverityLow
	}
	return verdict
}

func unreadableVerdict() BlurVerdict {
	return BlurVerdict{
		Severity:      BlurSeverityHigh,
		IsBlurry:      true,
		BlurScore:     1,
		LowConfidence: true,
	}
}

// laplacianVariance converts the image to grayscale and returns the variance
// of the 4-neighbor Laplacian magnitude over all interior pixels. Sharp edges
// produce large Laplacian responses, so low variance means a blurry image.
func laplacianVariance(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels; scale down to 0..255.
			gray[y*w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}

	n := (w - 2) * (h - 2)
	values := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := 4*gray[y*w+x] - gray[(y-1)*w+x] - gray[(y+1)*w+x] - gray[y*w+x-1] - gray[y*w+x+1]
			if lap < 0 {
				lap = -lap
			}
			values = append(values, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

// blurScoreForVariance maps variance bands onto the legacy 0..1 score.
func blurScoreForVariance(variance float64, t BlurThresholds) float64 {
	switch {
	case variance < 10:
		return 0.95
	case variance < t.High:
		return 0.8
	case variance < t.Medium:
		return 0.5
	case variance < 300:
		return 0.3
	default:
		return 0.1
	}
}
