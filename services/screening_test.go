package services

import (
	"estatehub-server/models"
	"estatehub-server/storage"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// stagePNG writes a synthetic PNG into the review staging area and returns
// its relative path. flat=true produces a zero-edge (blurry) image.
func stagePNG(t *testing.T, name string, flat bool) string {
	t.Helper()
	relPath := "review/" + name
	abs := storage.AbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("creating staging dir: %v", err)
	}
	var img image.Image
	if flat {
		img = flatImage(32, 32, color.Gray{Y: 90})
	} else {
		img = dottedImage(64, 64)
	}
	writePNG(t, abs, img)
	return relPath
}

func TestScreen_CleanImagePublishes(t *testing.T) {
	db := newTestDB(t)
	_, propertyID, _ := seedBuyerAndProperty(t, db)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	relPath := stagePNG(t, "sharp.png", false)

	screener := NewImageScreener(db, NewBlurDetector(DefaultBlurThresholds()))
	screener.Now = func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }
	watermarked := false
	screener.Watermark = func(relPath string) (string, error) { watermarked = true; return relPath, nil }

	img, err := screener.Screen(propertyID, relPath, "kitchen.png")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if img.ModerationStatus != models.ImageStatusSafe {
		t.Fatalf("status = %s, want SAFE", img.ModerationStatus)
	}
	if img.CheckedAt == nil {
		t.Fatal("expected checked_at to be set on a published image")
	}
	if !watermarked {
		t.Fatal("published image should be watermarked")
	}
	if !storage.FileExists(img.FilePath) {
		t.Fatalf("published file missing at %s", img.FilePath)
	}
	if storage.FileExists(relPath) {
		t.Fatal("staged copy should be gone after publishing")
	}

	var queued int64
	db.Model(&models.ModerationQueueItem{}).Count(&queued)
	if queued != 0 {
		t.Fatalf("queue items = %d, want 0 for a clean image", queued)
	}
}

// stageCorruptPNG stages a file whose header parses but whose pixel data does
// not: a valid PNG signature and IHDR chunk followed by zero padding. The
// detector can only take the bytes-per-pixel fallback path for such a file.
func stageCorruptPNG(t *testing.T, name string) string {
	t.Helper()
	relPath := "review/" + name
	abs := storage.AbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("creating staging dir: %v", err)
	}
	writePNG(t, abs, flatImage(10, 10, color.Gray{Y: 90}))
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("reading staged png: %v", err)
	}
	// Signature (8 bytes) + IHDR chunk (25 bytes), then garbage so the file
	// lands at a byte density the heuristic scores as sharp.
	corrupt := append(data[:33:33], make([]byte, 200)...)
	if err := os.WriteFile(abs, corrupt, 0o644); err != nil {
		t.Fatalf("writing corrupt png: %v", err)
	}
	return relPath
}

// A file whose pixels never decode must not go live, even when the fallback
// heuristic scores it as sharp. It goes to manual review instead.
func TestScreen_UndecodableImageQueues(t *testing.T) {
	db := newTestDB(t)
	_, propertyID, _ := seedBuyerAndProperty(t, db)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	relPath := stageCorruptPNG(t, "corrupt.png")

	detector := NewBlurDetector(DefaultBlurThresholds())
	verdict := detector.Analyze(storage.AbsolutePath(relPath))
	if verdict.IsBlurry || !verdict.LowConfidence {
		t.Fatalf("verdict = %+v, want sharp-looking low-confidence fallback", verdict)
	}

	screener := NewImageScreener(db, detector)
	watermarked := false
	screener.Watermark = func(relPath string) (string, error) { watermarked = true; return relPath, nil }

	img, err := screener.Screen(propertyID, relPath, "corrupt.png")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if img.ModerationStatus != models.ImageStatusPendingReview {
		t.Fatalf("status = %s, want PENDING_REVIEW", img.ModerationStatus)
	}
	if watermarked {
		t.Fatal("unverified image must not be watermarked")
	}
	if img.FilePath != relPath || !storage.FileExists(relPath) {
		t.Fatalf("unverified image should stay staged, got %s", img.FilePath)
	}

	var queued int64
	db.Model(&models.ModerationQueueItem{}).Where("property_image_id = ?", img.ID).Count(&queued)
	if queued != 1 {
		t.Fatalf("queue items = %d, want 1 for an undecodable image", queued)
	}
}

func TestScreen_BlurryImageQueues(t *testing.T) {
	db := newTestDB(t)
	_, propertyID, _ := seedBuyerAndProperty(t, db)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	relPath := stagePNG(t, "blurry.png", true)

	screener := NewImageScreener(db, NewBlurDetector(DefaultBlurThresholds()))
	watermarked := false
	screener.Watermark = func(relPath string) (string, error) { watermarked = true; return relPath, nil }

	img, err := screener.Screen(propertyID, relPath, "blurry.png")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if img.ModerationStatus != models.ImageStatusPendingReview {
		t.Fatalf("status = %s, want PENDING_REVIEW", img.ModerationStatus)
	}
	if watermarked {
		t.Fatal("flagged image must not be watermarked")
	}
	// Stays in staging for the reviewer.
	if img.FilePath != relPath || !storage.FileExists(relPath) {
		t.Fatalf("flagged image should stay staged, got %s", img.FilePath)
	}
	if img.BlurVariance > 1 {
		t.Fatalf("flat image variance = %f, want ~0", img.BlurVariance)
	}

	var item models.ModerationQueueItem
	if err := db.Where("property_image_id = ?", img.ID).First(&item).Error; err != nil {
		t.Fatalf("expected a queue item: %v", err)
	}
	if item.Status != models.QueueStatusOpen {
		t.Fatalf("queue status = %s, want OPEN", item.Status)
	}
	if item.ReasonForReview == "" {
		t.Fatal("queue item should carry the automated reason")
	}
}
