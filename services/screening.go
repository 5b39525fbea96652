package services

import (
	"estatehub-server/models"
	"estatehub-server/storage"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// ImageScreener runs newly staged property images through the automated blur
// check and routes the outcome: clean images are published straight into the
// property's directory, flagged ones get an OPEN moderation queue entry and
// stay in staging for human review.
type ImageScreener struct {
	db       *gorm.DB
	detector *BlurDetector

	Now       func() time.Time
	Watermark func(relPath string) (string, error)
}

func NewImageScreener(db *gorm.DB, detector *BlurDetector) *ImageScreener {
	return &ImageScreener{db: db, detector: detector, Now: time.Now, Watermark: ApplyWatermark}
}

// Screen classifies the staged image at relPath and persists the resulting
// PropertyImage row. The file must already be in the review staging area.
func (s *ImageScreener) Screen(propertyID uint, relPath, fileName string) (*models.PropertyImage, error) {
	verdict := s.detector.Analyze(storage.AbsolutePath(relPath))
	log.Printf("🔍 Blur check for %s: severity=%s variance=%.1f score=%.2f lowConfidence=%v",
		fileName, verdict.Severity, verdict.Variance, verdict.BlurScore, verdict.LowConfidence)

	now := s.Now()
	img := models.PropertyImage{
		PropertyID:       propertyID,
		FileName:         fileName,
		FilePath:         relPath,
		ModerationStatus: models.ImageStatusPendingReview,
		BlurVariance:     verdict.Variance,
		BlurScore:        verdict.BlurScore,
	}

	// A low-confidence verdict means the pixel data never decoded; such a
	// file cannot go live unseen even when its score looks acceptable.
	if !verdict.IsBlurry && !verdict.LowConfidence {
		// Clean image, publish immediately.
		newPath, err := storage.MoveToPropertyDir(relPath, propertyID)
		if err != nil {
			return nil, fmt.Errorf("publishing screened image: %w", err)
		}
		if markedPath, err := s.Watermark(newPath); err != nil {
			log.Printf("⚠️ Failed to watermark image %s: %v", fileName, err)
		} else {
			newPath = markedPath
		}
		img.FilePath = newPath
		img.ModerationStatus = models.ImageStatusSafe
		img.CheckedAt = &now
		if err := s.db.Create(&img).Error; err != nil {
			return nil, fmt.Errorf("saving screened image: %w", err)
		}
		return &img, nil
	}

	// Flagged: keep the file staged and open a queue item for an admin.
	if err := s.db.Create(&img).Error; err != nil {
		return nil, fmt.Errorf("saving flagged image: %w", err)
	}
	queueItem := models.ModerationQueueItem{
		PropertyImageID: img.ID,
		ReasonForReview: screeningReason(verdict),
		Status:          models.QueueStatusOpen,
	}
	if err := s.db.Create(&queueItem).Error; err != nil {
		return nil, fmt.Errorf("queueing flagged image for review: %w", err)
	}
	return &img, nil
}

func screeningReason(v BlurVerdict) string {
	if v.LowConfidence {
		return fmt.Sprintf("compression heuristic flagged possible blur (score %.2f, pixel data not decodable)", v.BlurScore)
	}
	return fmt.Sprintf("blur check failed: severity %s, laplacian variance %.1f", v.Severity, v.Variance)
}
