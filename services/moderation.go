package services

import (
	"estatehub-server/models"
	"estatehub-server/storage"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrQueueItemNotFound covers both unknown ids and items already
	// resolved; processed items are immutable history.
	ErrQueueItemNotFound = errors.New("queue item not found or already processed")

	// ErrStagedFileMissing blocks approval when the staged image is gone.
	ErrStagedFileMissing = errors.New("staged image file is missing")
)

// ModerationService drives the OPEN -> APPROVED/REJECTED state machine for
// images flagged by automated checks.
type ModerationService struct {
	db *gorm.DB

	Now func() time.Time

	// Watermark is applied to approved images and returns the path the
	// marked file lives at; overridable for tests.
	Watermark func(relPath string) (string, error)
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db, Now: time.Now, Watermark: ApplyWatermark}
}

// ListOpen returns OPEN queue items oldest first, with the underlying image
// joined for reviewer display.
func (s *ModerationService) ListOpen(page, perPage int) ([]models.ModerationQueueItem, int64, error) {
	q := s.db.Model(&models.ModerationQueueItem{}).Where("status = ?", models.QueueStatusOpen)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting open queue items: %w", err)
	}

	var items []models.ModerationQueueItem
	err := q.Preload("PropertyImage").
		Offset((page - 1) * perPage).Limit(perPage).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing open queue items: %w", err)
	}
	return items, total, nil
}

// Approve publishes a flagged image: the staged file is moved into the
// property's directory and watermarked before the row updates commit, so a
// committed SAFE status never points at a missing or unmarked file. A failed
// move aborts with the item still OPEN for retry; a failed watermark is
// logged and tolerated.
func (s *ModerationService) Approve(queueID, reviewerID uint, reviewNotes string) (*models.ModerationQueueItem, error) {
	item, err := s.openItem(queueID)
	if err != nil {
		return nil, err
	}
	img := item.PropertyImage

	if !storage.FileExists(img.FilePath) {
		return nil, ErrStagedFileMissing
	}

	newPath, err := storage.MoveToPropertyDir(img.FilePath, img.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("moving approved image out of staging: %w", err)
	}
	if markedPath, err := s.Watermark(newPath); err != nil {
		log.Printf("⚠️ Failed to watermark approved image %d: %v", img.ID, err)
	} else {
		newPath = markedPath
	}

	now := s.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		imgUpdates := map[string]interface{}{
			"file_path":           newPath,
			"moderation_status":   models.ImageStatusSafe,
			"manual_reviewed":     true,
			"manual_reviewer_id":  reviewerID,
			"manual_review_notes": reviewNotes,
			"checked_at":          now,
		}
		if err := tx.Model(&models.PropertyImage{}).Where("id = ?", img.ID).Updates(imgUpdates).Error; err != nil {
			return err
		}
		return tx.Model(&models.ModerationQueueItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"status":       models.QueueStatusApproved,
			"reviewer_id":  reviewerID,
			"review_notes": reviewNotes,
			"reviewed_at":  now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}

	return s.reload(item.ID)
}

// Reject resolves a flagged image as unacceptable. The move into the
// rejected directory is best-effort: rejection is final regardless of
// filesystem state, so a failed move only means the stored path is not
// updated. This asymmetry with Approve is deliberate.
func (s *ModerationService) Reject(queueID, reviewerID uint, reviewNotes string) (*models.ModerationQueueItem, error) {
	item, err := s.openItem(queueID)
	if err != nil {
		return nil, err
	}
	img := item.PropertyImage

	newPath, moveErr := storage.MoveToRejectedDir(img.FilePath)
	if moveErr != nil {
		log.Printf("⚠️ Failed to move rejected image %d out of staging: %v", img.ID, moveErr)
	}

	now := s.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		imgUpdates := map[string]interface{}{
			"moderation_status":   models.ImageStatusRejected,
			"manual_reviewed":     true,
			"manual_reviewer_id":  reviewerID,
			"manual_review_notes": reviewNotes,
			"checked_at":          now,
		}
		if moveErr == nil {
			imgUpdates["file_path"] = newPath
		}
		if err := tx.Model(&models.PropertyImage{}).Where("id = ?", img.ID).Updates(imgUpdates).Error; err != nil {
			return err
		}
		return tx.Model(&models.ModerationQueueItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"status":       models.QueueStatusRejected,
			"reviewer_id":  reviewerID,
			"review_notes": reviewNotes,
			"reviewed_at":  now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("committing rejection: %w", err)
	}

	return s.reload(item.ID)
}

func (s *ModerationService) openItem(queueID uint) (*models.ModerationQueueItem, error) {
	var item models.ModerationQueueItem
	err := s.db.Preload("PropertyImage").
		Where("id = ? AND status = ?", queueID, models.QueueStatusOpen).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQueueItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading queue item: %w", err)
	}
	return &item, nil
}

func (s *ModerationService) reload(id uint) (*models.ModerationQueueItem, error) {
	var item models.ModerationQueueItem
	if err := s.db.Preload("PropertyImage").First(&item, id).Error; err != nil {
		return nil, fmt.Errorf("reloading queue item: %w", err)
	}
	return &item, nil
}
