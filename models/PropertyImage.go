package models

import (
	"time"

	"gorm.io/gorm"
)

// Moderation states for a property image.
const (
	ImageStatusPendingReview = "PENDING_REVIEW"
	ImageStatusSafe          = "SAFE"
	ImageStatusRejected      = "REJECTED"
)

type PropertyImage struct {
	gorm.Model
	PropertyID uint     `json:"propertyID" gorm:"not null;index"`
	Property   Property `json:"property" gorm:"foreignKey:PropertyID;references:ID"`

	FileName string `json:"fileName"`
	// Relative to the upload base directory; moves with the file through the
	// staging -> property/rejected directory transitions.
	FilePath string `json:"filePath"`

	ModerationStatus string  `json:"moderationStatus" gorm:"type:varchar(20);default:'PENDING_REVIEW';index"`
	BlurVariance     float64 `json:"blurVariance"`
	BlurScore        float64 `json:"blurScore"` // legacy 0..1 heuristic, logging only

	ManualReviewed    bool       `json:"manualReviewed" gorm:"default:false"`
	ManualReviewerID  *uint      `json:"manualReviewerID"`
	ManualReviewNotes string     `json:"manualReviewNotes" gorm:"type:text"`
	CheckedAt         *time.Time `json:"checkedAt"`
}
