package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	QueueStatusOpen     = "OPEN"
	QueueStatusApproved = "APPROVED"
	QueueStatusRejected = "REJECTED"
)

// ModerationQueueItem holds an image awaiting human review. OPEN items are
// live; APPROVED/REJECTED items are immutable history (the handlers select
// WHERE status = 'OPEN', so a resolved item can never transition again).
type ModerationQueueItem struct {
	gorm.Model
	PropertyImageID uint          `json:"propertyImageID" gorm:"not null;index"`
	PropertyImage   PropertyImage `json:"propertyImage" gorm:"foreignKey:PropertyImageID;references:ID"`

	ReasonForReview string `json:"reasonForReview" gorm:"type:text"`
	Status          string `json:"status" gorm:"type:varchar(20);default:'OPEN';index"`

	ReviewerID  *uint      `json:"reviewerID"`
	ReviewNotes string     `json:"reviewNotes" gorm:"type:text"`
	ReviewedAt  *time.Time `json:"reviewedAt"`
}
