package models

import (
	"time"
)

// Gated buyer actions counted against the contact quota.
const (
	ActionViewOwner = "view_owner"
	ActionChatOwner = "chat_owner"
)

// BuyerInteraction is one allowed gated action. Rows are append-only: the
// limiter derives quota purely from the set of rows inside the trailing
// window, so nothing here is ever updated or deleted.
type BuyerInteraction struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BuyerID    uint      `json:"buyerID" gorm:"not null;index:idx_buyer_interactions_buyer_time,priority:1"`
	PropertyID uint      `json:"propertyID" gorm:"index"`
	SellerID   uint      `json:"sellerID" gorm:"index"`
	ActionType string    `json:"actionType" gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index:idx_buyer_interactions_buyer_time,priority:2"`
}

func (BuyerInteraction) TableName() string { return "buyer_interactions" }
