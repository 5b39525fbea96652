package models

import (
	"time"
)

// Lead marks that a buyer requested the owner's contact details for a
// property. At most one row per (buyer, property); inserts go through
// ON CONFLICT DO NOTHING so concurrent view_owner actions cannot duplicate.
type Lead struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BuyerID    uint      `json:"buyerID" gorm:"not null;uniqueIndex:idx_leads_buyer_property,priority:1"`
	PropertyID uint      `json:"propertyID" gorm:"not null;uniqueIndex:idx_leads_buyer_property,priority:2"`
	SellerID   uint      `json:"sellerID" gorm:"not null;index"` // owner at lead-creation time
	CreatedAt  time.Time `json:"createdAt"`

	Buyer    User     `json:"buyer" gorm:"foreignKey:BuyerID;references:ID"`
	Property Property `json:"property" gorm:"foreignKey:PropertyID;references:ID"`
}
