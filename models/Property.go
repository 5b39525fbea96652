package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	SellerID     uint    `json:"sellerID" gorm:"not null;index"`
	AgentID      *uint   `json:"agentID" gorm:"index"`
	Title        string  `json:"title"`
	Description  string  `json:"description" gorm:"type:text"`
	PropertyType string  `json:"propertyType"` // apartment, house, plot, commercial
	ListingType  string  `json:"listingType"`  // sale, rent
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	AreaSqFt     int     `json:"areaSqFt"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`

	Amenities datatypes.JSON `json:"amenities"`
	IsActive  *bool          `json:"isActive"`

	Status      string `json:"status" gorm:"type:varchar(20);default:'pending';index"` // pending, live, rejected
	IsFlagged   bool   `json:"isFlagged" gorm:"default:false;index"`
	FlagReason  string `json:"flagReason"`
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`

	Seller User            `json:"seller" gorm:"foreignKey:SellerID;references:ID"`
	Images []PropertyImage `json:"images" gorm:"foreignKey:PropertyID;references:ID"`
}
