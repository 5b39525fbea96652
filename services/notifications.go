package services

import (
	"context"
	"encoding/json"
	"estatehub-server/models"
	"estatehub-server/storage"
	"estatehub-server/utils"
	"fmt"
	"log"
	"time"
)

// NotificationService handles all push notification logic
type NotificationService struct{}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotificationData represents the data payload for notifications
type NotificationData struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	PropertyID string `json:"propertyId,omitempty"`
	BuyerID    string `json:"buyerId,omitempty"`
	SellerID   string `json:"sellerId,omitempty"`
	Screen     string `json:"screen"` // Target screen to navigate to
}

// getUserPushTokens retrieves all push tokens for a user
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}
	return tokens, nil
}

// SendNotificationToUser sends a notification to a specific user
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data NotificationData) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		log.Printf("Failed to get push tokens for user %d: %v", userID, err)
		return err
	}

	dataMap := map[string]string{
		"type":       data.Type,
		"id":         data.ID,
		"propertyId": data.PropertyID,
		"buyerId":    data.BuyerID,
		"sellerId":   data.SellerID,
		"screen":     data.Screen,
	}

	var lastError error
	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, dataMap); err != nil {
			log.Printf("❌ Failed to send notification to token %s: %v", token, err)
			lastError = err
		}
	}
	return lastError
}

// SendNewLeadNotification tells a seller that a buyer requested their contact
// details. Fire-and-forget: every failure is logged and swallowed. Redis
// dedupes repeat sends for the same (buyer, property) pair.
func (ns *NotificationService) SendNewLeadNotification(lead *models.Lead) {
	if lead == nil {
		return
	}
	if !ns.claimLeadNotification(lead) {
		return
	}

	var property models.Property
	if err := storage.DB.Select("id, title").First(&property, lead.PropertyID).Error; err != nil {
		log.Printf("⚠️ Lead notification skipped, property %d not found: %v", lead.PropertyID, err)
		return
	}

	title := "New lead on your listing"
	body := fmt.Sprintf("A buyer requested contact details for \"%s\"", property.Title)
	data := NotificationData{
		Type:       "new_lead",
		ID:         fmt.Sprintf("%d", lead.ID),
		PropertyID: fmt.Sprintf("%d", lead.PropertyID),
		BuyerID:    fmt.Sprintf("%d", lead.BuyerID),
		SellerID:   fmt.Sprintf("%d", lead.SellerID),
		Screen:     "SellerLeads",
	}
	if err := ns.SendNotificationToUser(lead.SellerID, title, body, data); err != nil {
		log.Printf("⚠️ Lead notification to seller %d failed: %v", lead.SellerID, err)
	}
}

// claimLeadNotification reserves the (buyer, property) pair in Redis so the
// seller is not pinged again for the same lead. Redis being down fails open.
func (ns *NotificationService) claimLeadNotification(lead *models.Lead) bool {
	if storage.Redis == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("lead-notified:%d:%d", lead.BuyerID, lead.PropertyID)
	ok, err := storage.Redis.SetNX(ctx, key, "1", 24*time.Hour).Result()
	if err != nil {
		log.Printf("⚠️ Lead notification dedupe unavailable: %v", err)
		return true
	}
	return ok
}
