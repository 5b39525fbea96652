package services

import (
	"estatehub-server/models"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionPolicy caps gated buyer actions inside a trailing window. Both
// action types draw from the same per-buyer allowance.
type InteractionPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

func DefaultInteractionPolicy() InteractionPolicy {
	return InteractionPolicy{MaxAttempts: 5, Window: 12 * time.Hour}
}

var gatedActions = []string{models.ActionViewOwner, models.ActionChatOwner}

var ErrInvalidActionType = errors.New("invalid action type")

// QuotaExceededError carries the snapshot so handlers can render reset info
// on the 429 response.
type QuotaExceededError struct {
	Quota QuotaSnapshot
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("interaction quota exhausted (%d/%d used)", e.Quota.UsedAttempts, e.Quota.MaxAttempts)
}

// QuotaSnapshot is the quota state for one buyer at one instant.
type QuotaSnapshot struct {
	UsedAttempts      int
	MaxAttempts       int
	RemainingAttempts int
	CanPerformAction  bool
	ResetTime         *time.Time
}

// RecordResult is the outcome of a successful RecordInteraction call. Lead is
// non-nil only when this call created a new lead row, so callers can fire
// follow-up notifications without re-querying.
type RecordResult struct {
	Quota QuotaSnapshot
	Lead  *models.Lead
}

// InteractionService enforces the contact-detail quota over the append-only
// buyer_interactions ledger and maintains the deduplicated lead set.
type InteractionService struct {
	db     *gorm.DB
	policy InteractionPolicy

	// Now is the clock used for window math; tests override it to simulate
	// window expiry without sleeping.
	Now func() time.Time
}

func NewInteractionService(db *gorm.DB, policy InteractionPolicy) *InteractionService {
	return &InteractionService{db: db, policy: policy, Now: time.Now}
}

// CheckQuota computes the buyer's quota state from the ledger. Read-only; a
// storage failure surfaces as an error, never as granted quota.
func (s *InteractionService) CheckQuota(buyerID uint) (QuotaSnapshot, error) {
	return s.snapshotAt(buyerID, s.Now())
}

func (s *InteractionService) snapshotAt(buyerID uint, now time.Time) (QuotaSnapshot, error) {
	cutoff := now.Add(-s.policy.Window)

	var used int64
	err := s.db.Model(&models.BuyerInteraction{}).
		Where("buyer_id = ? AND action_type IN ? AND created_at >= ?", buyerID, gatedActions, cutoff).
		Count(&used).Error
	if err != nil {
		return QuotaSnapshot{}, fmt.Errorf("counting buyer interactions: %w", err)
	}

	snap := QuotaSnapshot{
		UsedAttempts: int(used),
		MaxAttempts:  s.policy.MaxAttempts,
	}
	snap.RemainingAttempts = s.policy.MaxAttempts - snap.UsedAttempts
	if snap.RemainingAttempts < 0 {
		snap.RemainingAttempts = 0
	}
	snap.CanPerformAction = snap.RemainingAttempts > 0

	switch {
	case snap.UsedAttempts == 0:
		// No attempts in the window, nothing to reset.
	case snap.UsedAttempts >= s.policy.MaxAttempts:
		// Rolling reset from the moment of the check, not from the oldest
		// record. Matches the deployed behavior even though repeated checks
		// after exhaustion keep pushing the reset out.
		t := now.Add(s.policy.Window)
		snap.ResetTime = &t
	default:
		var oldest models.BuyerInteraction
		err := s.db.
			Where("buyer_id = ? AND action_type IN ? AND created_at >= ?", buyerID, gatedActions, cutoff).
			Order("created_at ASC").
			First(&oldest).Error
		if err != nil {
			return QuotaSnapshot{}, fmt.Errorf("finding oldest interaction in window: %w", err)
		}
		t := oldest.CreatedAt.Add(s.policy.Window)
		snap.ResetTime = &t
	}

	return snap, nil
}

// RecordInteraction appends one gated action for the buyer after re-checking
// the quota, then returns the post-insert snapshot. A view_owner action also
// creates the lead row for (buyer, property) if one does not exist yet; lead
// failures are logged, never propagated.
//
// The check and the insert are not atomic: two concurrent requests at
// MAX_ATTEMPTS-1 can both pass and both insert. Accepted best-effort
// enforcement, the same guarantee the clients were built against.
func (s *InteractionService) RecordInteraction(buyerID, propertyID uint, actionType string) (RecordResult, error) {
	if actionType != models.ActionViewOwner && actionType != models.ActionChatOwner {
		return RecordResult{}, ErrInvalidActionType
	}

	now := s.Now()
	snap, err := s.snapshotAt(buyerID, now)
	if err != nil {
		return RecordResult{}, err
	}
	if snap.UsedAttempts >= s.policy.MaxAttempts {
		return RecordResult{}, &QuotaExceededError{Quota: snap}
	}

	sellerID := s.resolveSellerID(propertyID)

	record := models.BuyerInteraction{
		BuyerID:    buyerID,
		PropertyID: propertyID,
		SellerID:   sellerID,
		ActionType: actionType,
		CreatedAt:  now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return RecordResult{}, fmt.Errorf("recording interaction: %w", err)
	}

	result := RecordResult{}
	if actionType == models.ActionViewOwner && sellerID != 0 {
		lead, err := s.EnsureLead(buyerID, propertyID, sellerID)
		if err != nil {
			log.Printf("⚠️ Failed to record lead for buyer %d property %d: %v", buyerID, propertyID, err)
		} else {
			result.Lead = lead
		}
	}

	result.Quota, err = s.snapshotAt(buyerID, now)
	if err != nil {
		return RecordResult{}, err
	}
	return result, nil
}

// EnsureLead inserts the (buyer, property) lead if absent. Returns the lead
// row when this call created it, nil when it already existed. Safe to call
// concurrently: the unique index plus ON CONFLICT DO NOTHING absorbs races.
func (s *InteractionService) EnsureLead(buyerID, propertyID, sellerID uint) (*models.Lead, error) {
	lead := models.Lead{
		BuyerID:    buyerID,
		PropertyID: propertyID,
		SellerID:   sellerID,
		CreatedAt:  s.Now(),
	}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lead)
	if res.Error != nil {
		return nil, fmt.Errorf("inserting lead: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &lead, nil
}

// resolveSellerID looks up the property's current owner. Best-effort: an
// unknown property yields 0 and the interaction still records.
func (s *InteractionService) resolveSellerID(propertyID uint) uint {
	var property models.Property
	if err := s.db.Select("id, seller_id").First(&property, propertyID).Error; err != nil {
		log.Printf("⚠️ Could not resolve owner of property %d: %v", propertyID, err)
		return 0
	}
	return property.SellerID
}
