package routes

import (
	"errors"
	"estatehub-server/services"
	"estatehub-server/storage"
	"estatehub-server/utils"
	"net/http"
	"time"

	"github.com/kataras/iris/v12"
)

// GET /api/buyer/interactions/check?property_id=&action_type=
//
// property_id and action_type are echoed back for the client but never
// influence the computation: the quota is global per buyer across both
// gated action types.
func CheckInteractionQuota(ctx iris.Context) {
	buyerID := ctx.Values().Get("userID").(uint)
	propertyID := ctx.URLParamIntDefault("property_id", 0)
	actionType := ctx.URLParamDefault("action_type", "")

	svc := services.NewInteractionService(storage.DB, services.DefaultInteractionPolicy())
	snap, err := svc.CheckQuota(buyerID)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "storage_error", "could not compute interaction quota")
		return
	}

	ctx.JSON(quotaResponse(snap, actionType, propertyID))
}

type recordInteractionInput struct {
	PropertyID uint   `json:"property_id" validate:"required"`
	ActionType string `json:"action_type" validate:"required,oneof=view_owner chat_owner"`
}

// POST /api/buyer/interactions/record {property_id, action_type}
func RecordInteraction(ctx iris.Context) {
	buyerID := ctx.Values().Get("userID").(uint)

	var input recordInteractionInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "invalid request body")
		return
	}
	if err := utils.Validate.Struct(input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	svc := services.NewInteractionService(storage.DB, services.DefaultInteractionPolicy())
	result, err := svc.RecordInteraction(buyerID, input.PropertyID, input.ActionType)
	if err != nil {
		var exceeded *services.QuotaExceededError
		switch {
		case errors.As(err, &exceeded):
			writeQuotaExceeded(ctx, exceeded.Quota)
		case errors.Is(err, services.ErrInvalidActionType):
			utils.JSONError(ctx, http.StatusBadRequest, "invalid_action_type", "action_type must be view_owner or chat_owner")
		default:
			utils.JSONError(ctx, http.StatusInternalServerError, "storage_error", "could not record interaction")
		}
		return
	}

	if result.Lead != nil {
		notificationService := services.NewNotificationService()
		go notificationService.SendNewLeadNotification(result.Lead)
	}

	ctx.JSON(quotaResponse(result.Quota, input.ActionType, int(input.PropertyID)))
}

func quotaResponse(snap services.QuotaSnapshot, actionType string, propertyID int) iris.Map {
	resp := iris.Map{
		"remaining_attempts": snap.RemainingAttempts,
		"max_attempts":       snap.MaxAttempts,
		"used_attempts":      snap.UsedAttempts,
		"can_perform_action": snap.CanPerformAction,
		"reset_time":         nil,
		"reset_time_seconds": nil,
		"action_type":        actionType,
		"property_id":        propertyID,
	}
	if snap.ResetTime != nil {
		resp["reset_time"] = snap.ResetTime.Format(time.RFC3339)
		resp["reset_time_seconds"] = snap.ResetTime.Unix()
	}
	return resp
}

func writeQuotaExceeded(ctx iris.Context, snap services.QuotaSnapshot) {
	resp := iris.Map{
		"remaining_attempts": 0,
		"max_attempts":       snap.MaxAttempts,
		"used_attempts":      snap.UsedAttempts,
		"reset_time":         nil,
		"reset_time_seconds": nil,
		"message":            "You have reached your contact limit. Please try again later.",
	}
	if snap.ResetTime != nil {
		resp["reset_time"] = snap.ResetTime.Format(time.RFC3339)
		resp["reset_time_seconds"] = snap.ResetTime.Unix()
	}
	ctx.StatusCode(http.StatusTooManyRequests)
	ctx.JSON(resp)
}
