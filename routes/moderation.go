package routes

import (
	"errors"
	"estatehub-server/models"
	"estatehub-server/services"
	"estatehub-server/storage"
	"estatehub-server/utils"
	"net/http"

	"github.com/kataras/iris/v12"
)

// GET /api/admin/moderation-queue/list?page=&limit=
func ListModerationQueue(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	limit := ctx.URLParamIntDefault("limit", 25)
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	svc := services.NewModerationService(storage.DB)
	items, total, err := svc.ListOpen(page, limit)
	if err != nil {
		utils.JSONFailure(ctx, http.StatusInternalServerError, "could not list moderation queue")
		return
	}

	out := make([]iris.Map, 0, len(items))
	for _, item := range items {
		out = append(out, iris.Map{
			"id":                item.ID,
			"reason_for_review": item.ReasonForReview,
			"status":            item.Status,
			"created_at":        item.CreatedAt,
			"image": iris.Map{
				"id":                item.PropertyImage.ID,
				"property_id":       item.PropertyImage.PropertyID,
				"file_name":         item.PropertyImage.FileName,
				"file_url":          storage.PublicURL(item.PropertyImage.FilePath),
				"blur_variance":     item.PropertyImage.BlurVariance,
				"blur_score":        item.PropertyImage.BlurScore,
				"moderation_status": item.PropertyImage.ModerationStatus,
			},
		})
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "ok",
		"data":    out,
		"meta":    utils.PageMeta{Page: page, PerPage: limit, Total: total},
	})
}

type reviewInput struct {
	ReviewNotes string `json:"review_notes"`
}

// POST /api/admin/moderation-queue/approve?id=
func ApproveModerationItem(ctx iris.Context) {
	resolveModerationItem(ctx, "approve")
}

// POST /api/admin/moderation-queue/reject?id=
func RejectModerationItem(ctx iris.Context) {
	resolveModerationItem(ctx, "reject")
}

func resolveModerationItem(ctx iris.Context, action string) {
	queueID := ctx.URLParamIntDefault("id", 0)
	if queueID <= 0 {
		utils.JSONFailure(ctx, http.StatusBadRequest, "queue item id is required")
		return
	}
	reviewerID := ctx.Values().Get("userID").(uint)

	var body reviewInput
	if err := ctx.ReadJSON(&body); err != nil {
		utils.JSONFailure(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	svc := services.NewModerationService(storage.DB)

	var item *models.ModerationQueueItem
	var err error
	if action == "approve" {
		item, err = svc.Approve(uint(queueID), reviewerID, body.ReviewNotes)
	} else {
		item, err = svc.Reject(uint(queueID), reviewerID, body.ReviewNotes)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQueueItemNotFound):
			utils.JSONFailure(ctx, http.StatusNotFound, "queue item not found or already processed")
		case errors.Is(err, services.ErrStagedFileMissing):
			utils.JSONFailure(ctx, http.StatusInternalServerError, "staged image file is missing; item left open")
		default:
			utils.JSONFailure(ctx, http.StatusInternalServerError, "could not "+action+" queue item")
		}
		return
	}

	utils.Audit(ctx, "moderation."+action, "moderation_queue_item", item.ID, nil, item)
	utils.JSONSuccess(ctx, "image "+item.Status, iris.Map{
		"id":           item.ID,
		"status":       item.Status,
		"review_notes": item.ReviewNotes,
		"reviewed_at":  item.ReviewedAt,
		"image": iris.Map{
			"id":                item.PropertyImage.ID,
			"property_id":       item.PropertyImage.PropertyID,
			"file_url":          storage.PublicURL(item.PropertyImage.FilePath),
			"moderation_status": item.PropertyImage.ModerationStatus,
		},
	})
}
