package routes

import (
	"estatehub-server/models"
	"estatehub-server/services"
	"estatehub-server/storage"
	"estatehub-server/utils"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
)

// POST /api/properties/{id}/images — multipart upload, field "image".
//
// The file lands in the review staging area first; the screener then either
// publishes it or leaves it staged behind an OPEN moderation queue entry.
func UploadPropertyImage(ctx iris.Context) {
	sellerID := ctx.Values().Get("userID").(uint)
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid property id")
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, propertyID).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "property not found")
		return
	}
	if property.SellerID != sellerID && (property.AgentID == nil || *property.AgentID != sellerID) {
		utils.JSONError(ctx, http.StatusForbidden, "forbidden", "you do not manage this property")
		return
	}

	file, header, err := ctx.FormFile("image")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "missing_file", "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		utils.JSONError(ctx, http.StatusBadRequest, "unsupported_format", "only jpeg, png and webp images are accepted")
		return
	}

	storedName := fmt.Sprintf("%d_%d_%s%s", propertyID, time.Now().UnixNano(), utils.GenerateShortToken(4), ext)
	relPath, err := storage.SaveToReview(storedName, file)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "storage_error", "could not store uploaded image")
		return
	}

	screener := services.NewImageScreener(storage.DB, services.NewBlurDetector(services.DefaultBlurThresholds()))
	img, err := screener.Screen(propertyID, relPath, header.Filename)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "storage_error", "could not screen uploaded image")
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(iris.Map{"data": iris.Map{
		"id":                img.ID,
		"property_id":       img.PropertyID,
		"file_name":         img.FileName,
		"file_url":          storage.PublicURL(img.FilePath),
		"moderation_status": img.ModerationStatus,
	}})
}
