package routes

import (
	"estatehub-server/models"
	"estatehub-server/storage"
	"estatehub-server/utils"
	"net/http"

	"github.com/kataras/iris/v12"
)

// GET /api/seller/leads?property_id=&page=&per_page=
//
// Buyers who requested contact details for the seller's listings, newest
// first. The lead set itself is maintained by the interaction recorder.
func SellerListLeads(ctx iris.Context) {
	sellerID := ctx.Values().Get("userID").(uint)

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	q := storage.DB.Model(&models.Lead{}).Where("seller_id = ?", sellerID)
	if propertyID := ctx.URLParamDefault("property_id", ""); propertyID != "" {
		q = q.Where("property_id = ?", propertyID)
	}

	var total int64
	q.Count(&total)

	var leads []models.Lead
	if err := q.Preload("Buyer").Preload("Property").Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&leads).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, leads, page, perPage, total)
}
