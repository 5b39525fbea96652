package utils

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

var Validate = validator.New()

// HandleValidationErrors reports a failed ReadJSON/validator pass as a 400
// with per-field details when available.
func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]iris.Map, 0, len(errs))
		for _, fe := range errs {
			fields = append(fields, iris.Map{
				"field": fe.Field(),
				"tag":   fe.Tag(),
			})
		}
		ctx.StatusCode(http.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "validation_error", "message": "request validation failed", "fields": fields})
		return
	}
	JSONError(ctx, http.StatusBadRequest, "invalid_payload", "invalid request body")
}
