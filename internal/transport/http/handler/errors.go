package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps err onto its status and kind. Internal failures are
// logged and answered with a generic message so causes never leak.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	_ = c.Error(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		switch {
		case status == http.StatusBadGateway:
			log.Warn("Upstream call failed", logger.Path(c.Request.URL.Path), logger.Error(err))
			c.JSON(status, ErrorResponse{Error: appErr.Kind(), Message: appErr.Message})
			return
		case status < http.StatusInternalServerError:
			c.JSON(status, ErrorResponse{Error: appErr.Kind(), Message: appErr.Message})
			return
		}
	}

	log.Error("Request failed",
		logger.Method(c.Request.Method),
		logger.Path(c.Request.URL.Path),
		logger.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: message})
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
}
