package api

import (
	"errors"
	"net/http"

	"messenger-backend/internal/apperrors"

	"github.com/gin-gonic/gin"
)

func httpStatus(code apperrors.Code) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConflict, apperrors.CodeInvalidState:
		return http.StatusConflict
	case apperrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperrors.CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case apperrors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(httpStatus(appErr.Code), gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": apperrors.CodeInternal})
}
