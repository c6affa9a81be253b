package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/waste-api/internal/predict"
)

// ErrTooLarge is returned for bodies above the upload limit.
var ErrTooLarge = errors.New("File too large")

type errorResponse struct {
	Error string `json:"error"`
}

// Error writes err as {"error": ...} with the status matching its kind.
func Error(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), errorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	if errors.Is(err, ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch predict.KindOf(err) {
	case predict.NoFileProvided, predict.EmptyFilename, predict.UnsupportedExtension:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func failureLabel(err error) string {
	if errors.Is(err, ErrTooLarge) {
		return "too_large"
	}
	return predict.KindOf(err).String()
}
