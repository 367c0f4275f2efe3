package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound       = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
)

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
	}
}

// respondError maps service and repository errors onto HTTP responses
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var apiError *Error
	if errors.As(err, &apiError) {
		c.JSON(apiError.StatusCode, ErrorResponse{Message: apiError.Message, Code: apiError.Code})
		return
	}

	var invalid *service.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: invalid.Error(), Code: "INVALID_TRANSITION"})
		return
	}

	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found", Code: "NOT_FOUND"})
		return
	}

	log.WithError(err).Error("Unhandled error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error", Code: "INTERNAL_ERROR"})
}

// parseID extracts and validates the UUID path parameter
func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, NewValidationError(fmt.Sprintf("invalid id: %s", c.Param("id")))
	}
	return id, nil
}

// listResponse is the envelope for paginated listings. Total reflects the
// number of items in the returned page.
type listResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

func newListResponse(items interface{}, count int) listResponse {
	return listResponse{Items: items, Total: count}
}
