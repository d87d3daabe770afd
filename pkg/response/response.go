package response

import (
	"errors"
	"net/http"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Envelope wraps all API responses in a consistent structure
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains error details for failed responses
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains pagination and other metadata
type Meta struct {
	Page     int  `json:"page,omitempty"`
	PageSize int  `json:"pageSize,omitempty"`
	Total    int  `json:"total,omitempty"`
	HasNext  bool `json:"hasNext,omitempty"`
}

// NewMeta builds pagination metadata for a page of a result set.
func NewMeta(page, pageSize, total int) *Meta {
	return &Meta{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  page*pageSize < total,
	}
}

// OK sends a successful response with data
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
	})
}

// OKWithMeta sends a successful response with data and pagination metadata
func OKWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Created sends a 201 response for successfully created resources
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Data:    data,
	})
}

// Message sends a success response with just a message
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    gin.H{"message": message},
	})
}

// --- Error Responses ---

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, status int, code, message string, data interface{}) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Data:    data,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// Error answers with the status and code of a classified error. Anything
// unclassified is answered with a generic 500.
// Note: Never expose internal error details to clients
func Error(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		InternalError(c, "")
		return
	}
	errorResponse(c, e.Kind.Status(), e.Kind.String(), e.Message, e.Data)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "unauthorized"
	}
	errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// InternalError sends a 500 response
// Note: Never expose internal error details to clients
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "rate limit exceeded, please try again later"
	}
	errorResponse(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", message, nil)
}

// ValidationError sends a 400 response for validation failures
func ValidationError(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}
