package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	successMessage = "Successfully completed the request"
	failureMessage = "Something went wrong while processing the request"
)

// Response is the JSON envelope of every /api/v1 reply. A new value is
// built for each request.
type Response struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
}

type ErrorBody struct {
	StatusCode  int      `json:"statusCode"`
	Explanation []string `json:"explanation"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Message: successMessage, Data: data})
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	explanation := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		explanation = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, Response{
		Success: false,
		Message: failureMessage,
		Data:    map[string]any{},
		Error:   &ErrorBody{StatusCode: status, Explanation: []string{explanation}},
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidAdjustment),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, domain.ErrContentionTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
