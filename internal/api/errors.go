package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/radio-control/sdrfe/internal/adapter"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// NewAPIError creates a new API error.
func NewAPIError(code string, message string, statusCode int, details interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// BadRequest reports a malformed request body or path parameter.
func BadRequest(format string, args ...interface{}) *APIError {
	return NewAPIError("BAD_REQUEST", fmt.Sprintf(format, args...), http.StatusBadRequest, nil)
}

// StatusFor returns the HTTP status for a normalized hardware code.
func StatusFor(code error) int {
	switch {
	case errors.Is(code, adapter.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(code, adapter.ErrBusy), errors.Is(code, adapter.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(code, adapter.ErrHardwareTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ToAPIError converts an error to an HTTP status code and JSON body.
func ToAPIError(err error) (int, []byte) {
	if err == nil {
		return http.StatusOK, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, marshalErrorResponse(apiErr.Code, apiErr.Message, apiErr.Details)
	}

	code := adapter.Code(err)
	var details interface{}
	var hw *adapter.HardwareError
	if errors.As(err, &hw) {
		details = hw.Details
	}
	return StatusFor(code), marshalErrorResponse(code.Error(), err.Error(), details)
}

func marshalErrorResponse(code, message string, details interface{}) []byte {
	jsonBytes, err := json.Marshal(ErrorResponse(code, message, details))
	if err != nil {
		jsonBytes, _ = json.Marshal(ErrorResponse("INTERNAL", "Failed to marshal error response", nil))
	}
	return jsonBytes
}
