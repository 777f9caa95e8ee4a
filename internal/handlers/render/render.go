package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Envelope for successful responses: a human message plus optional payload
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, data, code)
}

func Success(w http.ResponseWriter, message string, data any) {
	jsonWithStatus(w, SuccessResponse{Message: message, Data: data}, http.StatusOK)
}

func Created(w http.ResponseWriter, message string, data any) {
	jsonWithStatus(w, SuccessResponse{Message: message, Data: data}, http.StatusCreated)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, error string, code int) {
	response := ErrorResponse{
		Error:   ServiceErrorType,
		Message: error,
	}

	jsonWithStatus(w, response, code)
}

// ServiceErrorDetails renders a failure with provider or validation details
func ServiceErrorDetails(w http.ResponseWriter, error string, details []string, code int) {
	response := ErrorResponse{
		Error:   ServiceErrorType,
		Message: error,
		Details: details,
	}

	jsonWithStatus(w, response, code)
}

// ValidationMessages renders the itemized messages of a core validation failure
func ValidationMessages(w http.ResponseWriter, messages []string) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Validation failed",
		Details: messages,
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		Error: DecodingErrorType,
	}

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Bind decodes the JSON request body into type T. Input rules are the
// auth core's business, the boundary only parses the payload.
func Bind[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
