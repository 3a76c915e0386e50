package utils

import (
	"encoding/json"
	"net/http"
)

const (
	// Request Error Codes
	ErrRequestInvalid           = "request/invalid_parameters"
	ErrRequestMissingFields     = "request/missing_fields"
	ErrRequestNotFound          = "request/not_found"
	ErrRequestRateLimitExceeded = "request/rate_limit_exceeded"

	ErrRequestBodyTooLarge     = "request/body_too_large"
	ErrRequestUnSupportedMedia = "request/invalid_media"

	// Auth Error Codes
	ErrAuthRequired = "auth/authentication_required"
	ErrAuthInvalid  = "auth/invalid_credentials"

	// Operator-facing: the server itself is missing a secret.
	ErrConfigMissingSecret = "config/missing_secret"

	// Server Error Codes
	ErrServerInternal = "server/internal_error"

	// Upstream collaborators (mail transport, image host)
	ErrUpstreamMail  = "upstream/mail_failed"
	ErrUpstreamImage = "upstream/image_host_failed"
)

// APIError is the JSON body of every non-2xx response.
// Error carries the caller-facing message; Message optionally carries provider detail.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteError sends a JSON formatted error response
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, APIError{Error: message, Code: code})
}

// WriteErrorDetail is WriteError plus a detail message, used where the operator UI shows it.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	WriteJSON(w, status, APIError{Error: message, Code: code, Message: detail})
}

// WriteOK writes the canonical {"ok":true} body.
func WriteOK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
