package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in the response envelope.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeInternal      = "INTERNAL_SERVER_ERROR"
	CodeFileTooLarge  = "FILE_SIZE_EXCEEDS_LIMIT"
	CodeOnlyWebP      = "ONLY_WEBP_FILES_ALLOWED"
	CodeUploadFailed  = "FAILED_TO_UPLOAD_IMAGE"
	CodeListLimit     = "LIST_LIMIT_EXCEEDED"
	CodeBookmarkLimit = "BOOKMARK_LIMIT_EXCEEDED"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes a failure envelope with the given code.
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	}); err != nil {
		slog.Error("encode error response", "error", err)
	}
}
