package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/scan"
)

// ErrorResponse is the JSON envelope for all error replies.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

// writeError maps domain errors onto HTTP statuses. Quota rejections carry
// cause-specific statuses so clients can distinguish a spent credit budget
// from a rate ceiling.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *brand.QuotaError
	if errors.As(err, &quotaErr) {
		switch quotaErr.Cause {
		case brand.QuotaCredits:
			writeErrorCode(w, r, http.StatusPaymentRequired, "CREDIT_LIMIT", quotaErr.Error())
		case brand.QuotaRunRate:
			writeErrorCode(w, r, http.StatusTooManyRequests, "RUN_RATE_LIMIT", quotaErr.Error())
		case brand.QuotaFeatureGate:
			writeErrorCode(w, r, http.StatusForbidden, "FEATURE_NOT_PERMITTED", quotaErr.Error())
		default:
			writeErrorCode(w, r, http.StatusForbidden, "QUOTA_EXCEEDED", quotaErr.Error())
		}
		return
	}

	if errors.Is(err, scan.ErrInvalidRequest) {
		writeErrorCode(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	writeErrorCode(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
}
