// Package api exposes the rate limiter as a small HTTP check service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yourusername/pacer/pkg/pacer"
)

// Handler handles rate limit check requests
type Handler struct {
	limiter pacer.RateLimiter
}

// NewHandler creates a new API handler backed by the given limiter.
func NewHandler(limiter pacer.RateLimiter) *Handler {
	return &Handler{limiter: limiter}
}

// CheckRequest represents the incoming rate limit check request
type CheckRequest struct {
	ClientID string `json:"client_id"`        // Required: unique identifier (user ID, API key, IP)
	Tokens   int64  `json:"tokens,omitempty"` // Optional: weighted request, defaults to 1
}

// CheckResponse represents the rate limit check response
type CheckResponse struct {
	Allowed      bool  `json:"allowed"`                  // Whether the request is allowed
	Remaining    int64 `json:"remaining"`                // Tokens remaining
	Limit        int64 `json:"limit"`                    // Total capacity
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"` // Milliseconds until retry (if blocked)
	ResetAt      int64 `json:"reset_at,omitempty"`       // Unix timestamp when enough tokens are back
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CheckRateLimit handles POST /check requests
func (h *Handler) CheckRateLimit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST requests are allowed")
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.ClientID == "" {
		h.sendError(w, http.StatusBadRequest, "missing_client_id", "client_id is required")
		return
	}

	tokens := req.Tokens
	if tokens == 0 {
		tokens = 1
	}

	decision, err := h.limiter.AllowN(req.ClientID, tokens)
	if err != nil {
		if errors.Is(err, pacer.ErrInvalidTokenCount) {
			h.sendError(w, http.StatusBadRequest, "invalid_tokens", "tokens must be positive")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Rate limit check failed")
		return
	}

	response := CheckResponse{
		Allowed:   decision.Allowed,
		Remaining: decision.Remaining,
		Limit:     decision.Limit,
	}

	statusCode := http.StatusOK
	if !decision.Allowed {
		statusCode = http.StatusTooManyRequests
		if decision.RetryAfter > 0 && decision.RetryAfter != pacer.RetryUnbounded {
			response.RetryAfterMs = decision.RetryAfter.Milliseconds()
			response.ResetAt = time.Now().Add(decision.RetryAfter).Unix()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
