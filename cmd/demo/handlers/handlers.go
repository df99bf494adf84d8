// Package handlers provides mock endpoints for the demo server.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is a generic JSON response structure
type Response struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Health returns a health check endpoint
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Message:   "Pacer demo server is healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Search handles search requests (lenient rate limit)
func Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		query = "all"
	}

	writeJSON(w, http.StatusOK, Response{
		Message: "Search endpoint - lenient rate limit",
		Data: map[string]interface{}{
			"query":   query,
			"results": []string{"result1", "result2", "result3"},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Create handles resource creation (moderate rate limit)
func Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Message: "Create endpoint - moderate rate limit",
		Data: map[string]interface{}{
			"id":      "12345",
			"created": true,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Login handles authentication (strict rate limit to prevent brute force)
func Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Message: "Login endpoint - strict rate limit",
		Data: map[string]interface{}{
			"token": "mock-jwt-token",
			"user":  "demo-user",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
