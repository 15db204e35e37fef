package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// writeJSON writes v with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// classifyUpstreamError maps a failed upstream call onto a status code and
// response body, distinguishing timeouts (504) from other gateway errors (502).
func classifyUpstreamError(err error) (int, map[string]interface{}) {
	errMsg := err.Error()
	isTimeout := errors.Is(err, context.DeadlineExceeded)

	var netErr net.Error
	if !isTimeout && errors.As(err, &netErr) && netErr.Timeout() {
		isTimeout = true
	}

	// Wrapped errors sometimes only keep the message.
	if !isTimeout {
		lower := strings.ToLower(errMsg)
		isTimeout = strings.Contains(lower, "timeout") ||
			strings.Contains(lower, "deadline exceeded")
	}

	if isTimeout {
		return http.StatusGatewayTimeout, map[string]interface{}{
			"error":   errMsg,
			"code":    "GATEWAY_TIMEOUT",
			"message": "The upstream service timed out.",
		}
	}

	return http.StatusBadGateway, map[string]interface{}{
		"error":   errMsg,
		"code":    "BAD_GATEWAY",
		"message": "The request failed due to an upstream error.",
	}
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	status, body := classifyUpstreamError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Options answers CORS preflight requests.
func Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
