package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/auth"
	"github.com/etnz/papertrade/store"
)

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response with an error code.
func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Detail: message, Code: code})
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteError(w, http.StatusBadRequest, "Request body is required", "invalid_request")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), "invalid_request")
		return false
	}
	return true
}

// errorStatus maps an operation error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case papertrade.IsValidationError(err):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, papertrade.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, papertrade.ErrNoHolding):
		return http.StatusConflict, "no_holding"
	case errors.Is(err, papertrade.ErrInsufficientQuantity):
		return http.StatusConflict, "insufficient_quantity"
	case errors.Is(err, papertrade.ErrPortfolioNotFound):
		return http.StatusNotFound, "portfolio_not_found"
	case errors.Is(err, papertrade.ErrPriceUnavailable):
		return http.StatusBadGateway, "price_unavailable"
	case errors.Is(err, store.ErrUserExists):
		return http.StatusConflict, "user_exists"
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "Internal server error"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteError(w, status, msg, code)
}
