package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"fluxo/internal/core"
	applog "fluxo/internal/log"
)

const dateLayout = "2006-01-02"

// timeNow is swapped in tests for deterministic "today" values.
var timeNow = time.Now

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps domain errors to HTTP status codes. Unexpected errors
// get logged with the request-scoped logger before the 500 goes out.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrAccountNotFound), errors.Is(err, core.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, core.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrEmptyDescription):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			applog.FieldError, err.Error(),
			"method", r.Method,
			"path", r.URL.Path)
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf(format, args...)})
}

// parseDate parses a YYYY-MM-DD query or body value.
func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, fmt.Errorf("empty date: %w", core.ErrInvalidInput)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("date %q: %w", s, core.ErrInvalidInput)
	}
	return core.DateOf(t), nil
}

// parseOptionalDate returns the zero Date for an empty value.
func parseOptionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return parseDate(s)
}

// parseMoney converts a decimal string ("123.45" or "123,45") to Money.
func parseMoney(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseOptionalMoney returns zero Money for an empty value.
func parseOptionalMoney(s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return parseMoney(s)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// clientIP extracts the caller address, honoring X-Forwarded-For from a
// reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
