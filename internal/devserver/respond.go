package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/and161185/movie-mate/internal/errs"
)

// Structured error names.
const (
	errNameUnauthorized = "UNAUTHORIZED"
	errNameForbidden    = "FORBIDDEN"
	errNameRateLimited  = "RATE_LIMITED"
	errNameConflict     = "CONFLICT"
	errNameValidation   = "VALIDATION"
	errNameInternal     = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError answers with the structured error body of the backend services.
func writeAPIError(w http.ResponseWriter, r *http.Request, status int, name, msg, userMsg string) {
	writeJSON(w, status, errs.APIDetails{
		Code:        status,
		Name:        name,
		Message:     msg,
		UserMessage: userMsg,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Path:        r.URL.Path,
		Method:      r.Method,
	})
}

// writeMessage answers with a bare {"message"} body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	writeAPIError(w, r, http.StatusUnauthorized, errNameUnauthorized, msg, "Please log in again.")
}

// writeError maps service and fixture errors onto responses. Fixture errors carry
// their own status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *errs.ValidationError
	if e, ok := errs.As(err); ok && e.Status > 0 {
		writeMessage(w, e.Status, e.Message)
		return
	}
	switch {
	case errors.As(err, &ve):
		writeAPIError(w, r, http.StatusBadRequest, errNameValidation, ve.Error(), ve.Message)
	case errors.Is(err, errs.ErrRateLimited):
		writeAPIError(w, r, http.StatusTooManyRequests, errNameRateLimited, "too many failed logins",
			"Too many failed attempts. Try again later.")
	case errors.Is(err, errs.ErrUnauthorized):
		writeAPIError(w, r, http.StatusUnauthorized, errNameUnauthorized, "bad credentials",
			"Wrong username or password.")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeAPIError(w, r, http.StatusConflict, errNameConflict, "account already exists",
			"That username or email is already registered.")
	default:
		writeAPIError(w, r, http.StatusInternalServerError, errNameInternal, "internal error", "Something went wrong.")
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// intParam reads a positive query parameter, def when absent.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
