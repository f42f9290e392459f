package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates the failure classes produced by the request executor.
type Kind int

const (
	// KindAPI is a structured server error carrying a user-facing message.
	KindAPI Kind = iota + 1
	// KindGeneric is a server failure with a free-text message or no body.
	KindGeneric
	// KindNetwork is a transport failure or an unparseable failing response.
	KindNetwork
	// KindSessionExpired is terminal: refresh failed or no refresh token was stored.
	KindSessionExpired
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindGeneric:
		return "generic"
	case KindNetwork:
		return "network"
	case KindSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// APIDetails is the structured error body returned by the backend services.
type APIDetails struct {
	Code        int      `json:"errorCode"`
	Name        string   `json:"errorName"`
	Message     string   `json:"message"`
	UserMessage string   `json:"userMessage"`
	Timestamp   string   `json:"timestamp"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	CausedBy    string   `json:"causedBy"`
	Suggestions []string `json:"suggestions"`
}

// Error is the tagged error returned by every remote call.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when no response was received
	Message string
	API     *APIDetails // set for KindAPI
	Err     error       // underlying cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindAPI && e.API != nil:
		return fmt.Sprintf("api error %d %s: %s", e.API.Code, e.API.Name, e.API.Message)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps the tagged error onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSessionExpired:
		return e.Kind == KindSessionExpired
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrAlreadyExists:
		return e.Status == http.StatusConflict
	case ErrValidation:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// Code returns the structured error code, falling back to the HTTP status.
func (e *Error) Code() int {
	if e.API != nil && e.API.Code != 0 {
		return e.API.Code
	}
	return e.Status
}

// NewAPI builds a KindAPI error from a parsed body.
func NewAPI(status int, d APIDetails) *Error {
	return &Error{Kind: KindAPI, Status: status, Message: d.Message, API: &d}
}

// NewGeneric builds a KindGeneric error.
func NewGeneric(status int, msg string) *Error {
	return &Error{Kind: KindGeneric, Status: status, Message: msg}
}

// NewNetwork builds a KindNetwork error.
func NewNetwork(status int, msg string, cause error) *Error {
	return &Error{Kind: KindNetwork, Status: status, Message: msg, Err: cause}
}

// SessionExpired builds the terminal KindSessionExpired error.
func SessionExpired(cause error) *Error {
	return &Error{Kind: KindSessionExpired, Message: "session expired", Err: cause}
}

// As extracts the tagged error from a chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of a tagged error, or 0 for any other error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return 0
}

// UserMessage returns text suitable for showing to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if e, ok := As(err); ok {
		switch {
		case e.Kind == KindAPI && e.API != nil && e.API.UserMessage != "":
			return e.API.UserMessage
		case e.Kind == KindSessionExpired:
			return "Your session has expired. Please log in again."
		case e.Message != "":
			return e.Message
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unknown error occurred"
}
