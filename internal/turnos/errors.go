package turnos

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an API failure at the network boundary so callers never
// branch on untyped response shapes.
type Kind int

const (
	// KindTransport covers network failures and 5xx responses. Callers show
	// a generic "try again" message; the triggering action is retryable.
	KindTransport Kind = iota
	// KindRejected is a business-rule rejection (slot taken, cancellation
	// window passed). The server message is shown verbatim.
	KindRejected
	// KindAuth means the session is missing, expired or not allowed.
	KindAuth
	// KindNotFound means the referenced entity does not exist on the backend.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "transport"
	}
}

// APIError is a classified backend failure.
type APIError struct {
	Kind    Kind
	Op      string
	Message string
	// Fields holds per-field validation details when the backend sends them.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("turnos: %s: %s", e.Op, e.Message)
	}
	var details []string
	for _, msgs := range e.Fields {
		details = append(details, msgs...)
	}
	return fmt.Sprintf("turnos: %s: %s (%s)", e.Op, e.Message, strings.Join(details, "; "))
}

// Rejection returns the APIError when err is a business-rule rejection.
func Rejection(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindRejected {
		return apiErr, true
	}
	return nil, false
}

// IsTransport reports whether err should be shown as a generic retry message.
func IsTransport(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindTransport
	}
	// Anything unclassified degrades to the generic branch.
	return err != nil
}

// IsAuth reports whether err means the caller needs a fresh login.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}
