package media

import (
	"fmt"
	"net/http"
)

// Kind classifies load failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindFetchFailed
	KindNetwork
	KindDisplay
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not found"
	case KindFetchFailed:
		return "fetch failed"
	case KindNetwork:
		return "network error"
	case KindDisplay:
		return "display error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is. Only the kind is compared.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrFetchFailed  = &Error{Kind: KindFetchFailed}
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrDisplay      = &Error{Kind: KindDisplay}
)

// Error is a failed resolve for a single ref.
type Error struct {
	Kind       Kind
	Ref        Ref
	Status     int
	StatusText string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Ref != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Ref)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Message is the user-facing description, without the ref or cause.
func (e *Error) Message() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Session expired, please sign in again"
	case KindNotFound:
		return "File not found"
	case KindFetchFailed:
		text := e.StatusText
		if text == "" {
			text = http.StatusText(e.Status)
		}
		return fmt.Sprintf("Failed to load file: %d %s", e.Status, text)
	case KindNetwork:
		return "Network error while loading file"
	case KindDisplay:
		return "File could not be displayed"
	default:
		return "Failed to load file"
	}
}

// Retryable reports whether a retry affordance makes sense. A confirmed 404 is final.
func (e *Error) Retryable() bool {
	return e.Kind != KindNotFound
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Ref == "" && t.Status == 0 && t.Err == nil && t.Kind == e.Kind
}
