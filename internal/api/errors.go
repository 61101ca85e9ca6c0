package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zuvy/assess/internal/assessment"
)

// ErrSessionExpired is returned when the access token was rejected and could
// not be refreshed. Stored tokens have already been cleared.
var ErrSessionExpired = errors.New(assessment.MsgSessionExpired)

// ErrNotSignedIn is returned for authenticated calls without a stored token.
var ErrNotSignedIn = errors.New("not signed in: run `zuvy login` first")

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// UserMessage returns the server message, or a generic one.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed (%d %s)", e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message extracts a display message from any client error.
func Message(err error, fallback string) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionExpired):
		return assessment.MsgSessionExpired
	case errors.As(err, &apiErr):
		return apiErr.UserMessage()
	case assessment.IsValidation(err):
		return err.Error()
	}
	return fallback
}
