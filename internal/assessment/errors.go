package assessment

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes one rejected field of a form or payload.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every field error found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "validation failed"
	case 1:
		return e[0].Message
	default:
		return fmt.Sprintf("validation failed: %d field errors", len(e))
	}
}

// Messages returns the distinct user-facing messages in order.
func (e ValidationErrors) Messages() []string {
	seen := make(map[string]bool, len(e))
	var out []string
	for _, v := range e {
		if seen[v.Message] {
			continue
		}
		seen[v.Message] = true
		out = append(out, v.Message)
	}
	return out
}

// HasField reports whether any error concerns field.
func (e ValidationErrors) HasField(field string) bool {
	for _, v := range e {
		if strings.EqualFold(v.Field, field) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err carries validation errors.
func IsValidation(err error) bool {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single ValidationError
	return errors.As(err, &single)
}
