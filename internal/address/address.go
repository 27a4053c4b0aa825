// Package address validates wallet addresses typed by a user before any
// request is sent upstream.
package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Normalize accepts 40 hex characters with an optional 0x prefix and returns
// the lowercase 0x-prefixed form.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &FieldError{Field: "address", Message: "address is required"}
	}
	if !common.IsHexAddress(s) {
		return "", &FieldError{Field: "address", Message: "expected 40 hex characters, optionally prefixed with 0x"}
	}
	if has0x(s) {
		s = s[2:]
	}
	return "0x" + strings.ToLower(s), nil
}

// Valid reports whether raw would pass Normalize.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Short renders 0x1234…abcd for titles and log lines.
func Short(addr string) string {
	if len(addr) < 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func has0x(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
