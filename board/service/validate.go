// board/service/validate.go
package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// absoluteURL accepts http(s) URLs with a host.
func absoluteURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	return err == nil && addr.Address == raw
}

func minLen(s string, n int) bool {
	return len([]rune(strings.TrimSpace(s))) >= n
}
