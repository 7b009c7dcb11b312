// Package utils provides input validation shared by the command stream and
// REST surface.
package utils

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Limits on UI-supplied input.
const (
	// MaxPayloadSize caps one command payload. States carry form data, so
	// the cap is generous, but a runaway payload must not exhaust memory.
	MaxPayloadSize = 1 * 1024 * 1024

	// MaxIDLength caps workspace and page identifiers. They are opaque
	// strings owned by the shell, but they end up in log lines and maps.
	MaxIDLength = 128

	// MaxURLLength matches what mainstream engines accept.
	MaxURLLength = 8 * 1024
)

// ValidatePayloadSize checks a raw command payload against MaxPayloadSize.
func ValidatePayloadSize(data []byte) error {
	if len(data) > MaxPayloadSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", len(data), MaxPayloadSize)
	}
	return nil
}

// ValidateID validates an opaque identifier field.
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if utf8.RuneCountInString(id) > MaxIDLength {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, MaxIDLength)
	}
	if strings.Contains(id, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateNavigationURL checks a URL the backend is asked to load. Only web
// schemes are allowed; the shell has no business navigating surfaces to
// file: or chrome: targets.
func ValidateNavigationURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("url exceeds %d characters", MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("url has no host")
		}
		return nil
	case "about":
		return nil
	default:
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}
