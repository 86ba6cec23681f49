package errors

import (
	"strings"
	"unicode"
)

// ValidateDocumentName validates a document name used as a store key.
// Document names are derived from PDF basenames and end up as file names
// in the storage directory, so they must not escape it.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 255 bytes
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDocument, "document name cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidDocument, "document name too long (max 255 bytes)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDocument, "document name contains invalid control characters")
		}
	}

	if name == "." || strings.Contains(name, "..") {
		return New(ErrCodeInvalidDocument, "document name cannot contain path traversal sequences (..)")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidDocument, "document name cannot contain path separators")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	rest, ok := strings.CutPrefix(rawURL, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(rawURL, "http://")
	}
	if !ok {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	host, _, _ := strings.Cut(rest, "/")
	if host == "" || strings.ContainsAny(host, " \t") {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}
