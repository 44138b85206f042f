package validation

import (
	"errors"
	"strings"
)

// Sentinel errors — callers use errors.Is() instead of string matching.
// The messages are part of the wire contract: they come back verbatim in the
// 400 response body.
var (
	ErrNoFilePart     = errors.New("no file part")
	ErrNoSelectedFile = errors.New("no selected file")
	ErrEmptyToken     = errors.New("session token is required")
)

// ValidateIngest checks the fields an upload must carry before anything is
// written to storage. Content is deliberately not inspected — the store
// accepts arbitrary bytes.
func ValidateIngest(token, filename string) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	if filename == "" {
		return ErrNoSelectedFile
	}
	return nil
}
