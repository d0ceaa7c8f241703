// Package internal provides utilities shared by the mcpchat commands and the HTTP host.
package internal

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"unicode"
)

// GenerateAccessToken generates a 256-bit secure random access token for the HTTP host.
func GenerateAccessToken() (string, error) {
	const tokenLength = 32
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}

// ValidateAccessToken checks if a user-provided access token is acceptable for the HTTP host.
// It doesn't impose many conditions to allow flexibility.
func ValidateAccessToken(token string) error {
	if len(token) < 8 {
		return fmt.Errorf("access token should be at least 8 characters in length")
	}
	if hasWhitespace(token) {
		return fmt.Errorf("access token should not contain whitespace characters")
	}
	return nil
}

// AccessTokenMatches reports whether the presented token equals the expected one.
// The comparison takes constant time.
func AccessTokenMatches(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// hasWhitespace checks if the access token contains any whitespace characters.
func hasWhitespace(token string) bool {
	for _, r := range token {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
