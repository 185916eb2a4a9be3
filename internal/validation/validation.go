// Package validation provides input validation utilities
package validation

import (
	"html"
	"strings"
	"unicode/utf16"

	"kidflix/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

// MinPasswordLength is the shortest password accepted at signup and on change.
const MinPasswordLength = 6

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips markup from user-supplied text and trims surrounding
// whitespace. Entities escaped by the policy are turned back into plain
// characters since the result is stored as text, not HTML.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}

// ValidateRequired fails when value is blank.
func ValidateRequired(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return models.NewValidationError(name + " cannot be empty")
	}
	return nil
}

// ValidatePassword checks the minimum length rule. Length is counted in
// UTF-16 code units, so "äöü" is three characters long and astral
// symbols count twice.
func ValidatePassword(password string) error {
	if len(utf16.Encode([]rune(password))) < MinPasswordLength {
		return models.NewValidationError("password must be at least 6 characters")
	}
	return nil
}

// ValidatePasswordChange checks the new password and its confirmation.
func ValidatePasswordChange(newPassword, confirm string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	if newPassword != confirm {
		return models.NewValidationError("new passwords do not match")
	}
	return nil
}
