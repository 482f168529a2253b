// ABOUTME: Input validation for API bodies and path parameters
// ABOUTME: Checks principals and blob hashes before they reach the store

package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/caffeinepub/crocheting-app/internal/principal"
	"github.com/caffeinepub/crocheting-app/internal/validate"
)

// hashPattern matches a lowercase hex sha256 digest
var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

var bodies = validate.New()

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateBody runs the struct's validate tags. Failures are validate.Errors.
func ValidateBody(v any) error {
	return bodies.Struct(v)
}

// ValidatePrincipal checks a principal taken from a URL path.
func ValidatePrincipal(text string) error {
	if err := principal.Validate(text); err != nil {
		return fmt.Errorf("invalid principal: %s", sanitizeForLog(text))
	}
	return nil
}

// ValidateHash checks a blob hash taken from a URL path.
func ValidateHash(hash string) error {
	if !hashPattern.MatchString(hash) {
		return fmt.Errorf("invalid blob hash: %s", sanitizeForLog(hash))
	}
	return nil
}
