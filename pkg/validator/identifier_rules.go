package validator

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidUsername validates length and the letters/numbers/underscore/hyphen
// character set.
func ValidUsername(field, value string, minLen int, maxLen int) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}
			if len(value) < minLen || len(value) > maxLen {
				return false
			}
			return usernameRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("username must be %d-%d characters long and contain only letters, numbers, underscores, and hyphens", minLen, maxLen),
			TranslationKey: "validation.username",
			TranslationValues: map[string]any{
				"field":   field,
				"min_len": minLen,
				"max_len": maxLen,
			},
		},
	}
}
