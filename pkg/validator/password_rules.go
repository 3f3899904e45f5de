package validator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uppercaseRegex   = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex       = regexp.MustCompile(`[0-9]`)
	specialCharRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)

	// Frequently compromised passwords rejected regardless of strength score.
	commonPasswords = map[string]bool{
		"password":      true,
		"password1":     true,
		"password12":    true,
		"password123":   true,
		"password!":     true,
		"123456":        true,
		"1234567890":    true,
		"12345678":      true,
		"123456789":     true,
		"1234":          true,
		"12345":         true,
		"123123":        true,
		"111111":        true,
		"000000":        true,
		"qwerty":        true,
		"qwerty1":       true,
		"qwerty12":      true,
		"qwerty123":     true,
		"qwertyuiop":    true,
		"asdfghjkl":     true,
		"zxcvbnm":       true,
		"abc123":        true,
		"abcd1234":      true,
		"a1b2c3":        true,
		"1q2w3e4r":      true,
		"1qaz2wsx":      true,
		"letmein":       true,
		"welcome":       true,
		"monkey":        true,
		"dragon":        true,
		"sunshine":      true,
		"iloveyou":      true,
		"princess":      true,
		"football":      true,
		"baseball":      true,
		"superman":      true,
		"batman":        true,
		"trustno1":      true,
		"admin":         true,
		"admin123":      true,
		"administrator": true,
		"root":          true,
		"toor":          true,
		"guest":         true,
		"test":          true,
		"testing":       true,
		"user":          true,
		"login":         true,
		"pass":          true,
		"master":        true,
		"secret":        true,
	}
)

type PasswordStrengthConfig struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigits    bool
	RequireSpecial   bool
	MinCharClasses   int
}

// DefaultPasswordStrength returns the default policy: 8-128 chars, at least
// three character classes.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: false,
		RequireLowercase: false,
		RequireDigits:    false,
		RequireSpecial:   false,
		MinCharClasses:   3,
	}
}

func StrongPassword(field, value string, config PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < config.MinLength || len(value) > config.MaxLength {
				return false
			}

			hasUpper := uppercaseRegex.MatchString(value)
			hasLower := lowercaseRegex.MatchString(value)
			hasDigit := digitRegex.MatchString(value)
			hasSpecial := specialCharRegex.MatchString(value)

			charClasses := 0
			for _, has := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
				if has {
					charClasses++
				}
			}

			if config.RequireUppercase && !hasUpper {
				return false
			}
			if config.RequireLowercase && !hasLower {
				return false
			}
			if config.RequireDigits && !hasDigit {
				return false
			}
			if config.RequireSpecial && !hasSpecial {
				return false
			}

			return charClasses >= config.MinCharClasses
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("password must be %d-%d characters with required character types", config.MinLength, config.MaxLength),
			TranslationKey: "validation.password_strength",
			TranslationValues: map[string]any{
				"field":      field,
				"min_length": config.MinLength,
				"max_length": config.MaxLength,
			},
		},
	}
}

func NotCommonPassword(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return !commonPasswords[strings.ToLower(value)]
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password is too common",
			TranslationKey: "validation.password_common",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
