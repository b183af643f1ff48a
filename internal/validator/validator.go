package validator

import (
	"fmt"
	"regexp"
)

func ValidateString(value string, minLength int, maxLength int) error {
	n := len(value)
	if n < minLength || n > maxLength {
		return fmt.Errorf("must contain from %d to %d characters", minLength, maxLength)
	}

	return nil
}

var isCurrencyCode = regexp.MustCompile(`^[A-Z]{3}$`).MatchString

func ValidateCurrency(value string) error {
	if !isCurrencyCode(value) {
		return fmt.Errorf("must be a 3-letter uppercase currency code")
	}

	return nil
}

var isUsername = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`).MatchString

func ValidateUsername(value string) error {
	if err := ValidateString(value, 1, 64); err != nil {
		return err
	}
	if !isUsername(value) {
		return fmt.Errorf("must contain only letters, digits, underscores, dots or hyphens")
	}

	return nil
}
