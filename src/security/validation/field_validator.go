// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/username/tradelog/backend/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxTickerLength        = 10
	MaxNoteLength          = 1024
)

var (
	tickerPattern  = regexp.MustCompile(`^[A-Z0-9.\-]+$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateTicker checks the uppercase symbol format.
func ValidateTicker(s string) error {
	if err := ValidateStringNotEmpty(s, "ticker"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxTickerLength, "ticker"); err != nil {
		return err
	}
	if !tickerPattern.MatchString(s) {
		return fmt.Errorf("%w: ticker ('%s') must contain only uppercase letters, digits, '.' or '-'", ErrValidationFailed, s)
	}
	return nil
}

// ValidateISODate checks the YYYY-MM-DD shape.
func ValidateISODate(s, fieldName string) error {
	if !isoDatePattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') must be an ISO date (YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
	}
	return nil
}

// ValidatePositiveInt checks that an integer field is strictly positive.
func ValidatePositiveInt(v int, fieldName string) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be a positive integer, got %d", ErrValidationFailed, fieldName, v)
	}
	return nil
}

// ValidatePositiveFloat checks that a numeric field is strictly positive.
func ValidatePositiveFloat(v float64, fieldName string) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", ErrValidationFailed, fieldName, v)
	}
	return nil
}

// ValidateAccount checks the account type against the known brokerages.
func ValidateAccount(account string) error {
	switch account {
	case models.AccountNisa, models.AccountRakuten, models.AccountMoomoo:
		return nil
	}
	return fmt.Errorf("%w: unknown account type '%s'", ErrValidationFailed, account)
}

// ValidatePositionEntry checks the required entry fields of a new or edited
// position. Optional descriptive fields are not validated beyond length.
func ValidatePositionEntry(p *models.Position) error {
	if err := ValidateTicker(p.Ticker); err != nil {
		return err
	}
	if err := ValidateISODate(p.EntryDate, "entry date"); err != nil {
		return err
	}
	if err := ValidatePositiveInt(p.Shares, "shares"); err != nil {
		return err
	}
	if err := ValidatePositiveFloat(p.EntryPrice, "entry price"); err != nil {
		return err
	}
	if err := ValidatePositiveFloat(p.EntryFx, "entry FX rate"); err != nil {
		return err
	}
	if err := ValidateAccount(p.Account); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(p.Name, DefaultMaxStringLength, "name"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(p.Note, MaxNoteLength, "note"); err != nil {
		return err
	}
	return ValidateStringMaxLength(p.EntryReason, MaxNoteLength, "entry reason")
}

// ValidateExit checks the required fields of a new exit record. The remaining-
// shares bound is checked by the caller against the current stored exits.
func ValidateExit(e *models.Exit) error {
	if err := ValidatePositiveInt(e.Shares, "exit shares"); err != nil {
		return err
	}
	if err := ValidatePositiveFloat(e.Price, "exit price"); err != nil {
		return err
	}
	if err := ValidatePositiveFloat(e.Fx, "exit FX rate"); err != nil {
		return err
	}
	return ValidateISODate(e.Date, "exit date")
}
