package common

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payment-review/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Reason  constants.Reason
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field runs rules in order and records only the first failure for the field.
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
			break
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error message
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	str, ok := asString(value)
	if !ok || strings.TrimSpace(str) == "" {
		return &ValidationError{Field: fieldName, Value: value, Reason: constants.ReasonEmpty, Message: "is required"}
	}
	return nil
}

// MaxLength builds a rule rejecting strings longer than max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := asString(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(strings.TrimSpace(str)) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Reason:  constants.ReasonTooLong,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// PositiveAmount accepts decimal strings greater than zero with at most two
// decimal places ("12.50", "3").
// A comma decimal separator is tolerated when no dot is present.
func PositiveAmount(fieldName string, value interface{}) *ValidationError {
	str, _ := asString(value)
	if _, err := ParseAmount(str); err != nil {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Reason:  constants.ReasonInvalidAmount,
			Message: "must be a positive decimal amount",
		}
	}
	return nil
}

// ParseAmount parses a user-entered amount into a positive decimal with at
// most two significant fractional digits. Exponent notation is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("amount %q uses exponent notation", s)
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %s is not positive", d.String())
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("amount %s has more than 2 decimal places", d.String())
	}
	return d, nil
}

var ibanRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)

// IBAN checks shape and the ISO 7064 mod-97 checksum; spaces and case are ignored.
func IBAN(fieldName string, value interface{}) *ValidationError {
	str, _ := asString(value)
	if !ValidIBAN(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Reason:  constants.ReasonInvalidIBAN,
			Message: "must be a valid IBAN",
		}
	}
	return nil
}

// NormalizeIBAN strips whitespace and upper-cases an IBAN.
func NormalizeIBAN(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// ValidIBAN reports whether s is a well-formed IBAN with a valid checksum.
func ValidIBAN(s string) bool {
	iban := NormalizeIBAN(s)
	if !ibanRegex.MatchString(iban) {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(fmt.Sprintf("%d", r-'A'+10))
			continue
		}
		digits.WriteRune(r)
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

// CurrencyCode requires an ISO 4217 code (3 upper-case letters).
func CurrencyCode(fieldName string, value interface{}) *ValidationError {
	str, ok := asString(value)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}

	currencyRegex := regexp.MustCompile(`^[A-Z]{3}$`)
	if !currencyRegex.MatchString(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be 3 uppercase letters (ISO 4217)",
		}
	}

	return nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}
