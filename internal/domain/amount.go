package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bounds on client supplied amounts. Comparing or adding decimals rescales
// them to a common exponent, so an unbounded exponent turns arithmetic into
// arbitrarily large big.Int work.
const (
	MaxAmountScale  = 18
	MaxAmountDigits = 36
)

// ValidateAmount checks that v is positive and representable within
// MaxAmountScale decimal places and MaxAmountDigits significant digits.
// field names the value in the returned ValidationError.
func ValidateAmount(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return &ValidationError{Message: fmt.Sprintf("%s must be greater than 0", field)}
	}
	exp := v.Exponent()
	if exp < -MaxAmountScale || exp > MaxAmountScale {
		return &ValidationError{
			Message: fmt.Sprintf("%s is out of range: exponent must be within -%d..%d", field, MaxAmountScale, MaxAmountScale),
		}
	}
	if v.NumDigits() > MaxAmountDigits {
		return &ValidationError{
			Message: fmt.Sprintf("%s must have at most %d significant digits", field, MaxAmountDigits),
		}
	}
	return nil
}
