package papertrade

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by ledger mutations and the accounting system. A failed
// mutation never leaves the ledger partially modified.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNoHolding            = errors.New("no holding for symbol")
	ErrInsufficientQuantity = errors.New("insufficient quantity held")
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrPriceUnavailable     = errors.New("price unavailable")
)

// ValidationError reports an input rejected before any ledger is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

const maxSymbolLength = 16

// NormalizeSymbol upper-cases and validates an asset symbol such as "btc".
// Symbols are 1 to 16 ASCII letters or digits.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", &ValidationError{Field: "symbol", Reason: "symbol is missing"}
	}
	if len(s) > maxSymbolLength {
		return "", &ValidationError{Field: "symbol", Reason: fmt.Sprintf("%q is longer than %d characters", s, maxSymbolLength)}
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", &ValidationError{Field: "symbol", Reason: fmt.Sprintf("%q contains %q", s, r)}
		}
	}
	return s, nil
}

// validateTradeQuantity checks that a buy or sell quantity is strictly positive.
func validateTradeQuantity(q Quantity) error {
	if !q.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be positive, got %s", q)}
	}
	return nil
}

// validateDepositAmount checks that a deposit is not negative. Zero is allowed.
func validateDepositAmount(amount Money) error {
	if amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must not be negative, got %s", amount.Decimal())}
	}
	return nil
}
