package services

import (
	"errors"
)

// FailCode identifies a validation failure surfaced to clients as
// {"success": false, "error": <code>}.
type FailCode string

const (
	FailNotAuthenticated  FailCode = "not_authenticated"
	FailOutOfStock        FailCode = "out_of_stock"
	FailInsufficientStock FailCode = "insufficient_stock"
	FailInvalidAddress    FailCode = "invalid_address"
	FailTotalMismatch     FailCode = "total_mismatch"
	FailOrderIntegrity    FailCode = "order_integrity"
	FailEmptyCart         FailCode = "empty_cart"
	FailStockDeduction    FailCode = "stock_deduction_failed"
)

// Failure is a typed service-layer error. Details carries per-product
// context such as "Lamp: available 2, requested 5".
type Failure struct {
	Code    FailCode
	Message string
	Details []string
}

func (f *Failure) Error() string {
	return f.Message
}

// NewFailure builds a Failure with optional details.
func NewFailure(code FailCode, message string, details ...string) *Failure {
	return &Failure{Code: code, Message: message, Details: details}
}

// AsFailure unwraps a Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
