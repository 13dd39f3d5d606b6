// Package apperr carries the failure taxonomy shared by all services.
// Callers branch on Kind instead of matching error strings.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnknown covers unexpected internal failures.
	KindUnknown Kind = iota
	// KindValidation means the input violated field-level rules.
	KindValidation
	// KindUnauthorized means the caller is not logged in or the token is bad.
	KindUnauthorized
	// KindNotOwner means the entity does not belong to the caller.
	KindNotOwner
	// KindOrderNotFound means a conditional order update matched zero documents,
	// typically a concurrent delete.
	KindOrderNotFound
	// KindProductNotFound means the product does not exist or is out of stock.
	KindProductNotFound
	// KindInsufficientStock means a buy asked for more than is available.
	KindInsufficientStock
	// KindReturnWindowExpired means a return was attempted on an unpurchased
	// order or past the 30-minute window.
	KindReturnWindowExpired
	// KindInsufficientFunds means a withdrawal or transfer would overdraw.
	KindInsufficientFunds
	// KindTransactionAborted means a storage transaction was rolled back
	// because a step inside it failed.
	KindTransactionAborted
	// KindNotFound covers any other missing entity.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotOwner:
		return "not_owner"
	case KindOrderNotFound:
		return "order_not_found"
	case KindProductNotFound:
		return "product_not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindReturnWindowExpired:
		return "return_window_expired"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindTransactionAborted:
		return "transaction_aborted"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
