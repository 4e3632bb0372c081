// Package apperr provides coded errors shared by the domain and the services.
package apperr

import "errors"

// Kind groups codes by how a caller should react to them.
type Kind int

const (
	KindInternal Kind = iota
	// KindInvariant is a domain rule violation: the request is well formed but illegal in the current state.
	KindInvariant
	// KindNotFound means a referenced order, ticket, table or line does not exist.
	KindNotFound
	// KindInvalidInput is rejected before any mutation happens.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindInvariant:
		return "invariant"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Value errors
	CodeInvalidMoney     Code = "INVALID_MONEY"
	CodeInvalidCurrency  Code = "INVALID_CURRENCY"
	CodeCurrencyMismatch Code = "CURRENCY_MISMATCH"
	CodeInvalidQuantity  Code = "INVALID_QUANTITY"

	// Order errors
	CodeOrderNotDraft          Code = "ORDER_NOT_DRAFT"
	CodeOrderEmpty             Code = "ORDER_EMPTY"
	CodeOrderInvalidTransition Code = "ORDER_INVALID_TRANSITION"
	CodeOrderAlreadyPaid       Code = "ORDER_ALREADY_PAID"
	CodeOrderCancelled         Code = "ORDER_CANCELLED"
	CodeOrderNotReadyToPay     Code = "ORDER_NOT_READY_FOR_PAYMENT"
	CodePaymentAmountMismatch  Code = "PAYMENT_AMOUNT_MISMATCH"
	CodePaymentCurrency        Code = "PAYMENT_CURRENCY_MISMATCH"
	CodeOrderItemNotFound      Code = "ORDER_ITEM_NOT_FOUND"
	CodeInvalidOrderItem       Code = "INVALID_ORDER_ITEM"
	CodeInvalidOrder           Code = "INVALID_ORDER"

	// Ticket errors
	CodeTicketInvalidTransition Code = "TICKET_INVALID_TRANSITION"
	CodeInvalidAction           Code = "INVALID_ACTION"

	// Lookup errors
	CodeOrderNotFound  Code = "ORDER_NOT_FOUND"
	CodeTicketNotFound Code = "TICKET_NOT_FOUND"
	CodeTableNotFound  Code = "TABLE_NOT_FOUND"

	// Request errors
	CodeInvalidPagination Code = "INVALID_PAGINATION"
	CodeInvalidRequest    Code = "INVALID_REQUEST"

	// Storage errors
	CodeConcurrentUpdate Code = "CONCURRENT_UPDATE"
)

var kinds = map[Code]Kind{
	CodeInvalidMoney:            KindInvalidInput,
	CodeInvalidCurrency:         KindInvalidInput,
	CodeInvalidQuantity:         KindInvalidInput,
	CodeInvalidAction:           KindInvalidInput,
	CodeInvalidOrderItem:        KindInvalidInput,
	CodeInvalidOrder:            KindInvalidInput,
	CodeInvalidPagination:       KindInvalidInput,
	CodeInvalidRequest:          KindInvalidInput,
	CodeCurrencyMismatch:        KindInvariant,
	CodeOrderNotDraft:           KindInvariant,
	CodeOrderEmpty:              KindInvariant,
	CodeOrderInvalidTransition:  KindInvariant,
	CodeOrderAlreadyPaid:        KindInvariant,
	CodeOrderCancelled:          KindInvariant,
	CodeOrderNotReadyToPay:      KindInvariant,
	CodePaymentAmountMismatch:   KindInvariant,
	CodePaymentCurrency:         KindInvariant,
	CodeTicketInvalidTransition: KindInvariant,
	CodeConcurrentUpdate:        KindInvariant,
	CodeOrderItemNotFound:       KindNotFound,
	CodeOrderNotFound:           KindNotFound,
	CodeTicketNotFound:          KindNotFound,
	CodeTableNotFound:           KindNotFound,
}

// Error is the coded error type returned by the domain and the services.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Kind returns the kind registered for the error code.
func (e *Error) Kind() Kind {
	return kinds[e.Code]
}

// New creates a simple coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a coded error carrying context values.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a coded error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in the chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}
