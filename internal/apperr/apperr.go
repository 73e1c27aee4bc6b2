// Package apperr defines the error taxonomy shared by the stores, the
// checkout engine and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers deciding how to surface it.
type Kind string

const (
	// KindNotFound means a referenced cart, order, address or product is missing.
	KindNotFound Kind = "not_found"
	// KindConflict means a business rule rejected the operation.
	KindConflict Kind = "conflict"
	// KindInvalid means the caller supplied malformed input.
	KindInvalid Kind = "invalid"
	// KindStorage means the persistent store failed. The operation left no partial state.
	KindStorage Kind = "storage"
)

// Error is a classified application error. Two errors match under errors.Is
// when their codes are equal, so callers compare against the sentinels below.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for every named failure of the cart, checkout and order stores.
var (
	ErrCartNotFound    = &Error{Kind: KindNotFound, Code: "CART_NOT_FOUND", Message: "cart not found"}
	ErrOrderNotFound   = &Error{Kind: KindNotFound, Code: "ORDER_NOT_FOUND", Message: "order not found"}
	ErrAddressNotFound = &Error{Kind: KindNotFound, Code: "ADDRESS_NOT_FOUND", Message: "address not found"}
	ErrProductNotFound = &Error{Kind: KindNotFound, Code: "PRODUCT_NOT_FOUND", Message: "product not found"}
	ErrUserNotFound    = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrItemNotFound    = &Error{Kind: KindNotFound, Code: "ITEM_NOT_FOUND", Message: "this product is not in your cart"}
	ErrNoCartsFound    = &Error{Kind: KindNotFound, Code: "NO_CARTS_FOUND", Message: "no shopping carts found"}

	ErrAlreadyInCart     = &Error{Kind: KindConflict, Code: "ALREADY_IN_CART", Message: "product is already in your cart"}
	ErrOutOfStock        = &Error{Kind: KindConflict, Code: "OUT_OF_STOCK", Message: "product is currently unavailable"}
	ErrInsufficientStock = &Error{Kind: KindConflict, Code: "INSUFFICIENT_STOCK", Message: "insufficient stock"}
	ErrEmptyCart         = &Error{Kind: KindConflict, Code: "EMPTY_CART", Message: "your cart is empty"}
	ErrNegativeQuantity  = &Error{Kind: KindConflict, Code: "NEGATIVE_QUANTITY", Message: "quantity cannot be less than zero"}
	ErrAlreadyExists     = &Error{Kind: KindConflict, Code: "ALREADY_EXISTS", Message: "resource already exists"}

	ErrInvalidQuantity  = &Error{Kind: KindInvalid, Code: "INVALID_QUANTITY", Message: "quantity must be a positive integer"}
	ErrInvalidSortField = &Error{Kind: KindInvalid, Code: "INVALID_SORT_FIELD", Message: "invalid sort field"}
	ErrInvalidPage      = &Error{Kind: KindInvalid, Code: "INVALID_PAGE", Message: "invalid page parameters"}
	ErrInvalidInput     = &Error{Kind: KindInvalid, Code: "INVALID_INPUT", Message: "invalid input"}

	ErrStorage = &Error{Kind: KindStorage, Code: "STORAGE_FAILURE", Message: "storage failure"}
)

// New returns a copy of sentinel carrying a specific message.
func New(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Storage wraps a driver error raised while performing op.
func Storage(op string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    ErrStorage.Code,
		Message: op,
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are treated as storage failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// As returns the first *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
