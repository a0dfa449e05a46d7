package service

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
)

// Error is the error type returned by every service operation.
// Code is a stable machine-readable identifier.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and code so sentinels survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func validationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func internalError(code, message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message, Err: err}
}

var (
	ErrLinkNotFound       = &Error{Kind: KindNotFound, Code: "LINK_NOT_FOUND", Message: "short link not found"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrWithdrawalNotFound = &Error{Kind: KindNotFound, Code: "WITHDRAWAL_NOT_FOUND", Message: "withdrawal not found"}
	ErrUserInactive       = &Error{Kind: KindForbidden, Code: "USER_INACTIVE", Message: "account is disabled"}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "access denied"}
	ErrInvalidTransition  = &Error{Kind: KindValidation, Code: "INVALID_TRANSITION", Message: "withdrawal status transition is not allowed"}
	ErrInsufficientFunds  = &Error{Kind: KindValidation, Code: "INSUFFICIENT_BALANCE", Message: "amount exceeds available balance"}
)

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or "INTERNAL_ERROR" for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL_ERROR"
}
