package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")

	ErrUserNotFound    = errors.New("user not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrLoanNotFound    = errors.New("loan not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrRequestNotFound = errors.New("loan request not found")
	ErrReceiptNotFound = errors.New("receipt submission not found")
)
