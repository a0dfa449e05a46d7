package repository

import "errors"

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrUserNotFound signals that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrWithdrawalNotFound signals that the requested withdrawal does not exist.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrDuplicateShortCode is returned when a short code is already taken.
	ErrDuplicateShortCode = errors.New("short code already exists")
	// ErrInsufficientBalance is returned when a hold exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrStatusMismatch is returned when a compare-and-swap on status finds another status.
	ErrStatusMismatch = errors.New("status does not match expected value")
)
