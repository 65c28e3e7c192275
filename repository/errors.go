package repository

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrDuplicateUser    = errors.New("username or email already registered")

	ErrOrderNotPending    = errors.New("order is not pending")
	ErrPaymentAlreadyUsed = errors.New("payment already used")
)
