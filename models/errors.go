package models

import "errors"

// Errors returned by store implementations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrVersionNotFound     = errors.New("version not found")
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrInvalidQuery        = errors.New("invalid query")
)
