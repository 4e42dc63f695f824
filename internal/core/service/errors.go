package service

import "errors"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("empty cart")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateRequest  = errors.New("duplicate request")
)
