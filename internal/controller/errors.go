package controller

import "errors"

var (
	ErrNoKeys         = errors.New("controller: key list is empty")
	ErrInvalidPayload = errors.New("controller: payload size must be positive")
	ErrInvalidConfig  = errors.New("controller: invalid configuration")
	ErrNilWrite       = errors.New("controller: write function is nil")
)
