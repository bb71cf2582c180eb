package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidItem = errors.New("invalid item")
)
