package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("item not found")
	ErrInconsistent = errors.New("store indexes inconsistent")
)
