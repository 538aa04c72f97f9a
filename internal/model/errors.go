package model

import "errors"

var (
	// ErrNotFound is returned by stores when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTxConflict is returned when a write lost a race with a concurrent one and can be retried.
	ErrTxConflict = errors.New("transaction conflict")
)
