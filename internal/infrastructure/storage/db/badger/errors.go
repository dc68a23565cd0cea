package dbbadger

import "errors"

var (
	// ErrReadOnlyTx is returned when a write is attempted with a context
	// carrying a read-only transaction.
	ErrReadOnlyTx = errors.New("cannot write with a read-only transaction")
)
