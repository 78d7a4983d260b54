package repositories

import "errors"

// Repository errors. These are sentinels so batch callers can use errors.Is
// to tell "skip this item" apart from "abort the run".
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict means the stored state no longer matched the expected
	// state at write time. The caller lost the race; the winner already
	// moved the transaction forward.
	ErrConflict = errors.New("state conflict")
)
