package webhook

import "errors"

// Service errors
var (
	// ErrInvalidSignature is the only error that reaches the sender as a
	// rejection; everything downstream of a valid signature is accepted.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
