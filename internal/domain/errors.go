package domain

import "errors"

// Caller-visible business outcomes. The orchestration layer wraps these with
// %w so handlers can map them to stable response codes via errors.Is.
var (
	ErrInvalidTransition      = errors.New("invalid visit state transition")
	ErrOutOfWindow            = errors.New("check-in outside scheduled day")
	ErrInvalidQR              = errors.New("invalid qr payload")
	ErrZoneMismatch           = errors.New("gate not in actor zone")
	ErrNotFound               = errors.New("not found")
	ErrLockedOut              = errors.New("account locked out")
	ErrConcurrentModification = errors.New("visit modified concurrently")
	ErrDuplicateCode          = errors.New("visit code already exists")
)
