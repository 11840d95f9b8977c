package core

import "errors"

// Invariant guard failures. They are logged by the subject that rejects the
// operation and returned to the caller; they never become events.
var (
	ErrInvalidTask           = errors.New("invalid task completion")
	ErrInvalidDeposit        = errors.New("invalid value deposit")
	ErrNonPositiveExpense    = errors.New("expense amount must be positive")
	ErrInsufficientCapital   = errors.New("insufficient capital")
	ErrInvalidHealth         = errors.New("invalid health status")
	ErrInvalidEntropicInputs = errors.New("invalid entropic inputs")
)
