package library

import "errors"

// Sentinel errors returned by the registries and the ledger. Callers match
// with errors.Is; the console maps them to user-facing messages.
var (
	// ErrValidation marks rejected input (empty required field). No state
	// change happened.
	ErrValidation = errors.New("invalid input")

	ErrBookNotFound = errors.New("book not found")
	ErrUserNotFound = errors.New("user not found")
	ErrLoanNotFound = errors.New("loan not found")

	// ErrBookUnavailable means the book already has an active loan.
	ErrBookUnavailable = errors.New("book is not available")

	// ErrLoanAlreadyReturned means the loan's return date is already set.
	ErrLoanAlreadyReturned = errors.New("loan already returned")

	// ErrAuthFailed is deliberately undifferentiated: unknown name and wrong
	// password both return it, so callers cannot probe which names exist.
	ErrAuthFailed = errors.New("invalid credentials")

	// ErrStore wraps storage failures. The raw driver error goes to the log
	// only; messages built on ErrStore never carry driver internals.
	ErrStore = errors.New("storage failure")
)
