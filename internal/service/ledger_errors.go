package service

import "errors"

// Ledger failure taxonomy. Handlers and caller services match these with
// errors.Is; anything wrapping ErrPersistence is fatal but guaranteed to
// have left no partial state (the transaction rolled back).
var (
	// ErrStoreNotFound: the store row itself is missing, as distinct from a
	// balance that simply has not been initialized yet.
	ErrStoreNotFound = errors.New("store not found")

	// ErrInsufficientBalance: the funds check rejected a debit. Recoverable;
	// the caller may retry with a smaller amount or disable the check.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrentConflict: storage-level conflicts persisted through all
	// retry attempts. Transient; safe to retry with the same reference.
	ErrConcurrentConflict = errors.New("concurrent balance update conflict")

	// ErrPersistence wraps unexpected storage failures.
	ErrPersistence = errors.New("ledger persistence error")
)
