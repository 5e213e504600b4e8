// Package errors provides structured error types for the hostedwebcore library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Callers branch on Kind; the original diagnostic text of a native
// failure is kept in Detail and the native error itself in Cause.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCreate, errors.KindInvalidOperation).
//		Detailf("load web core library: %s", msg).
//		Cause(nativeErr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NullSetup(errors.PhaseCreate, "setup")
//	err := errors.NotCreated(errors.PhaseRead)
//
// All errors implement the standard error interface and support errors.Is/As.
// Kind-only sentinels match regardless of phase:
//
//	if errors.Is(err, errors.ErrInvalidOperation) { ... }
package errors
