package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the lifecycle the error occurred
type Phase string

const (
	PhaseCreate   Phase = "create"   // create or attach to the engine
	PhaseRead     Phase = "read"     // read the current setup
	PhaseStop     Phase = "stop"     // release a reference / tear down
	PhaseLoad     Phase = "load"     // engine library loading
	PhaseActivate Phase = "activate" // engine activation
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	// KindInvalidArgument: a supplied setup value is structurally invalid.
	KindInvalidArgument Kind = "invalid_argument"
	// KindInvalidOperation: the engine could not be started, attached or
	// stopped for operational reasons.
	KindInvalidOperation Kind = "invalid_operation"
	// KindNullSetup: no setup was supplied at all.
	KindNullSetup Kind = "null_setup"
	// KindNotCreated: no engine exists to read from.
	KindNotCreated Kind = "not_created"
	// KindInvalidConfig: a configuration file or environment value is unusable.
	KindInvalidConfig Kind = "invalid_config"
)

// Kind-only sentinels for errors.Is.
var (
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrNullSetup        = &Error{Kind: KindNullSetup}
	ErrNotCreated       = &Error{Kind: KindNotCreated}
	ErrInvalidConfig    = &Error{Kind: KindInvalidConfig}
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Param  string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Param != "" {
		b.WriteString(" (")
		b.WriteString(e.Param)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	// Native failures carry their diagnostic as Detail already.
	if e.Cause != nil && e.Cause.Error() != e.Detail {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Param sets the offending parameter name
func (b *Builder) Param(name string) *Builder {
	b.err.Param = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message verbatim
func (b *Builder) Detail(msg string) *Builder {
	b.err.Detail = msg
	return b
}

// Detailf sets a formatted detail message
func (b *Builder) Detailf(format string, args ...any) *Builder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NullSetup reports a missing setup parameter.
func NullSetup(phase Phase, param string) *Error {
	return New(phase, KindNullSetup).
		Param(param).
		Detail("value cannot be nil").
		Build()
}

// NotCreated reports that no engine exists.
func NotCreated(phase Phase) *Error {
	return New(phase, KindNotCreated).
		Detail("no web core has been created").
		Build()
}

// InvalidConfig reports an unusable configuration value.
func InvalidConfig(param, detail string) *Error {
	return New(PhaseConfig, KindInvalidConfig).
		Param(param).
		Detail(detail).
		Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).
		Cause(cause).
		Detail(detail).
		Build()
}
