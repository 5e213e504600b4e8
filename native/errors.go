package native

import "fmt"

// Class is the failure category of an *Error.
type Class int

const (
	// ClassRuntime: the engine could not be loaded, activated or shut down.
	ClassRuntime Class = iota + 1
	// ClassInvalidArgument: a value handed to the engine is malformed.
	ClassInvalidArgument
)

func (c Class) String() string {
	switch c {
	case ClassRuntime:
		return "runtime"
	case ClassInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// Stage is the registry step an *Error came from.
type Stage int

const (
	StageUnknown Stage = iota
	StageLoad
	StageActivate
)

func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "load"
	case StageActivate:
		return "activate"
	default:
		return "unknown"
	}
}

// Error is a native failure. Message is the diagnostic text callers see.
type Error struct {
	Err     error
	Message string
	Class   Class
	Stage   Stage
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// atStage tags a stage-less *Error with stage. Other errors are returned
// untouched.
func atStage(err error, stage Stage) error {
	nerr, ok := err.(*Error)
	if !ok || nerr.Stage != StageUnknown {
		return err
	}
	tagged := *nerr
	tagged.Stage = stage
	return &tagged
}

func runtimeErrorf(cause error, format string, args ...any) *Error {
	return &Error{
		Class:   ClassRuntime,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

func invalidArgumentf(cause error, format string, args ...any) *Error {
	return &Error{
		Class:   ClassInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// Well-known HRESULTs returned by web core entry points.
const (
	hrInvalidArg     = int32(-2147024809) // 0x80070057 E_INVALIDARG
	hrFileNotFound   = int32(-2147024894) // 0x80070002
	hrAccessDenied   = int32(-2147024891) // 0x80070005
	hrAlreadyRunning = int32(-2147023840) // 0x80070420 ERROR_SERVICE_ALREADY_RUNNING
	hrNotActive      = int32(-2147023834) // 0x80070426 ERROR_SERVICE_NOT_ACTIVE
)

// checkHRESULT turns a failed HRESULT from entry point fn into an *Error.
func checkHRESULT(fn string, hr int32) error {
	if hr >= 0 {
		return nil
	}

	var reason string
	switch hr {
	case hrInvalidArg:
		return invalidArgumentf(nil, "%s rejected its arguments (HRESULT 0x%08X)", fn, uint32(hr))
	case hrFileNotFound:
		reason = "a configuration file was not found"
	case hrAccessDenied:
		reason = "access denied"
	case hrAlreadyRunning:
		reason = "a web core is already running in this process"
	case hrNotActive:
		reason = "the web core is not active"
	default:
		reason = "unexpected failure"
	}
	return runtimeErrorf(nil, "%s failed: %s (HRESULT 0x%08X)", fn, reason, uint32(hr))
}
