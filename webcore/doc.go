// Package webcore manages the lifecycle of the single hosted web core engine
// a process may run.
//
// A WebCore is a handle on that engine. The first successful New loads and
// activates the engine; every later New attaches to the same engine and
// ignores its setup. The engine is shut down when the last handle is
// stopped, either explicitly through Stop/Close or because the handle was
// garbage collected without being stopped.
//
//	wc, err := webcore.New(hostedwebcore.NewDefaultSetup(hostConfig, rootConfig, "site1"))
//	if err != nil {
//		return err
//	}
//	defer wc.Close()
//
// Create, CurrentSetup and teardown are serialized by one critical section
// per Host. Package-level functions use the process-wide default Host.
//
// # Errors
//
// Failures are *errors.Error values from the errors package:
//
//	KindNullSetup        New was called with a nil setup
//	KindInvalidArgument  the engine rejected a setup value
//	KindInvalidOperation the engine could not be loaded, activated or stopped
//	KindNotCreated       CurrentSetup was called while no engine exists
//
// The engine's own diagnostic text is kept as the error's Detail and the
// native error as its Cause.
package webcore
