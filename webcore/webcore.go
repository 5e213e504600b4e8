package webcore

import (
	"runtime"

	"github.com/wippyai/hostedwebcore/internal/critsec"
	"github.com/wippyai/hostedwebcore/native"
)

// WebCore is a handle holding one reference to the engine. It must be
// stopped once; an unreachable handle that was never stopped is released
// by the runtime with a graceful shutdown.
type WebCore struct {
	_       noCopy
	host    *Host
	ref     *native.Ref
	cleanup runtime.Cleanup
}

type abandoned struct {
	host *Host
	ref  *native.Ref
}

func newWebCore(h *Host, ref *native.Ref) *WebCore {
	wc := &WebCore{host: h, ref: ref}
	wc.cleanup = runtime.AddCleanup(wc, func(a abandoned) {
		a.host.abandon(a.ref)
	}, abandoned{host: h, ref: ref})
	return wc
}

// Stop releases the handle's reference. When it is the last one the engine
// is shut down, immediately or gracefully. Stopping twice is a no-op.
func (wc *WebCore) Stop(immediate bool) error {
	if wc == nil {
		return nil
	}
	h := wc.host
	defer critsec.Acquire(h.cs).Release()

	ref := wc.ref
	if ref == nil {
		return nil
	}
	wc.ref = nil
	wc.cleanup.Stop()
	return h.releaseLocked(ref, immediate, false)
}

// Close is Stop(false).
func (wc *WebCore) Close() error {
	return wc.Stop(false)
}

// Active reports whether the handle still holds its reference.
func (wc *WebCore) Active() bool {
	if wc == nil {
		return false
	}
	defer critsec.Acquire(wc.host.cs).Release()
	return wc.ref.Held()
}

// Host returns the host the handle was created on.
func (wc *WebCore) Host() *Host {
	return wc.host
}

// noCopy may be embedded into structs which must not be copied
// after the first use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
