package webcore

import (
	"time"

	"github.com/wippyai/hostedwebcore/errors"
)

// MetricsCollector receives web core lifecycle events. Implementations must
// be safe for concurrent use.
type MetricsCollector interface {
	// EngineCreated records a new engine being loaded and activated.
	EngineCreated(instance string, duration time.Duration)

	// EngineAttached records a New that reused the existing engine.
	EngineAttached(instance string)

	// CreateFailed records a failed New by error kind.
	CreateFailed(kind errors.Kind)

	// ReferenceReleased records one handle letting go of the engine.
	ReferenceReleased(instance string, abandoned bool)

	// EngineTornDown records the engine shutdown after its last release.
	EngineTornDown(instance string, immediate bool, duration time.Duration, err error)

	// ReferencesActive records the number of live handles.
	ReferencesActive(n int)
}

// noopMetricsCollector is a no-op implementation of MetricsCollector
type noopMetricsCollector struct{}

func (*noopMetricsCollector) EngineCreated(instance string, duration time.Duration) {}
func (*noopMetricsCollector) EngineAttached(instance string)                        {}
func (*noopMetricsCollector) CreateFailed(kind errors.Kind)                         {}
func (*noopMetricsCollector) ReferenceReleased(instance string, abandoned bool)     {}
func (*noopMetricsCollector) ReferencesActive(n int)                                {}
func (*noopMetricsCollector) EngineTornDown(instance string, immediate bool, duration time.Duration, err error) {
}

// NewNoopMetricsCollector creates a no-op metrics collector
func NewNoopMetricsCollector() MetricsCollector {
	return &noopMetricsCollector{}
}
