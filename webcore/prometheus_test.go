package webcore

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/hostedwebcore/errors"
	"github.com/wippyai/hostedwebcore/native"
)

func TestPrometheusMetricsCollector_DefaultNamespace(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("")
	pmc.EngineAttached("site1")

	count, err := testutil.GatherAndCount(pmc.Registry(), "webcore_engine_attachments_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusMetricsCollector_CreateFailures(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.CreateFailed(errors.KindInvalidOperation)
	pmc.CreateFailed(errors.KindInvalidOperation)
	pmc.CreateFailed(errors.KindInvalidArgument)
	pmc.CreateFailed("")

	expected := `
		# HELP test_create_failures_total Total number of failed web core creations
		# TYPE test_create_failures_total counter
		test_create_failures_total{kind="invalid_argument"} 1
		test_create_failures_total{kind="invalid_operation"} 2
		test_create_failures_total{kind="other"} 1
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected), "test_create_failures_total")
	assert.NoError(t, err)
}

func TestPrometheusMetricsCollector_Teardowns(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.EngineTornDown("site1", false, 20*time.Millisecond, nil)
	pmc.EngineTornDown("site1", true, 5*time.Millisecond, stderrors.New("shutdown failed"))

	expected := `
		# HELP test_engine_teardowns_total Total number of web core engine shutdowns
		# TYPE test_engine_teardowns_total counter
		test_engine_teardowns_total{immediate="false",instance="site1",status="success"} 1
		test_engine_teardowns_total{immediate="true",instance="site1",status="error"} 1
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected), "test_engine_teardowns_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(pmc.Registry(), "test_engine_teardown_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrometheusMetricsCollector_HostLifecycle(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")
	h := NewHost(WithLoader(&fakeLoader{}), WithMetricsCollector(pmc))

	first, err := h.New(testSetup("site1"))
	require.NoError(t, err)
	second, err := h.New(testSetup("site2"))
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(pmc.created.WithLabelValues("site1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pmc.attached.WithLabelValues("site1")))
	assert.Equal(t, float64(2), testutil.ToFloat64(pmc.references))

	require.NoError(t, first.Stop(false))
	assert.Equal(t, float64(1), testutil.ToFloat64(pmc.references))

	require.NoError(t, second.Stop(true))
	assert.Equal(t, float64(0), testutil.ToFloat64(pmc.references))
	assert.Equal(t, float64(2), testutil.ToFloat64(pmc.released.WithLabelValues("site1", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pmc.teardowns.WithLabelValues("site1", "true", "success")))

	_, err = h.New(testSetup("bad name"))
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(pmc.createFailures.WithLabelValues("invalid_argument")))

	h2 := NewHost(
		WithLoader(&fakeLoader{loadErr: &native.Error{Class: native.ClassRuntime, Message: "not found"}}),
		WithMetricsCollector(pmc),
	)
	_, err = h2.New(testSetup("site3"))
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(pmc.createFailures.WithLabelValues("invalid_operation")))
}

func TestNoopMetricsCollector(t *testing.T) {
	m := NewNoopMetricsCollector()
	assert.NotPanics(t, func() {
		m.EngineCreated("site", time.Second)
		m.EngineAttached("site")
		m.CreateFailed(errors.KindNullSetup)
		m.ReferenceReleased("site", true)
		m.EngineTornDown("site", false, time.Second, nil)
		m.ReferencesActive(0)
	})
}
