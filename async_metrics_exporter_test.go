package quill_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/hal177/quill"
)

func TestBackendMetricsExporterAccumulatesDeltas(t *testing.T) {
	exporter := quill.NewBackendMetricsExporter("quill_test")

	exporter.Observe(context.Background(), quill.BackendMetrics{Dispatched: 10, HandlerErrs: 1, QueueDepth: 5})
	exporter.Observe(context.Background(), quill.BackendMetrics{Dispatched: 25, HandlerErrs: 1, QueueDepth: 3})

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(exporter))

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}

func TestBackendMetricsHandlersFanOutToExporter(t *testing.T) {
	quill.ClearBackendMetricsHandlers()
	t.Cleanup(quill.ClearBackendMetricsHandlers)

	exporter := quill.NewBackendMetricsExporter("quill_fanout_test")
	quill.RegisterBackendMetricsHandler(exporter.Observe)

	quill.EmitBackendMetrics(context.Background(), quill.BackendMetrics{Dispatched: 42})

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(exporter))

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}
