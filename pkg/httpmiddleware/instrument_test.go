package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s has type %T", name, m.Data)
			return sum
		}
	}
	require.Failf(t, "metric not found", "%s", name)
	return metricdata.Sum[int64]{}
}

func TestInstrument(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	var labels []attribute.KeyValue
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		labeler, ok := otelhttp.LabelerFromContext(r.Context())
		require.True(t, ok)
		labels = labeler.Get()
		w.WriteHeader(http.StatusNotFound)
	})
	find := MakeRouteFinder(mux)

	instrument, err := Instrument("test", find, tp, mp)
	require.NoError(t, err)
	h := Wrap(mux, instrument, Labeler(find))

	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/9", nil))
	}

	assert.Contains(t, labels, attribute.String("http.route", "GET /products/{id}"))

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "GET /products/{id}", ended[0].Name())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sum := findSum(t, rm, "http.server.requests")
	require.Len(t, sum.DataPoints, 1)
	dp := sum.DataPoints[0]
	assert.EqualValues(t, 2, dp.Value)

	route, ok := dp.Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "GET /products/{id}", route.AsString())
	status, ok := dp.Attributes.Value("http.response.status_code")
	require.True(t, ok)
	assert.EqualValues(t, http.StatusNotFound, status.AsInt64())
}

func TestInstrument_Noop(t *testing.T) {
	instrument, err := Instrument("test", func(*http.Request) string { return "" },
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	Wrap(okHandler(), instrument, Labeler(func(*http.Request) string { return "" })).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
