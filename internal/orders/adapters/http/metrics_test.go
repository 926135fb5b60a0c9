package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newRecordedMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestInitializeMetrics(t *testing.T) {
	t.Run("initializes all metric instruments successfully", func(t *testing.T) {
		metrics, _ := newRecordedMetrics(t)

		if metrics.requestDuration == nil {
			t.Error("requestDuration is nil")
		}
		if metrics.requestsTotal == nil {
			t.Error("requestsTotal is nil")
		}
	})
}

func TestRecordRequest(t *testing.T) {
	t.Run("records count and duration per method and route", func(t *testing.T) {
		metrics, reader := newRecordedMetrics(t)
		ctx := context.Background()

		metrics.RecordRequest(ctx, "GET", "/v1/orders", 200, 0.5)
		metrics.RecordRequest(ctx, "POST", "/v1/orders", 201, 0.7)

		m, found := collectMetric(t, reader, "http_requests_total")
		if !found {
			t.Fatal("http_requests_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}

		m, found = collectMetric(t, reader, "http_request_duration_seconds")
		if !found {
			t.Fatal("http_request_duration_seconds metric not found")
		}
		histogram, ok := m.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(histogram.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
		}
	})
}

func TestMetricsMiddleware(t *testing.T) {
	t.Run("labels requests with the route pattern and status", func(t *testing.T) {
		metrics, reader := newRecordedMetrics(t)

		router := chi.NewRouter()
		router.Use(MetricsMiddleware(metrics))
		router.Get("/v1/orders/{orderID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders/ord_1", nil))

		m, found := collectMetric(t, reader, "http_requests_total")
		if !found {
			t.Fatal("http_requests_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 1 {
			t.Fatalf("Expected 1 data point, got %d", len(sum.DataPoints))
		}

		attrs := sum.DataPoints[0].Attributes
		if route, _ := attrs.Value(attribute.Key("route")); route.AsString() != "/v1/orders/{orderID}" {
			t.Errorf("expected route pattern label, got %s", route.AsString())
		}
		if status, _ := attrs.Value(attribute.Key("status_code")); status.AsInt64() != 404 {
			t.Errorf("expected status_code 404, got %d", status.AsInt64())
		}
	})
}
