package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracing("twitch-recorder", "test")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	shutdown()
	if IsTracingEnabled() {
		t.Error("tracing enabled without endpoint")
	}
}

func TestStartSpanAddsCorrelation(t *testing.T) {
	sr := withRecorder(t)
	ctx := WithCorrelation(context.Background(), "sess-1")

	_, span := StartSpan(ctx, "test", "capture", ChannelAttr("foo"))
	RecordError(span, errors.New("exit status 1"))
	span.End()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	got := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	if got["correlation_id"] != "sess-1" || got["twitch.channel"] != "foo" {
		t.Errorf("attributes = %v", got)
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status().Code)
	}
}

func TestSetSpanSuccess(t *testing.T) {
	sr := withRecorder(t)
	_, span := StartSpan(context.Background(), "test", "fetch_access_token")
	RecordError(span, nil)
	SetSpanSuccess(span)
	SetSpanHTTPStatus(span, http.StatusOK)
	span.End()

	s := sr.Ended()[0]
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}
}

func TestNewHTTPClient(t *testing.T) {
	sr := withRecorder(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(2 * time.Second)
	if c.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", c.Timeout)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if len(sr.Ended()) == 0 {
		t.Error("transport produced no client span")
	}
}
