package otel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"farmgate/backend/internal/telemetry/domain"
)

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	embedded.Logger
	rec otellog.Record
	n   int
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
	r.n++
}

func (r *recordCapture) Enabled(context.Context, otellog.EnabledParameters) bool { return true }

func attributes(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestNewEventEmitter_NilProviderIsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if err := em.Emit(context.Background(), &domain.Event{EventType: "x"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestNewEventEmitter_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
	if err := em.Emit(context.Background(), &domain.Event{EventType: domain.EventProfileResolved}); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	event := &domain.Event{
		ID:        "e1",
		OrgID:     "org1",
		UserID:    "user1",
		EventType: domain.EventRouteRedirected,
		Source:    domain.SourceBFF,
		Verdict:   "GRANTED",
		Mode:      "OFFICER",
		Path:      "/officers",
		Metadata:  json.RawMessage(`{"redirect_to":"/home"}`),
		CreatedAt: at,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec
	if got := string(rec.Body().AsBytes()); got != `{"redirect_to":"/home"}` {
		t.Errorf("body = %q", got)
	}
	if !rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), at)
	}
	if rec.EventName() != domain.EventRouteRedirected {
		t.Errorf("event name = %q", rec.EventName())
	}
	want := map[string]string{
		"event_id": "e1", "org_id": "org1", "user_id": "user1", "event_type": "route_redirected",
		"source": "farmgate", "verdict": "GRANTED", "mode": "OFFICER", "path": "/officers",
	}
	attrs := attributes(rec)
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestEmit_SparseEvent(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), &domain.Event{EventType: domain.EventSignedOut}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec
	if !rec.Body().Empty() {
		t.Error("body should be empty without metadata")
	}
	if rec.Timestamp().Before(before) {
		t.Errorf("timestamp = %v, want now", rec.Timestamp())
	}
	attrs := attributes(rec)
	if len(attrs) != 1 || attrs["event_type"] != "signed_out" {
		t.Errorf("attributes = %v", attrs)
	}
}
