package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

func TestTelemetry_CountsBusActivity(t *testing.T) {
	tel := NewTelemetry()
	bus := NewBus(quietLogger(), WithTelemetry(tel))
	NewAuditLedger(bus, quietLogger())
	bus.Subscribe(func(ev models.Event) error {
		if ev.Type == models.EventCommand {
			return errors.New("refused")
		}
		return nil
	})

	_, _ = bus.Emit("WorkAuditor", models.EventAudit, map[string]any{})
	_, _ = bus.Emit("WorkAuditor", models.EventAudit, map[string]any{})
	_, _ = bus.Emit("cli", models.EventCommand, map[string]any{})
	_, _ = bus.Emit("", models.EventAudit, map[string]any{})

	if got := testutil.ToFloat64(tel.eventsEmitted.WithLabelValues("audit", "WorkAuditor")); got != 2 {
		t.Errorf("audit emissions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(tel.emissionsDropped); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tel.deliveryFailures.WithLabelValues("bus")); got != 1 {
		t.Errorf("bus failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tel.trailLength); got != 3 {
		t.Errorf("trail length = %v, want 3", got)
	}
}

func TestTelemetry_Gauges(t *testing.T) {
	tel := NewTelemetry()
	tel.ObserveCapital(60)
	tel.ObserveRisk(0.42)
	tel.ObserveTaskProcessed()
	tel.ObserveTaskProcessed()

	expected := `
# HELP aion_capital_total_value Current total capital value.
# TYPE aion_capital_total_value gauge
aion_capital_total_value 60
`
	if err := testutil.GatherAndCompare(tel.Registry(), strings.NewReader(expected), "aion_capital_total_value"); err != nil {
		t.Errorf("unexpected capital gauge: %v", err)
	}
	if got := testutil.ToFloat64(tel.riskFactor); got != 0.42 {
		t.Errorf("risk gauge = %v, want 0.42", got)
	}
	if got := testutil.ToFloat64(tel.tasksProcessed); got != 2 {
		t.Errorf("tasks processed = %v, want 2", got)
	}
}

func TestTelemetry_NilIsNoop(t *testing.T) {
	var tel *Telemetry
	tel.ObserveCapital(1)
	tel.ObserveRisk(1)
	tel.ObserveTaskProcessed()
	if err := tel.Push(context.Background(), "http://unused", "job"); err != nil {
		t.Errorf("nil telemetry push returned %v", err)
	}
	if tel.Registry() != nil {
		t.Error("nil telemetry must expose a nil registry")
	}
}

func TestTelemetry_Push(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tel := NewTelemetry()
	tel.ObserveCapital(10)
	if err := tel.Push(context.Background(), srv.URL, "aion_test"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("method = %s, want PUT", method)
	}
	if path != "/metrics/job/aion_test" {
		t.Errorf("path = %s", path)
	}
}

func TestTelemetry_PushRequiresURL(t *testing.T) {
	if err := NewTelemetry().Push(context.Background(), "", "job"); err == nil {
		t.Fatal("expected error for empty gateway url")
	}
}
