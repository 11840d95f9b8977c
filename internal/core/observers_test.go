package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/aion-audit/internal/observability"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

func TestWorkAuditor_EmitsAuditForLatestTask(t *testing.T) {
	em := &recordingEmitter{}
	w := NewWorkState(quietLogger())
	w.Attach(NewWorkAuditor(em, quietLogger()))

	_ = w.CompleteTaskCycle(models.TaskCompletion{TaskID: "T-1", TimeSpentHours: 1, ValueGenerated: 10, RegistrationLatencyMs: 5})
	_ = w.CompleteTaskCycle(models.TaskCompletion{TaskID: "T-2", TimeSpentHours: 3, ValueGenerated: 30, RegistrationLatencyMs: 7})

	if len(em.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(em.events))
	}
	ev := em.events[1]
	if ev.Type != models.EventAudit || ev.Source != SourceWorkAuditor {
		t.Errorf("unexpected event %s/%s", ev.Type, ev.Source)
	}
	if ev.String("taskId") != "T-2" {
		t.Errorf("taskId = %s", ev.String("taskId"))
	}
	if v, _ := ev.Number("valueGenerated"); v != 30 {
		t.Errorf("valueGenerated = %v", v)
	}
	if v, _ := ev.Number("registrationLatencyMs"); v != 7 {
		t.Errorf("registrationLatencyMs = %v", v)
	}
	if ev.String("systemStatus") != string(models.WorkMaxFocus) {
		t.Errorf("systemStatus = %s", ev.String("systemStatus"))
	}
	if ev.String("workHash") != w.Snapshot().SealHash {
		t.Errorf("workHash does not match the subject seal")
	}
}

func TestWorkAuditor_IgnoresOtherChanges(t *testing.T) {
	em := &recordingEmitter{}
	a := NewWorkAuditor(em, quietLogger())

	if err := a.Update(CapitalChange{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Update(WorkChange{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(em.events) != 0 {
		t.Errorf("expected no events, got %d", len(em.events))
	}
}

func TestCapitalDepositor_HandleAudit(t *testing.T) {
	c := NewCapital(quietLogger())
	d := NewCapitalDepositor(c, quietLogger())

	events := []models.Event{
		{Type: models.EventAudit, Source: SourceWorkAuditor, Payload: map[string]any{"taskId": "T-1", "valueGenerated": 15.0, "workHash": "h1"}},
		{Type: models.EventAudit, Source: SourceWorkAuditor, Payload: map[string]any{"taskId": "T-0", "valueGenerated": 0.0}},
		{Type: models.EventAudit, Source: "someone-else", Payload: map[string]any{"valueGenerated": 99.0}},
		{Type: models.EventMetric, Source: SourceWorkAuditor, Payload: map[string]any{"valueGenerated": 99.0}},
		{Type: models.EventAudit, Source: SourceWorkAuditor, Payload: map[string]any{"taskId": "T-2"}},
	}
	for _, ev := range events {
		if err := d.HandleAudit(ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	s := c.Snapshot()
	if s.TotalCapitalValue != 15 {
		t.Errorf("total = %v, want 15", s.TotalCapitalValue)
	}
	if s.InputsHash != "h1" {
		t.Errorf("inputs hash = %s, want h1", s.InputsHash)
	}
}

func TestPopulationReporter_HealthyDepositEmitsOnlyMetric(t *testing.T) {
	em := &recordingEmitter{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewPopulationReporter(em, WithReporterClock(func() time.Time { return start.Add(250 * time.Millisecond) }))
	r.lastObserved = start

	state := models.CapitalState{
		TotalCapitalValue:   10,
		PopulationState:     10,
		LastUpdateTimestamp: start.Add(100 * time.Millisecond),
		InputsHash:          strings.Repeat("a", SealLength),
		HealthStatus:        models.CapitalOnline,
	}
	if err := r.Update(CapitalChange{State: state}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(em.events) != 1 {
		t.Fatalf("expected only the metric event, got %d", len(em.events))
	}
	ev := em.events[0]
	if ev.Type != models.EventMetric || ev.Source != SourcePopulationReporter {
		t.Errorf("unexpected event %s/%s", ev.Type, ev.Source)
	}
	if v, _ := ev.Number("latency_ms"); v != 150 {
		t.Errorf("latency_ms = %v, want 150", v)
	}
	if v, _ := ev.Number("update_interval_ms"); v != 100 {
		t.Errorf("update_interval_ms = %v, want 100", v)
	}
	if v, _ := ev.Number("populationState"); v != 10 {
		t.Errorf("populationState = %v", v)
	}
}

func TestPopulationReporter_DegradedAndIncoherent(t *testing.T) {
	em := &recordingEmitter{}
	r := NewPopulationReporter(em)

	state := models.CapitalState{InputsHash: "genesis", HealthStatus: models.CapitalDegraded}
	if err := r.Update(CapitalChange{State: state}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(em.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(em.events))
	}
	avail, coh, metric := em.events[0], em.events[1], em.events[2]
	if avail.String("mpc") != "availability" || avail.String("alert") != "DEGRADED_OR_OFFLINE" || avail.String("status") != "DEGRADED" {
		t.Errorf("unexpected availability payload %v", avail.Payload)
	}
	if coh.String("mpc") != "coherence" || coh.String("error_code") != "HASH_LENGTH_MISMATCH" || coh.String("received_hash") != "genesis" {
		t.Errorf("unexpected coherence payload %v", coh.Payload)
	}
	if n, _ := coh.Number("expected_length"); n != SealLength {
		t.Errorf("expected_length = %v", n)
	}
	if metric.Type != models.EventMetric {
		t.Errorf("third event type = %s", metric.Type)
	}
}

func TestPopulationReporter_CustomSealLength(t *testing.T) {
	em := &recordingEmitter{}
	r := NewPopulationReporter(em, WithSealLength(7))
	_ = r.Update(CapitalChange{State: models.CapitalState{InputsHash: "genesis", HealthStatus: models.CapitalOnline}})
	if len(em.ofType(models.EventAudit)) != 0 {
		t.Error("a 7-character hash is coherent with seal length 7")
	}
}

func TestPopulationReporter_IgnoresWorkChanges(t *testing.T) {
	em := &recordingEmitter{}
	if err := NewPopulationReporter(em).Update(WorkChange{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(em.events) != 0 {
		t.Errorf("expected no events, got %d", len(em.events))
	}
}

func TestPopulationReporter_PropagatesEmitFailure(t *testing.T) {
	em := &recordingEmitter{failFor: map[string]bool{SourcePopulationReporter: true}}
	err := NewPopulationReporter(em).Update(CapitalChange{State: models.CapitalState{HealthStatus: models.CapitalOnline}})
	if err == nil || !strings.Contains(err.Error(), "emit refused") {
		t.Errorf("expected emit failure, got %v", err)
	}
}

func TestPopulationReporter_DownstreamFailureKeepsEmitting(t *testing.T) {
	bus := observability.NewBus(quietLogger())
	ledger := observability.NewAuditLedger(bus, quietLogger())
	boom := errors.New("audit subscriber down")
	ledger.SubscribeToAudits(func(models.Event) error { return boom })

	capital := NewCapital(quietLogger())
	capital.Attach(NewPopulationReporter(bus))

	err := capital.ReportHealth(models.CapitalDegraded)
	if !errors.Is(err, boom) {
		t.Errorf("expected the subscriber failure to surface, got %v", err)
	}

	audits, metrics := 0, 0
	for _, ev := range ledger.Read(observability.EventFilter{Source: SourcePopulationReporter}) {
		switch ev.Type {
		case models.EventAudit:
			audits++
		case models.EventMetric:
			metrics++
		}
	}
	if audits != 2 || metrics != 1 {
		t.Errorf("population audits=%d metrics=%d, want 2 and 1", audits, metrics)
	}
}
