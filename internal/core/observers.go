package core

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// Event sources of the derived observers.
const (
	SourceWorkAuditor        = "WorkAuditor"
	SourceCapitalDepositor   = "CapitalDepositor"
	SourcePopulationReporter = "PopulationReporter"
	SourceVisionReporter     = "VisionReporter"
)

// WorkAuditor turns every completed work cycle into an audit event.
type WorkAuditor struct {
	emitter Emitter
	logger  *slog.Logger
}

// NewWorkAuditor creates a WorkAuditor emitting on emitter.
func NewWorkAuditor(emitter Emitter, logger *slog.Logger) *WorkAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkAuditor{emitter: emitter, logger: logger}
}

// Update emits one audit event for the latest task of a WorkChange. Other
// changes, and work snapshots without tasks, are ignored.
func (a *WorkAuditor) Update(change Change) error {
	wc, ok := change.(WorkChange)
	if !ok {
		return nil
	}
	task, ok := wc.State.LastTask()
	if !ok {
		return nil
	}
	_, err := a.emitter.Emit(SourceWorkAuditor, models.EventAudit, map[string]any{
		"message":               "professional performance audited",
		"taskId":                task.TaskID,
		"timeSpentHours":        task.TimeSpentHours,
		"valueGenerated":        task.ValueGenerated,
		"registrationLatencyMs": task.RegistrationLatencyMs,
		"systemStatus":          string(wc.State.HealthStatus),
		"workHash":              wc.State.SealHash,
	})
	if err != nil {
		return err
	}
	a.logger.Debug("work cycle audited", "task_id", task.TaskID)
	return nil
}

// CapitalDepositor listens to audit events and deposits the value of every
// audited work cycle into the capital subject.
type CapitalDepositor struct {
	capital *Capital
	logger  *slog.Logger
}

// NewCapitalDepositor creates a depositor. Register HandleAudit with the
// audit ledger to activate it.
func NewCapitalDepositor(capital *Capital, logger *slog.Logger) *CapitalDepositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapitalDepositor{capital: capital, logger: logger}
}

// HandleAudit deposits valueGenerated for audit events from the work
// auditor when the value is positive. Everything else is ignored.
func (d *CapitalDepositor) HandleAudit(ev models.Event) error {
	if ev.Type != models.EventAudit || ev.Source != SourceWorkAuditor {
		return nil
	}
	value, _ := ev.Number("valueGenerated")
	if value <= 0 {
		return nil
	}
	taskID := ev.String("taskId")
	if err := d.capital.ProcessValueDeposit(value, taskID, ev.String("workHash")); err != nil {
		return err
	}
	d.logger.Info("deposit confirmed", "task_id", taskID, "value", value)
	return nil
}

// PopulationReporter audits every capital change: availability, seal
// coherence and update latency.
type PopulationReporter struct {
	emitter        Emitter
	expectedLength int
	now            func() time.Time

	mu           sync.Mutex
	lastObserved time.Time
}

// ReporterOption configures a PopulationReporter.
type ReporterOption func(*PopulationReporter)

// WithSealLength overrides the inputs hash length considered coherent.
func WithSealLength(n int) ReporterOption {
	return func(r *PopulationReporter) {
		if n > 0 {
			r.expectedLength = n
		}
	}
}

// WithReporterClock overrides the time source.
func WithReporterClock(now func() time.Time) ReporterOption {
	return func(r *PopulationReporter) { r.now = now }
}

// NewPopulationReporter creates a reporter emitting on emitter.
func NewPopulationReporter(emitter Emitter, opts ...ReporterOption) *PopulationReporter {
	r := &PopulationReporter{
		emitter:        emitter,
		expectedLength: SealLength,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastObserved = r.now().UTC()
	return r
}

// Update handles CapitalChange notifications and ignores the rest. It
// emits an availability audit when the capital is not ONLINE, a coherence
// audit when the inputs hash has the wrong length, and always one metric.
// A failed emission never skips the later ones; failures are joined.
func (r *PopulationReporter) Update(change Change) error {
	cc, ok := change.(CapitalChange)
	if !ok {
		return nil
	}
	state := cc.State

	r.mu.Lock()
	latency := r.now().Sub(state.LastUpdateTimestamp)
	interval := state.LastUpdateTimestamp.Sub(r.lastObserved)
	r.lastObserved = state.LastUpdateTimestamp
	r.mu.Unlock()

	var errs []error
	if state.HealthStatus != models.CapitalOnline {
		if _, err := r.emitter.Emit(SourcePopulationReporter, models.EventAudit, map[string]any{
			"mpc":    "availability",
			"alert":  "DEGRADED_OR_OFFLINE",
			"status": string(state.HealthStatus),
		}); err != nil {
			errs = append(errs, err)
		}
	}

	if len(state.InputsHash) != r.expectedLength {
		if _, err := r.emitter.Emit(SourcePopulationReporter, models.EventAudit, map[string]any{
			"mpc":             "coherence",
			"error_code":      "HASH_LENGTH_MISMATCH",
			"received_hash":   state.InputsHash,
			"expected_length": r.expectedLength,
		}); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := r.emitter.Emit(SourcePopulationReporter, models.EventMetric, map[string]any{
		"populationState":    state.PopulationState,
		"latency_ms":         latency.Milliseconds(),
		"update_interval_ms": interval.Milliseconds(),
		"inputs_hash":        state.InputsHash,
		"health_status":      string(state.HealthStatus),
	}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
