package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// VisionPolicy holds the opportunity-cost mitigation rule: once capital
// falls below CapitalBaseline while the CO factor is above
// LowRiskThreshold, the factor drops to MitigatedCOFactor.
type VisionPolicy struct {
	LowRiskThreshold  float64
	CapitalBaseline   float64
	MitigatedCOFactor float64
}

// DefaultVisionPolicy returns the stock mitigation rule.
func DefaultVisionPolicy() VisionPolicy {
	return VisionPolicy{
		LowRiskThreshold:  0.1,
		CapitalBaseline:   750,
		MitigatedCOFactor: 0.2,
	}
}

// VisionReporter assembles a multi-metric report on every capital change
// and appends the result to the historical ledger.
type VisionReporter struct {
	officer *RiskOfficer
	history *HistoricalLedger
	metrics MetricsSource
	policy  VisionPolicy
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	coFactor float64
	inputs   models.EntropicInputs
	reports  []models.VisionReport
}

// VisionOption configures a VisionReporter.
type VisionOption func(*VisionReporter)

// WithVisionPolicy overrides DefaultVisionPolicy.
func WithVisionPolicy(p VisionPolicy) VisionOption {
	return func(v *VisionReporter) { v.policy = p }
}

// WithVisionLogger sets the logger.
func WithVisionLogger(logger *slog.Logger) VisionOption {
	return func(v *VisionReporter) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithVisionClock overrides the time source for report and record
// timestamps.
func WithVisionClock(now func() time.Time) VisionOption {
	return func(v *VisionReporter) { v.now = now }
}

// NewVisionReporter creates a reporter and attaches it to capital.
func NewVisionReporter(capital *Capital, officer *RiskOfficer, initialCOFactor float64, history *HistoricalLedger, metrics MetricsSource, opts ...VisionOption) *VisionReporter {
	v := &VisionReporter{
		officer:  officer,
		history:  history,
		metrics:  metrics,
		policy:   DefaultVisionPolicy(),
		logger:   slog.Default(),
		now:      time.Now,
		coFactor: initialCOFactor,
	}
	for _, opt := range opts {
		opt(v)
	}
	capital.Attach(v)
	return v
}

// SetEntropicInputs replaces the planning figures used by later reports.
func (v *VisionReporter) SetEntropicInputs(in models.EntropicInputs) error {
	if err := in.Validate(); err != nil {
		v.logger.Warn("rejected entropic inputs", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidEntropicInputs, err)
	}
	v.mu.Lock()
	v.inputs = in
	v.mu.Unlock()
	return nil
}

// COFactor returns the current opportunity-cost factor.
func (v *VisionReporter) COFactor() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.coFactor
}

// Update reacts to CapitalChange notifications and ignores the rest.
func (v *VisionReporter) Update(change Change) error {
	cc, ok := change.(CapitalChange)
	if !ok {
		return nil
	}
	state := cc.State

	v.mu.Lock()
	if v.coFactor > v.policy.LowRiskThreshold && state.TotalCapitalValue < v.policy.CapitalBaseline {
		v.coFactor = v.policy.MitigatedCOFactor
		v.logger.Info("opportunity cost mitigated", "co_factor", v.coFactor)
	}
	coFactor, inputs := v.coFactor, v.inputs
	v.mu.Unlock()

	risk, err := v.officer.CompileRiskMetrics(coFactor, inputs)
	if err != nil {
		return err
	}
	var metrics models.CycleMetrics
	if v.metrics != nil {
		metrics = v.metrics.Calculate()
	}

	at := models.FormatTimestamp(v.now())
	report := models.VisionReport{
		GeneratedAt: at,
		Capital:     state,
		COFactor:    coFactor,
		Metrics:     metrics,
		Risk:        risk,
		Inputs:      inputs,
	}
	v.mu.Lock()
	v.reports = append(v.reports, report)
	v.mu.Unlock()

	v.history.Register(models.HistoricalRecord{
		Timestamp:             at,
		TotalCapital:          state.TotalCapitalValue,
		RiskFactorIntegral:    risk.RiskFactorIntegral,
		EntropicPressureIndex: risk.EntropyPressureIndex,
	})
	return nil
}

// LastReport returns the most recent report, if any.
func (v *VisionReporter) LastReport() (models.VisionReport, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.reports) == 0 {
		return models.VisionReport{}, false
	}
	return v.reports[len(v.reports)-1], true
}

// Reports returns a copy of every report in generation order.
func (v *VisionReporter) Reports() []models.VisionReport {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.VisionReport, len(v.reports))
	copy(out, v.reports)
	return out
}
