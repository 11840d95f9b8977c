package core

import (
	"fmt"
	"math"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// DefaultVolatilityIndex is the behavioural volatility used until a real
// estimator exists.
const DefaultVolatilityIndex = 0.3

// RiskOfficer derives risk metrics from the opportunity-cost factor and the
// entropic planning inputs.
type RiskOfficer struct {
	volatility float64
}

// NewRiskOfficer creates a RiskOfficer. A non-positive volatility falls back
// to DefaultVolatilityIndex.
func NewRiskOfficer(volatility float64) *RiskOfficer {
	if volatility <= 0 || math.IsNaN(volatility) {
		volatility = DefaultVolatilityIndex
	}
	return &RiskOfficer{volatility: volatility}
}

// CompileRiskMetrics computes:
//
//	deviation = (planned - completed) / planned, 0 when planned is 0
//	EPI       = 0.5*deviation + 0.5*procrastination
//	RFI       = round2(0.85*volatility*coFactor + 0.5*EPI)
//
// Volatility and EPI are reported rounded to two decimals; RFI is computed
// from the unrounded EPI.
func (r *RiskOfficer) CompileRiskMetrics(coFactor float64, in models.EntropicInputs) (models.RiskMetrics, error) {
	if err := in.Validate(); err != nil {
		return models.RiskMetrics{}, fmt.Errorf("%w: %v", ErrInvalidEntropicInputs, err)
	}

	deviation := 0.0
	if in.PlannedTasks > 0 {
		deviation = float64(in.PlannedTasks-in.CompletedTasks) / float64(in.PlannedTasks)
	}
	epi := 0.5*deviation + 0.5*in.ProcrastinationLoad
	rfi := 0.85*r.volatility*coFactor + 0.5*epi

	return models.RiskMetrics{
		RiskFactorIntegral:   round2(rfi),
		VolatilityIndex:      round2(r.volatility),
		EntropyPressureIndex: round2(epi),
		DeviationFromPlan:    deviation,
	}, nil
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
