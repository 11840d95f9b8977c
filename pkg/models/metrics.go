package models

import (
	"fmt"
	"math"
)

// CycleMetrics aggregates the audited work cycles recorded in the trail.
type CycleMetrics struct {
	TotalValueGenerated          float64 `json:"totalValueGenerated"`
	TotalHoursSpent              float64 `json:"totalHoursSpent"`
	TotalRegistrationLatencyMs   float64 `json:"totalRegistrationLatencyMs"`
	AverageRegistrationLatencyMs float64 `json:"averageRegistrationLatencyMs"`
	PerformanceUSDPerHour        float64 `json:"performanceUsdPerHour"`
	TotalOpexCost                float64 `json:"totalOpexCost"`
	TotalNetProfit               float64 `json:"totalNetProfit"`
	ProfitMarginPercentage       float64 `json:"profitMarginPercentage"`
	AuditedCycles                int     `json:"auditedCycles"`
}

// EntropicInputs are the externally supplied planning figures used to derive
// the entropy pressure index.
type EntropicInputs struct {
	PlannedTasks        int     `json:"plannedTasks" yaml:"planned_tasks" mapstructure:"planned_tasks"`
	CompletedTasks      int     `json:"completedTasks" yaml:"completed_tasks" mapstructure:"completed_tasks"`
	ProcrastinationLoad float64 `json:"procrastinationLoad" yaml:"procrastination_load" mapstructure:"procrastination_load"`
}

// Validate checks the documented ranges.
func (in EntropicInputs) Validate() error {
	if in.PlannedTasks < 0 {
		return fmt.Errorf("plannedTasks must be non-negative, got %d", in.PlannedTasks)
	}
	if in.CompletedTasks < 0 {
		return fmt.Errorf("completedTasks must be non-negative, got %d", in.CompletedTasks)
	}
	if math.IsNaN(in.ProcrastinationLoad) || in.ProcrastinationLoad < 0 || in.ProcrastinationLoad > 1 {
		return fmt.Errorf("procrastinationLoad must be within [0,1], got %v", in.ProcrastinationLoad)
	}
	return nil
}

// RiskMetrics is the output of the risk officer.
type RiskMetrics struct {
	RiskFactorIntegral   float64 `json:"riskFactorIntegral"`
	VolatilityIndex      float64 `json:"volatilityIndex"`
	EntropyPressureIndex float64 `json:"entropyPressureIndex"`
	DeviationFromPlan    float64 `json:"deviationFromPlan"`
}

// HistoricalRecord is one immutable point in the capital/risk trend.
type HistoricalRecord struct {
	Timestamp             string  `json:"timestamp"`
	TotalCapital          float64 `json:"totalCapital"`
	RiskFactorIntegral    float64 `json:"riskFactorIntegral"`
	EntropicPressureIndex float64 `json:"entropicPressureIndex"`
}

// VisionReport is the multi-metric snapshot assembled on every capital change.
type VisionReport struct {
	GeneratedAt string         `json:"generatedAt"`
	Capital     CapitalState   `json:"capital"`
	COFactor    float64        `json:"coFactor"`
	Metrics     CycleMetrics   `json:"metrics"`
	Risk        RiskMetrics    `json:"risk"`
	Inputs      EntropicInputs `json:"entropicInputs"`
}

// TrendReport summarises the historical ledger.
type TrendReport struct {
	Cycles         int                `json:"cycles"`
	Records        []HistoricalRecord `json:"records"`
	InitialCapital float64            `json:"initialCapital"`
	FinalCapital   float64            `json:"finalCapital"`
	CapitalDelta   float64            `json:"capitalDelta"`
	FinalRFI       float64            `json:"finalRiskFactorIntegral"`
	RFIDelta       float64            `json:"riskFactorIntegralDelta"`
	PeakCapital    float64            `json:"peakCapital"`
}
