package observability

import (
	"fmt"
	"math"
	"testing"

	"pgregory.net/rapid"
)

// =============================================================================
// Property 5: Metrics Never Produce NaN
// =============================================================================

// Feature: observability, Property 5: Metrics Never Produce NaN
// *For any* set of audit events with non-negative work fields (including the
// empty set and all-zero fields), every CycleMetrics field SHALL be finite.
//
// **Validates: zero-denominator handling in MetricsCalculator**
func TestProperty5_MetricsNeverProduceNaN(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		var reader staticReader
		for i := 0; i < n; i++ {
			reader = append(reader, auditEvent(map[string]any{
				"timeSpentHours":        rapid.SampledFrom([]float64{0, 0.5, 1, 2, 8}).Draw(rt, fmt.Sprintf("hours_%d", i)),
				"valueGenerated":        rapid.Float64Range(0, 1000).Draw(rt, fmt.Sprintf("value_%d", i)),
				"registrationLatencyMs": rapid.Float64Range(0, 10000).Draw(rt, fmt.Sprintf("latency_%d", i)),
			}))
		}

		m := NewMetricsCalculator(reader, DefaultOpexPerHour).Calculate()
		fields := []float64{
			m.TotalValueGenerated, m.TotalHoursSpent, m.TotalRegistrationLatencyMs,
			m.AverageRegistrationLatencyMs, m.PerformanceUSDPerHour, m.TotalOpexCost,
			m.TotalNetProfit, m.ProfitMarginPercentage,
		}
		for i, f := range fields {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				rt.Fatalf("field %d is not finite: %v (metrics %+v)", i, f, m)
			}
		}
		if m.AuditedCycles != n {
			rt.Errorf("AuditedCycles = %d, want %d", m.AuditedCycles, n)
		}
	})
}

// =============================================================================
// Property 9: Net Profit Identity
// =============================================================================

// Feature: observability, Property 9: Net Profit Identity
// *For any* audited cycles, netProfit SHALL equal value - hours*opex.
//
// **Validates: MetricsCalculator opex derivation**
func TestProperty9_NetProfitIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		opex := rapid.Float64Range(1, 50).Draw(rt, "opex")
		var reader staticReader
		var value, hours float64
		for i := 0; i < n; i++ {
			v := rapid.Float64Range(0, 500).Draw(rt, fmt.Sprintf("value_%d", i))
			h := rapid.Float64Range(0, 10).Draw(rt, fmt.Sprintf("hours_%d", i))
			value += v
			hours += h
			reader = append(reader, auditEvent(map[string]any{"valueGenerated": v, "timeSpentHours": h}))
		}

		m := NewMetricsCalculator(reader, opex).Calculate()
		want := value - hours*opex
		if math.Abs(m.TotalNetProfit-want) > 1e-6 {
			rt.Errorf("TotalNetProfit = %v, want %v", m.TotalNetProfit, want)
		}
	})
}
