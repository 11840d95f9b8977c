package observability

import "github.com/valter-silva-au/aion-audit/pkg/models"

// DefaultOpexPerHour is the operating cost charged per audited hour.
const DefaultOpexPerHour = 10.0

// MetricsCalculator derives cycle metrics from the audit trail.
type MetricsCalculator interface {
	Calculate() models.CycleMetrics
}

// metricsCalculator implements MetricsCalculator by reading audit events.
type metricsCalculator struct {
	reader      EventReader
	opexPerHour float64
}

// NewMetricsCalculator creates a MetricsCalculator over reader. A
// non-positive opexPerHour falls back to DefaultOpexPerHour.
func NewMetricsCalculator(reader EventReader, opexPerHour float64) MetricsCalculator {
	if opexPerHour <= 0 {
		opexPerHour = DefaultOpexPerHour
	}
	return &metricsCalculator{reader: reader, opexPerHour: opexPerHour}
}

// Calculate aggregates every audit event carrying work fields. A cycle is
// counted when the event has at least one of valueGenerated,
// timeSpentHours or registrationLatencyMs. Every ratio is 0 when its
// denominator is 0.
func (mc *metricsCalculator) Calculate() models.CycleMetrics {
	var m models.CycleMetrics

	for _, ev := range mc.reader.Read(EventFilter{Type: models.EventAudit}) {
		value, hasValue := ev.Number("valueGenerated")
		hours, hasHours := ev.Number("timeSpentHours")
		latency, hasLatency := ev.Number("registrationLatencyMs")
		if !hasValue && !hasHours && !hasLatency {
			continue
		}
		m.TotalValueGenerated += value
		m.TotalHoursSpent += hours
		m.TotalRegistrationLatencyMs += latency
		m.AuditedCycles++
	}

	if m.TotalHoursSpent > 0 {
		m.PerformanceUSDPerHour = m.TotalValueGenerated / m.TotalHoursSpent
	}
	if m.AuditedCycles > 0 {
		m.AverageRegistrationLatencyMs = m.TotalRegistrationLatencyMs / float64(m.AuditedCycles)
	}
	m.TotalOpexCost = m.TotalHoursSpent * mc.opexPerHour
	m.TotalNetProfit = m.TotalValueGenerated - m.TotalOpexCost
	if m.TotalValueGenerated > 0 {
		m.ProfitMarginPercentage = 100 * m.TotalNetProfit / m.TotalValueGenerated
	}
	return m
}
