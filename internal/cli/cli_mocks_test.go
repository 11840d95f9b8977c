package cli

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/aion-audit/internal/observability"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

type runnerMock struct {
	runFn func(extra []models.ExpenseConfig) (models.RunSummary, error)
}

func (m *runnerMock) RunAudit(_ context.Context, extra []models.ExpenseConfig) (models.RunSummary, error) {
	return m.runFn(extra)
}

type metricsMock struct {
	metrics models.CycleMetrics
}

func (m *metricsMock) Calculate() models.CycleMetrics { return m.metrics }

type alertsMock struct {
	alerts []observability.Alert
}

func (m *alertsMock) Evaluate() []observability.Alert { return m.alerts }

type notifierMock struct {
	notifyFn func(alerts []observability.Alert) error
}

func (m *notifierMock) Notify(_ context.Context, alerts []observability.Alert) error {
	return m.notifyFn(alerts)
}

type capitalMock struct {
	state models.CapitalState
}

func (m *capitalMock) Snapshot() models.CapitalState { return m.state }

type historyMock struct {
	trend models.TrendReport
}

func (m *historyMock) Records() []models.HistoricalRecord { return m.trend.Records }
func (m *historyMock) Trend() models.TrendReport          { return m.trend }

type visionMock struct {
	report *models.VisionReport
}

func (m *visionMock) LastReport() (models.VisionReport, bool) {
	if m.report == nil {
		return models.VisionReport{}, false
	}
	return *m.report, true
}

// captureOutput points cmd's output at a buffer for the duration of a test.
func captureOutput(cmd *cobra.Command) (*bytes.Buffer, func()) {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return &buf, func() { cmd.SetOut(nil) }
}

func sampleReport() *models.VisionReport {
	return &models.VisionReport{
		GeneratedAt: "2026-03-01T10:00:00.000Z",
		Capital: models.CapitalState{
			TotalCapitalValue: 1234.5,
			PopulationState:   1234.5,
			InputsHash:        "0123456789abcdef0123",
			HealthStatus:      models.CapitalOnline,
		},
		COFactor: 0.2,
		Risk: models.RiskMetrics{
			RiskFactorIntegral:   0.0125,
			VolatilityIndex:      0.05,
			EntropyPressureIndex: 0.25,
		},
	}
}
