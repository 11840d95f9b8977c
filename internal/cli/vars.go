package cli

import (
	"context"
	"log/slog"

	"github.com/valter-silva-au/aion-audit/internal/observability"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// AuditRunner performs one audit pass over the configured task source.
type AuditRunner interface {
	RunAudit(ctx context.Context, extra []models.ExpenseConfig) (models.RunSummary, error)
}

// CapitalReader yields capital snapshots.
type CapitalReader interface {
	Snapshot() models.CapitalState
}

// HistoryReader yields the historical capital/risk trend.
type HistoryReader interface {
	Records() []models.HistoricalRecord
	Trend() models.TrendReport
}

// ReportReader yields the most recent vision report.
type ReportReader interface {
	LastReport() (models.VisionReport, bool)
}

// Application state, set during app initialization in app.go.
var (
	BasePath string
	LogLevel *slog.LevelVar
	Runner   AuditRunner
)

// Observability service instances.
var (
	Ledger      *observability.AuditLedger
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
)

// Core service instances.
var (
	Capital CapitalReader
	History HistoryReader
	Vision  ReportReader
)
