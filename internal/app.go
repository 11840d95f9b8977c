// Package internal provides the App struct that wires all components of the
// aion audit pipeline together and initializes the CLI layer.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/valter-silva-au/aion-audit/internal/cli"
	"github.com/valter-silva-au/aion-audit/internal/core"
	"github.com/valter-silva-au/aion-audit/internal/integration"
	"github.com/valter-silva-au/aion-audit/internal/observability"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// ErrRunInProgress is returned by RunAudit while another run is active.
var ErrRunInProgress = errors.New("an audit run is already in progress")

// App holds all service dependencies of the audit pipeline. The bus, the
// ledger and the capital subject live for the whole process; a WorkState is
// created per audit run.
type App struct {
	BasePath string
	Config   *models.AionConfig
	Logger   *slog.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Observability
	Telemetry   *observability.Telemetry
	Bus         *observability.Bus
	Ledger      *observability.AuditLedger
	Journal     observability.Journal
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier

	// Core services
	Capital    *core.Capital
	Risk       *core.RiskOfficer
	History    *core.HistoricalLedger
	Depositor  *core.CapitalDepositor
	Population *core.PopulationReporter
	Vision     *core.VisionReporter

	// Integration services
	Source integration.TaskSource

	level     *slog.LevelVar
	telemetry *telemetryObserver
	runMu     sync.Mutex
}

// Option configures NewApp.
type Option func(*App)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.Logger = logger }
}

// WithLogLevel registers the level variable behind the logger's handler;
// NewApp sets it from the configured log_level.
func WithLogLevel(level *slog.LevelVar) Option {
	return func(a *App) { a.level = level }
}

// WithTaskSource overrides the task source selected from the configuration.
func WithTaskSource(src integration.TaskSource) Option {
	return func(a *App) { a.Source = src }
}

// NewApp loads the configuration found in basePath and wires all components
// in dependency order. Only configuration errors are fatal.
func NewApp(basePath string, opts ...Option) (*App, error) {
	app := &App{BasePath: basePath}
	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		app.Logger = slog.Default()
	}
	logger := app.Logger

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg
	if app.level != nil {
		app.level.Set(core.ParseLogLevel(cfg.LogLevel))
	}

	// --- Observability ---
	app.Telemetry = observability.NewTelemetry()
	app.Bus = observability.NewBus(logger, observability.WithTelemetry(app.Telemetry))

	var ledgerOpts []observability.LedgerOption
	if cfg.JournalPath != "" {
		journal, err := observability.NewJSONLJournal(resolvePath(basePath, cfg.JournalPath))
		if err != nil {
			// Non-fatal: the trail stays in memory.
			logger.Warn("journal disabled", "path", cfg.JournalPath, "error", err)
		} else {
			app.Journal = journal
			ledgerOpts = append(ledgerOpts, observability.WithJournal(journal))
		}
	}
	app.Ledger = observability.NewAuditLedger(app.Bus, logger, ledgerOpts...)

	// --- Core services ---
	p := cfg.Policy
	app.Capital = core.NewCapital(logger)
	app.Risk = core.NewRiskOfficer(p.VolatilityIndex)
	app.History = core.NewHistoricalLedger(logger)
	app.MetricsCalc = observability.NewMetricsCalculator(app.Ledger, p.OpexPerHour)

	app.Depositor = core.NewCapitalDepositor(app.Capital, logger.With("component", core.SourceCapitalDepositor))
	app.Ledger.SubscribeToAudits(app.Depositor.HandleAudit)

	app.Population = core.NewPopulationReporter(app.Bus, core.WithSealLength(p.SealLength))
	app.Capital.Attach(app.Population)

	app.Vision = core.NewVisionReporter(app.Capital, app.Risk, p.InitialCOFactor, app.History, app.MetricsCalc,
		core.WithVisionPolicy(core.VisionPolicy{
			LowRiskThreshold:  p.LowRiskThreshold,
			CapitalBaseline:   p.CapitalBaseline,
			MitigatedCOFactor: p.MitigatedCOFactor,
		}),
		core.WithVisionLogger(logger.With("component", core.SourceVisionReporter)),
	)
	if err := app.Vision.SetEntropicInputs(cfg.Entropy); err != nil {
		return nil, err
	}

	// Attached after the vision reporter so the latest RFI is available.
	app.telemetry = &telemetryObserver{telemetry: app.Telemetry, vision: app.Vision}
	app.Capital.Attach(app.telemetry)

	app.AlertEngine = observability.NewAlertEngine(app.Ledger, app.MetricsCalc, app.History, observability.AlertThresholds{
		MaxAverageLatencyMs: cfg.Alerts.MaxAverageLatencyMs,
		MinProfitMargin:     cfg.Alerts.MinProfitMargin,
		MaxRiskFactor:       cfg.Alerts.MaxRiskFactor,
	})
	if cfg.Notifications.SlackWebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.SlackWebhookURL)
	}

	// --- Integration services ---
	if app.Source == nil {
		src, err := integration.NewTaskSource(cfg, basePath)
		if err != nil {
			_ = app.Ledger.HandleError(integration.EventNotionSetupError, err)
		}
		app.Source = src
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.LogLevel = app.level
	cli.Runner = app
	cli.Ledger = app.Ledger
	cli.MetricsCalc = app.MetricsCalc
	cli.AlertEngine = app.AlertEngine
	cli.Notifier = app.Notifier
	cli.Capital = app.Capital
	cli.History = app.History
	cli.Vision = app.Vision

	return app, nil
}

// RunAudit performs one audit pass: a fresh WorkState is fed from the task
// source, then the configured expenses followed by extra are applied to the
// capital subject and telemetry is pushed when a Pushgateway is configured.
// Source and expense failures are recorded on the trail or logged; the
// returned error is non-nil only when another run is in progress.
func (a *App) RunAudit(ctx context.Context, extra []models.ExpenseConfig) (models.RunSummary, error) {
	if !a.runMu.TryLock() {
		return models.RunSummary{}, ErrRunInProgress
	}
	defer a.runMu.Unlock()

	before := a.Ledger.Len()
	work := core.NewWorkState(a.Logger, core.WithFocusHours(a.Config.Policy.FocusHours))
	work.Attach(core.NewWorkAuditor(a.Bus, a.Logger.With("component", core.SourceWorkAuditor)))
	work.Attach(a.telemetry)

	summary := models.RunSummary{}
	if a.Source != nil {
		summary.Source = a.Source.Name()
		summary.TasksProcessed = integration.NewConnector(a.Source, work, a.Ledger, a.Logger).AuditAndNotify(ctx)
	}

	expenses := append(append([]models.ExpenseConfig{}, a.Config.Expenses...), extra...)
	for _, e := range expenses {
		if err := a.Capital.ProcessExpense(e.Amount, e.Reason); err != nil {
			summary.ExpensesRejected++
			continue
		}
		summary.ExpensesApplied++
	}

	if url := a.Config.Metrics.PushgatewayURL; url != "" {
		if err := a.Telemetry.Push(ctx, url, a.Config.Metrics.Job); err != nil {
			a.Logger.Warn("pushing telemetry", "url", url, "error", err)
		}
	}

	summary.TrailLength = a.Ledger.Len()
	summary.EventsRecorded = summary.TrailLength - before
	summary.TrailHead = a.Ledger.Head()
	summary.Work = work.Snapshot()
	summary.Capital = a.Capital.Snapshot()
	summary.Metrics = a.MetricsCalc.Calculate()
	if report, ok := a.Vision.LastReport(); ok {
		summary.Report = &report
	}

	a.Logger.Info("audit run finished",
		"source", summary.Source,
		"tasks", summary.TasksProcessed,
		"events", summary.EventsRecorded,
		"capital", fmt.Sprintf("%.2f", summary.Capital.TotalCapitalValue),
	)
	return summary, nil
}

// Close releases resources held by the App, such as the journal file handle.
// It is safe to call Close on an App without a journal.
func (a *App) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .aionconfig. It checks
// the AION_HOME env var, then the nearest ancestor of the working directory
// containing .aionconfig, then falls back to the working directory.
func ResolveBasePath() string {
	if home := os.Getenv("AION_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func resolvePath(basePath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}

// --- Adapters ---

// telemetryObserver mirrors subject changes into the Prometheus collectors.
type telemetryObserver struct {
	telemetry *observability.Telemetry
	vision    *core.VisionReporter
}

func (o *telemetryObserver) Update(change core.Change) error {
	switch c := change.(type) {
	case core.WorkChange:
		o.telemetry.ObserveTaskProcessed()
	case core.CapitalChange:
		o.telemetry.ObserveCapital(c.State.TotalCapitalValue)
		if report, ok := o.vision.LastReport(); ok {
			o.telemetry.ObserveRisk(report.Risk.RiskFactorIntegral)
		}
	}
	return nil
}
