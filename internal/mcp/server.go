// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the in-memory audit state as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/aion-audit/internal/observability"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// AuditRunner runs one audit pass.
type AuditRunner interface {
	RunAudit(ctx context.Context, extra []models.ExpenseConfig) (models.RunSummary, error)
}

// TrailReader is the read side of the audit ledger.
type TrailReader interface {
	observability.EventReader
	Len() int
	Head() string
	VerifyChain() error
}

// CapitalReader yields capital snapshots.
type CapitalReader interface {
	Snapshot() models.CapitalState
}

// HistoryReader yields the historical capital/risk records.
type HistoryReader interface {
	Records() []models.HistoricalRecord
	Trend() models.TrendReport
}

// Deps are the services exposed by the server. Any of them may be nil; the
// matching tools then report that the service is unavailable.
type Deps struct {
	Runner  AuditRunner
	Trail   TrailReader
	Metrics observability.MetricsCalculator
	Alerts  observability.AlertEngine
	Capital CapitalReader
	History HistoryReader
}

// Server wraps the audit services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	deps   Deps
}

// NewServer creates a new MCP server over deps.
func NewServer(deps Deps, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{deps: deps}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "aion", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type expenseInput struct {
	Amount float64 `json:"amount" jsonschema:"the expense amount, must be positive"`
	Reason string  `json:"reason,omitempty" jsonschema:"why the expense was incurred"`
}

type runAuditInput struct {
	Expenses []expenseInput `json:"expenses,omitempty" jsonschema:"extra expenses applied after the task batch"`
}

type runAuditOutput struct {
	Source           string  `json:"source"`
	TasksProcessed   int     `json:"tasks_processed"`
	ExpensesApplied  int     `json:"expenses_applied"`
	ExpensesRejected int     `json:"expenses_rejected"`
	EventsRecorded   int     `json:"events_recorded"`
	TrailLength      int     `json:"trail_length"`
	TrailHead        string  `json:"trail_head"`
	TotalCapital     float64 `json:"total_capital"`
	CapitalHealth    string  `json:"capital_health"`
	WorkHealth       string  `json:"work_health"`
	WorkSeal         string  `json:"work_seal"`
}

type getEventsInput struct {
	Type   string `json:"type,omitempty" jsonschema:"filter by event type (metric, audit, state, command)"`
	Source string `json:"source,omitempty" jsonschema:"filter by emitting component (e.g. WorkAuditor, PopulationReporter, AuditLedger)"`
	Since  string `json:"since,omitempty" jsonschema:"only events newer than this window (e.g. 24h, 7d)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"return at most this many of the newest events"`
}

type eventOutput struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Payload   map[string]any `json:"payload"`
}

type getEventsOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

type emptyInput struct{}

type metricsOutput struct {
	TotalValueGenerated          float64 `json:"total_value_generated"`
	TotalHoursSpent              float64 `json:"total_hours_spent"`
	AverageRegistrationLatencyMs float64 `json:"average_registration_latency_ms"`
	PerformanceUSDPerHour        float64 `json:"performance_usd_per_hour"`
	TotalOpexCost                float64 `json:"total_opex_cost"`
	TotalNetProfit               float64 `json:"total_net_profit"`
	ProfitMarginPercentage       float64 `json:"profit_margin_percentage"`
	AuditedCycles                int     `json:"audited_cycles"`
}

type capitalOutput struct {
	TotalCapitalValue float64 `json:"total_capital_value"`
	PopulationState   float64 `json:"population_state"`
	LastUpdate        string  `json:"last_update,omitempty"`
	InputsHash        string  `json:"inputs_hash"`
	HealthStatus      string  `json:"health_status"`
}

type recordOutput struct {
	Timestamp             string  `json:"timestamp"`
	TotalCapital          float64 `json:"total_capital"`
	RiskFactorIntegral    float64 `json:"risk_factor_integral"`
	EntropicPressureIndex float64 `json:"entropic_pressure_index"`
}

type getHistoryOutput struct {
	Records        []recordOutput `json:"records"`
	Cycles         int            `json:"cycles"`
	InitialCapital float64        `json:"initial_capital"`
	FinalCapital   float64        `json:"final_capital"`
	CapitalDelta   float64        `json:"capital_delta"`
	PeakCapital    float64        `json:"peak_capital"`
	FinalRFI       float64        `json:"final_risk_factor_integral"`
	RFIDelta       float64        `json:"risk_factor_integral_delta"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

type verifyTrailOutput struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length"`
	Head   string `json:"head"`
	Error  string `json:"error,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "run_audit",
		Description: "Run one audit pass over the configured task source, then apply configured and supplied expenses. Returns the run summary.",
	}, s.handleRunAudit)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_events",
		Description: "List events from the audit trail, optionally filtered by type, source and time window.",
	}, s.handleGetEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get cycle metrics derived from the audited work: value, hours, latency, opex, net profit and margin.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_capital",
		Description: "Get the current capital snapshot: total value, inputs hash and health status.",
	}, s.handleGetCapital)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_history",
		Description: "Get the historical capital and risk records together with the trend summary.",
	}, s.handleGetHistory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (capital availability, seal coherence, operational errors, latency, margin, risk).",
	}, s.handleGetAlerts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "verify_trail",
		Description: "Re-walk the hash chain of the audit trail and report whether it is intact.",
	}, s.handleVerifyTrail)
}

// --- Tool handlers ---

func (s *Server) handleRunAudit(ctx context.Context, _ *gomcp.CallToolRequest, input runAuditInput) (*gomcp.CallToolResult, runAuditOutput, error) {
	if s.deps.Runner == nil {
		return errorResult("audit runner not available"), runAuditOutput{}, nil
	}

	extra := make([]models.ExpenseConfig, 0, len(input.Expenses))
	for i, e := range input.Expenses {
		if e.Amount <= 0 {
			return errorResult(fmt.Sprintf("expenses[%d].amount must be positive, got %v", i, e.Amount)), runAuditOutput{}, nil
		}
		extra = append(extra, models.ExpenseConfig{Amount: e.Amount, Reason: e.Reason})
	}

	summary, err := s.deps.Runner.RunAudit(ctx, extra)
	if err != nil {
		return errorResult(fmt.Sprintf("running audit: %s", err)), runAuditOutput{}, nil
	}

	return nil, runAuditOutput{
		Source:           summary.Source,
		TasksProcessed:   summary.TasksProcessed,
		ExpensesApplied:  summary.ExpensesApplied,
		ExpensesRejected: summary.ExpensesRejected,
		EventsRecorded:   summary.EventsRecorded,
		TrailLength:      summary.TrailLength,
		TrailHead:        summary.TrailHead,
		TotalCapital:     summary.Capital.TotalCapitalValue,
		CapitalHealth:    string(summary.Capital.HealthStatus),
		WorkHealth:       string(summary.Work.HealthStatus),
		WorkSeal:         summary.Work.SealHash,
	}, nil
}

func (s *Server) handleGetEvents(_ context.Context, _ *gomcp.CallToolRequest, input getEventsInput) (*gomcp.CallToolResult, getEventsOutput, error) {
	if s.deps.Trail == nil {
		return errorResult("audit trail not available"), getEventsOutput{Events: []eventOutput{}}, nil
	}

	filter := observability.EventFilter{Source: input.Source}
	if input.Type != "" {
		typ := models.EventType(input.Type)
		if !typ.Valid() {
			return errorResult(fmt.Sprintf("invalid type %q: must be one of metric, audit, state, command", input.Type)), getEventsOutput{Events: []eventOutput{}}, nil
		}
		filter.Type = typ
	}
	if input.Since != "" {
		since, err := parseSince(input.Since)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing since duration: %s", err)), getEventsOutput{Events: []eventOutput{}}, nil
		}
		filter.Since = &since
	}
	if input.Limit < 0 {
		return errorResult("limit must not be negative"), getEventsOutput{Events: []eventOutput{}}, nil
	}

	events := s.deps.Trail.Read(filter)
	if input.Limit > 0 && len(events) > input.Limit {
		events = events[len(events)-input.Limit:]
	}

	out := getEventsOutput{
		Events: make([]eventOutput, len(events)),
		Count:  len(events),
	}
	for i, ev := range events {
		out.Events[i] = eventOutput{
			ID:        ev.ID,
			Timestamp: ev.Timestamp,
			Type:      string(ev.Type),
			Source:    ev.Source,
			Payload:   ev.Payload,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.deps.Metrics == nil {
		return errorResult("metrics calculator not available"), metricsOutput{}, nil
	}

	m := s.deps.Metrics.Calculate()
	return nil, metricsOutput{
		TotalValueGenerated:          m.TotalValueGenerated,
		TotalHoursSpent:              m.TotalHoursSpent,
		AverageRegistrationLatencyMs: m.AverageRegistrationLatencyMs,
		PerformanceUSDPerHour:        m.PerformanceUSDPerHour,
		TotalOpexCost:                m.TotalOpexCost,
		TotalNetProfit:               m.TotalNetProfit,
		ProfitMarginPercentage:       m.ProfitMarginPercentage,
		AuditedCycles:                m.AuditedCycles,
	}, nil
}

func (s *Server) handleGetCapital(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, capitalOutput, error) {
	if s.deps.Capital == nil {
		return errorResult("capital not available"), capitalOutput{}, nil
	}

	c := s.deps.Capital.Snapshot()
	out := capitalOutput{
		TotalCapitalValue: c.TotalCapitalValue,
		PopulationState:   c.PopulationState,
		InputsHash:        c.InputsHash,
		HealthStatus:      string(c.HealthStatus),
	}
	if !c.LastUpdateTimestamp.IsZero() {
		out.LastUpdate = models.FormatTimestamp(c.LastUpdateTimestamp)
	}
	return nil, out, nil
}

func (s *Server) handleGetHistory(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getHistoryOutput, error) {
	if s.deps.History == nil {
		return errorResult("historical ledger not available"), getHistoryOutput{Records: []recordOutput{}}, nil
	}

	trend := s.deps.History.Trend()
	out := getHistoryOutput{
		Records:        make([]recordOutput, len(trend.Records)),
		Cycles:         trend.Cycles,
		InitialCapital: trend.InitialCapital,
		FinalCapital:   trend.FinalCapital,
		CapitalDelta:   trend.CapitalDelta,
		PeakCapital:    trend.PeakCapital,
		FinalRFI:       trend.FinalRFI,
		RFIDelta:       trend.RFIDelta,
	}
	for i, r := range trend.Records {
		out.Records[i] = recordOutput{
			Timestamp:             r.Timestamp,
			TotalCapital:          r.TotalCapital,
			RiskFactorIntegral:    r.RiskFactorIntegral,
			EntropicPressureIndex: r.EntropicPressureIndex,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.deps.Alerts == nil {
		return errorResult("alert engine not available"), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	alerts := s.deps.Alerts.Evaluate()
	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

func (s *Server) handleVerifyTrail(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, verifyTrailOutput, error) {
	if s.deps.Trail == nil {
		return errorResult("audit trail not available"), verifyTrailOutput{}, nil
	}

	out := verifyTrailOutput{
		Valid:  true,
		Length: s.deps.Trail.Len(),
		Head:   s.deps.Trail.Head(),
	}
	if err := s.deps.Trail.VerifyChain(); err != nil {
		out.Valid = false
		out.Error = err.Error()
	}
	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	case 'm':
		return now.Add(-time.Duration(num) * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d, h or m)", string(suffix))
	}
}
