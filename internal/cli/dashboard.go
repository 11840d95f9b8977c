package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// Dashboard panel indices.
const (
	panelCapital = iota
	panelMetrics
	panelRisk
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	capital *models.CapitalState
	metrics *models.CycleMetrics
	risk    *riskSnapshot
	alerts  []alertSnapshot

	// State.
	loading bool
	err     error
}

type riskSnapshot struct {
	rfi       float64
	entropy   float64
	coFactor  float64
	cycles    int
	rfiDelta  float64
	peakValue float64
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	capital *models.CapitalState
	metrics *models.CycleMetrics
	risk    *riskSnapshot
	alerts  []alertSnapshot
	err     error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	healthOnline   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	healthDegraded = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	healthOffline  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelCapital,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.capital = msg.capital
		m.metrics = msg.metrics
		m.risk = msg.risk
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Aion Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	panels := []string{
		m.renderCapitalPanel(),
		m.renderMetricsPanel(),
		m.renderRiskPanel(),
		m.renderAlertsPanel(),
	}

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Two columns, two rows.
		colWidth := availableWidth / 2
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], colWidth-4)
		}
		body = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, panels[panelCapital], panels[panelMetrics]),
			lipgloss.JoinHorizontal(lipgloss.Top, panels[panelRisk], panels[panelAlerts]),
		)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], panelWidth)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panels...)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderCapitalPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Capital"))
	b.WriteString("\n")

	if m.capital == nil {
		b.WriteString("  No capital recorded.")
		return b.String()
	}

	c := m.capital
	fmt.Fprintf(&b, "  %-14s %s\n", "Total", money(c.TotalCapitalValue))
	fmt.Fprintf(&b, "  %-14s %s\n", "Population", money(c.PopulationState))
	fmt.Fprintf(&b, "  %-14s %s\n", "Health", styleForCapital(c.HealthStatus).Render(string(c.HealthStatus)))
	fmt.Fprintf(&b, "  %-14s %s", "Inputs", shortHash(c.InputsHash))

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics"))
	b.WriteString("\n")

	if m.metrics == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metrics
	lines := []struct {
		label string
		value string
	}{
		{"Cycles", fmt.Sprintf("%d", md.AuditedCycles)},
		{"Value", money(md.TotalValueGenerated)},
		{"Hours", fmt.Sprintf("%.2f", md.TotalHoursSpent)},
		{"Net profit", money(md.TotalNetProfit)},
		{"Margin", fmt.Sprintf("%.1f%%", md.ProfitMarginPercentage)},
		{"Avg latency", fmt.Sprintf("%.0f ms", md.AverageRegistrationLatencyMs)},
	}

	for _, l := range lines {
		fmt.Fprintf(&b, "  %-14s %s\n", l.label, l.value)
	}

	return b.String()
}

func (m dashboardModel) renderRiskPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Risk"))
	b.WriteString("\n")

	if m.risk == nil {
		b.WriteString("  No vision report yet.")
		return b.String()
	}

	r := m.risk
	fmt.Fprintf(&b, "  %-14s %.4f\n", "RFI", r.rfi)
	fmt.Fprintf(&b, "  %-14s %+.4f\n", "RFI delta", r.rfiDelta)
	fmt.Fprintf(&b, "  %-14s %.4f\n", "Entropy", r.entropy)
	fmt.Fprintf(&b, "  %-14s %.2f\n", "CO factor", r.coFactor)
	fmt.Fprintf(&b, "  %-14s %d\n", "History", r.cycles)
	fmt.Fprintf(&b, "  %-14s %s", "Peak capital", money(r.peakValue))

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		fmt.Fprintf(&b, "  %s %s\n", sev, a.message)
	}

	fmt.Fprintf(&b, "\n  Total: %d alert(s)", len(m.alerts))

	return b.String()
}

func styleForCapital(status models.CapitalHealth) lipgloss.Style {
	switch status {
	case models.CapitalOnline:
		return healthOnline
	case models.CapitalDegraded:
		return healthDegraded
	case models.CapitalOffline:
		return healthOffline
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Capital != nil {
		c := Capital.Snapshot()
		result.capital = &c
	}

	if MetricsCalc != nil {
		md := MetricsCalc.Calculate()
		result.metrics = &md
	}

	if Vision != nil {
		if report, ok := Vision.LastReport(); ok {
			result.risk = &riskSnapshot{
				rfi:      report.Risk.RiskFactorIntegral,
				entropy:  report.Risk.EntropyPressureIndex,
				coFactor: report.COFactor,
			}
			if History != nil {
				trend := History.Trend()
				result.risk.cycles = trend.Cycles
				result.risk.rfiDelta = trend.RFIDelta
				result.risk.peakValue = trend.PeakCapital
			}
		}
	}

	if AlertEngine != nil {
		alerts := AlertEngine.Evaluate()
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		// Sort alerts by severity: high first, then medium, then low.
		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for capital, metrics, risk and alerts",
	Long: `Launch an interactive terminal dashboard showing the capital subject,
cycle metrics, the latest risk figures and active alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized")
		}
		if err := ensureAudited(cmd); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
