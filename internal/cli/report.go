package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

var reportJSON bool

type reportOutput struct {
	Report *models.VisionReport `json:"report,omitempty"`
	Trend  models.TrendReport   `json:"trend"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest vision report and the capital/risk trend",
	Long: `Display the multi-metric vision report assembled on the last capital
change together with the historical trend of capital and risk factor.

Unless this process already audited, one audit pass runs first with the
configured expenses. The report stays empty when that pass changed no capital.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Vision == nil || History == nil {
			return fmt.Errorf("vision reporter not initialized")
		}

		if err := ensureAudited(cmd); err != nil {
			return err
		}

		var out reportOutput
		if r, ok := Vision.LastReport(); ok {
			out.Report = &r
		}
		out.Trend = History.Trend()

		if reportJSON {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshalling report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderReport(out.Report, out.Trend))
		return nil
	},
}

func renderReport(r *models.VisionReport, trend models.TrendReport) string {
	title := titleStyle.Render(" Aion Vision Report ")
	if r == nil {
		return title + "\n\n  No capital change recorded yet; the audit pass deposited nothing."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Capital"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-22s %s\n", "Total capital", money(r.Capital.TotalCapitalValue))
	fmt.Fprintf(&b, "  %-22s %s\n", "Population state", money(r.Capital.PopulationState))
	fmt.Fprintf(&b, "  %-22s %s\n", "Health", styleForCapital(r.Capital.HealthStatus).Render(string(r.Capital.HealthStatus)))
	fmt.Fprintf(&b, "  %-22s %.2f\n", "CO factor", r.COFactor)
	capitalPanel := panelStyle.Render(b.String())

	b.Reset()
	b.WriteString(headerStyle.Render("Risk"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-22s %.4f\n", "Risk factor integral", r.Risk.RiskFactorIntegral)
	fmt.Fprintf(&b, "  %-22s %.4f\n", "Volatility index", r.Risk.VolatilityIndex)
	fmt.Fprintf(&b, "  %-22s %.4f\n", "Entropy pressure", r.Risk.EntropyPressureIndex)
	fmt.Fprintf(&b, "  %-22s %.4f\n", "Deviation from plan", r.Risk.DeviationFromPlan)
	riskPanel := panelStyle.Render(b.String())

	b.Reset()
	b.WriteString(headerStyle.Render("Trend"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-22s %d\n", "Cycles", trend.Cycles)
	fmt.Fprintf(&b, "  %-22s %s\n", "Initial capital", money(trend.InitialCapital))
	fmt.Fprintf(&b, "  %-22s %s\n", "Final capital", money(trend.FinalCapital))
	fmt.Fprintf(&b, "  %-22s %s\n", "Peak capital", money(trend.PeakCapital))
	fmt.Fprintf(&b, "  %-22s %s\n", "Capital delta", money(trend.CapitalDelta))
	fmt.Fprintf(&b, "  %-22s %+.4f\n", "RFI delta", trend.RFIDelta)
	trendPanel := panelStyle.Render(b.String())

	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, capitalPanel, riskPanel),
		trendPanel,
	)
	return fmt.Sprintf("%s\n%s\n\n%s", title, helpStyle.Render("generated at "+r.GeneratedAt), body)
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output the report and trend as JSON")
	rootCmd.AddCommand(reportCmd)
}
