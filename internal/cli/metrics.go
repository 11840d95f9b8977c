package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show cycle metrics derived from the audit trail",
	Long: `Aggregate the audited work cycles recorded in the trail and display
value, hours, registration latency, operating cost and profit margin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized")
		}

		if err := ensureAudited(cmd); err != nil {
			return err
		}

		m := MetricsCalc.Calculate()
		out := cmd.OutOrStdout()

		if metricsJSON {
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return fmt.Errorf("marshalling metrics: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, "Cycle metrics")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-28s %d\n", "Audited cycles:", m.AuditedCycles)
		fmt.Fprintf(out, "  %-28s %s\n", "Value generated:", money(m.TotalValueGenerated))
		fmt.Fprintf(out, "  %-28s %.2f\n", "Hours spent:", m.TotalHoursSpent)
		fmt.Fprintf(out, "  %-28s %s\n", "Performance (per hour):", money(m.PerformanceUSDPerHour))
		fmt.Fprintf(out, "  %-28s %.0f ms\n", "Average registration latency:", m.AverageRegistrationLatencyMs)
		fmt.Fprintf(out, "  %-28s %s\n", "Operating cost:", money(m.TotalOpexCost))
		fmt.Fprintf(out, "  %-28s %s\n", "Net profit:", money(m.TotalNetProfit))
		fmt.Fprintf(out, "  %-28s %.1f%%\n", "Profit margin:", m.ProfitMarginPercentage)

		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}
