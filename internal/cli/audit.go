package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

var (
	auditJSON     bool
	auditExpenses []string

	// audited is set once this process has completed an audit pass.
	audited bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run one audit pass over the task source",
	Long: `Fetch the auditable tasks from the configured source, seal and audit each
one, deposit the generated value and apply operating expenses.

Expenses listed in .aionconfig are applied first, followed by any given with
--expense AMOUNT=REASON (repeatable).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Runner == nil {
			return fmt.Errorf("audit runner not initialized")
		}

		extra, err := parseExpenses(auditExpenses)
		if err != nil {
			return err
		}

		summary, err := Runner.RunAudit(commandContext(cmd), extra)
		if err != nil {
			return fmt.Errorf("running audit: %w", err)
		}
		audited = true

		out := cmd.OutOrStdout()
		if auditJSON {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("marshalling summary: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		printSummary(out, summary)
		return nil
	},
}

// ensureAudited runs one audit pass with the configured expenses unless this
// process already ran one. The pipeline state is in-memory, so read-only
// commands call it before rendering.
func ensureAudited(cmd *cobra.Command) error {
	if Runner == nil || audited {
		return nil
	}
	if _, err := Runner.RunAudit(commandContext(cmd), nil); err != nil {
		return fmt.Errorf("running audit: %w", err)
	}
	audited = true
	return nil
}

// parseExpenses converts AMOUNT=REASON flag values into expense configs.
func parseExpenses(values []string) ([]models.ExpenseConfig, error) {
	expenses := make([]models.ExpenseConfig, 0, len(values))
	for _, v := range values {
		amountText, reason, _ := strings.Cut(v, "=")
		amount, err := strconv.ParseFloat(strings.TrimSpace(amountText), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --expense %q: amount must be a number", v)
		}
		if amount <= 0 {
			return nil, fmt.Errorf("invalid --expense %q: amount must be positive", v)
		}
		expenses = append(expenses, models.ExpenseConfig{Amount: amount, Reason: strings.TrimSpace(reason)})
	}
	return expenses, nil
}

func printSummary(out io.Writer, s models.RunSummary) {
	source := s.Source
	if source == "" {
		source = "(none)"
	}

	fmt.Fprintln(out, "Audit run")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-24s %s\n", "Source:", source)
	fmt.Fprintf(out, "  %-24s %d\n", "Tasks processed:", s.TasksProcessed)
	fmt.Fprintf(out, "  %-24s %d applied, %d rejected\n", "Expenses:", s.ExpensesApplied, s.ExpensesRejected)
	fmt.Fprintf(out, "  %-24s %d (trail length %d)\n", "Events recorded:", s.EventsRecorded, s.TrailLength)
	fmt.Fprintf(out, "  %-24s %s\n", "Trail head:", shortHash(s.TrailHead))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-24s %s\n", "Work health:", s.Work.HealthStatus)
	fmt.Fprintf(out, "  %-24s %s\n", "Seal:", shortHash(s.Work.SealHash))
	fmt.Fprintf(out, "  %-24s %s\n", "Capital:", money(s.Capital.TotalCapitalValue))
	fmt.Fprintf(out, "  %-24s %s\n", "Capital health:", s.Capital.HealthStatus)
	fmt.Fprintf(out, "  %-24s %s\n", "Net profit:", money(s.Metrics.TotalNetProfit))
	fmt.Fprintf(out, "  %-24s %.1f%%\n", "Profit margin:", s.Metrics.ProfitMarginPercentage)
	if s.Report != nil {
		fmt.Fprintf(out, "  %-24s %.4f\n", "Risk factor integral:", s.Report.Risk.RiskFactorIntegral)
		fmt.Fprintf(out, "  %-24s %.2f\n", "CO factor:", s.Report.COFactor)
	}
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output the run summary as JSON")
	auditCmd.Flags().StringArrayVar(&auditExpenses, "expense", nil, "Apply an extra expense as AMOUNT=REASON (repeatable)")
	rootCmd.AddCommand(auditCmd)
}
