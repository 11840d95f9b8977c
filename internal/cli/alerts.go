package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active alerts and warnings",
	Long: `Evaluate alert conditions against the audit trail, cycle metrics and risk
history and display any triggered alerts.

Alerts check for recorded operational errors, unavailable capital, seals
that do not match the trail, registration latency, profit margin and the
risk factor integral.
With --notify the alerts are also sent to the configured Slack webhook.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized")
		}

		if err := ensureAudited(cmd); err != nil {
			return err
		}

		alerts := AlertEngine.Evaluate()
		out := cmd.OutOrStdout()

		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			fmt.Fprintf(out, "  [%s] %s\n", severity, alert.Message)
			fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		if !alertsNotify {
			return nil
		}
		if Notifier == nil {
			return fmt.Errorf("notifier not configured (set notifications.slack_webhook_url)")
		}
		if err := Notifier.Notify(commandContext(cmd), alerts); err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		fmt.Fprintf(out, "Sent %d alert(s) to Slack.\n", len(alerts))

		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Send triggered alerts to the configured notifier")
	rootCmd.AddCommand(alertsCmd)
}
