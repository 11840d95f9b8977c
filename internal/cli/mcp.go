package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	aionmcp "github.com/valter-silva-au/aion-audit/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the aion MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aion MCP server on stdio",
	Long: `Start the aion MCP server on stdio transport.

The server exposes the audit pipeline as MCP tools that AI assistants can
call: run_audit, get_events, get_metrics, get_capital, get_history,
get_alerts, verify_trail.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Runner == nil {
			return fmt.Errorf("audit runner not initialized")
		}

		srv := aionmcp.NewServer(mcpDeps(), appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

// mcpDeps collects the initialized services. Nil pointers are left out so
// the server sees an absent dependency rather than a typed nil.
func mcpDeps() aionmcp.Deps {
	deps := aionmcp.Deps{
		Runner:  Runner,
		Metrics: MetricsCalc,
		Alerts:  AlertEngine,
		Capital: Capital,
		History: History,
	}
	if Ledger != nil {
		deps.Trail = Ledger
	}
	return deps
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
