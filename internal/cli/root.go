package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/aion-audit/internal/core"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

var logLevelFlag string

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "aion",
	Short: "Aion - audited work-to-capital pipeline",
	Long: `Aion audits completed work, converts the value it generated into
capital and keeps a hash-chained trail of every step.

Tasks are read from a Notion database or a local YAML task file. Each task
is sealed, audited and deposited; the capital subject then drives the
population metrics, risk and vision reports shown by the other commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevelFlag != "" && LogLevel != nil {
			LogLevel.Set(core.ParseLogLevel(logLevelFlag))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aion %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override the configured log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
