package cli

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/valter-silva-au/aion-audit/internal/observability"
)

func TestMCPServeCmd_NilRunner(t *testing.T) {
	orig := Runner
	defer func() { Runner = orig }()
	Runner = nil

	err := mcpServeCmd.RunE(mcpServeCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected initialization error, got %v", err)
	}
}

func TestMCPDeps_OmitsNilLedger(t *testing.T) {
	origLedger := Ledger
	defer func() { Ledger = origLedger }()

	Ledger = nil
	if deps := mcpDeps(); deps.Trail != nil {
		t.Error("a nil ledger must not become a non-nil TrailReader")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	Ledger = observability.NewAuditLedger(observability.NewBus(logger), logger)
	if deps := mcpDeps(); deps.Trail == nil {
		t.Error("expected the ledger to be exposed as the trail")
	}
}
