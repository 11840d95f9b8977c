package core

import (
	"log/slog"
	"sync"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// HistoricalLedger is the append-only capital/risk trend.
type HistoricalLedger struct {
	logger *slog.Logger

	mu      sync.RWMutex
	records []models.HistoricalRecord
}

// NewHistoricalLedger creates an empty ledger.
func NewHistoricalLedger(logger *slog.Logger) *HistoricalLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoricalLedger{logger: logger}
}

// Register appends record.
func (h *HistoricalLedger) Register(record models.HistoricalRecord) {
	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()

	h.logger.Info("historical record saved",
		"capital", record.TotalCapital,
		"rfi", record.RiskFactorIntegral,
		"epi", record.EntropicPressureIndex,
	)
}

// Records returns a copy of every record in insertion order.
func (h *HistoricalLedger) Records() []models.HistoricalRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.HistoricalRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Trend summarises the records. An empty ledger yields a zero report.
func (h *HistoricalLedger) Trend() models.TrendReport {
	records := h.Records()
	report := models.TrendReport{Cycles: len(records), Records: records}
	if len(records) == 0 {
		return report
	}

	first, last := records[0], records[len(records)-1]
	report.InitialCapital = first.TotalCapital
	report.FinalCapital = last.TotalCapital
	report.CapitalDelta = last.TotalCapital - first.TotalCapital
	report.FinalRFI = last.RiskFactorIntegral
	report.RFIDelta = round2(last.RiskFactorIntegral - first.RiskFactorIntegral)
	for _, r := range records {
		if r.TotalCapital > report.PeakCapital {
			report.PeakCapital = r.TotalCapital
		}
	}
	return report
}
