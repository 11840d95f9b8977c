package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

func TestMetricsCmd_NilCalculator(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = nil

	err := metricsCmd.RunE(metricsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when MetricsCalc is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_Success_TableFormat(t *testing.T) {
	orig := MetricsCalc
	origJSON := metricsJSON
	defer func() {
		MetricsCalc = orig
		metricsJSON = origJSON
	}()

	metricsJSON = false
	MetricsCalc = &metricsMock{metrics: models.CycleMetrics{
		TotalValueGenerated:          60,
		TotalHoursSpent:              6,
		AverageRegistrationLatencyMs: 2000,
		TotalOpexCost:                150,
		TotalNetProfit:               -90,
		ProfitMarginPercentage:       -150,
		AuditedCycles:                3,
	}}

	out, restore := captureOutput(metricsCmd)
	defer restore()

	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Audited cycles:", "$60.00", "2000 ms", "-150.0%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("table output missing %q:\n%s", want, out.String())
		}
	}
}

func TestMetricsCmd_Success_JSONFormat(t *testing.T) {
	orig := MetricsCalc
	origJSON := metricsJSON
	defer func() {
		MetricsCalc = orig
		metricsJSON = origJSON
	}()

	metricsJSON = true
	MetricsCalc = &metricsMock{metrics: models.CycleMetrics{AuditedCycles: 2, TotalValueGenerated: 30}}

	out, restore := captureOutput(metricsCmd)
	defer restore()

	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded models.CycleMetrics
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.AuditedCycles != 2 || decoded.TotalValueGenerated != 30 {
		t.Errorf("decoded metrics = %+v", decoded)
	}
}
