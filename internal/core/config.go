// Package core contains the domain of the aion audit pipeline: the work
// and capital subjects, the derived observers, sealing, risk scoring, the
// historical ledger and configuration loading.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file, without
// extension, looked up in the base path.
const ConfigFileName = ".aionconfig"

// validLogLevels is the set of accepted log_level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ConfigurationManager defines the interface for loading and validating
// the pipeline configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.AionConfig, error)
	ValidateConfig(cfg *models.AionConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files and environment overrides.
type viperConfigManager struct {
	// basePath is the root directory where .aionconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns an AionConfig populated with sensible defaults.
func DefaultConfig() *models.AionConfig {
	return &models.AionConfig{
		LogLevel: "info",
		Policy: models.PolicyConfig{
			OpexPerHour:       10,
			VolatilityIndex:   DefaultVolatilityIndex,
			FocusHours:        DefaultFocusHours,
			LowRiskThreshold:  0.1,
			CapitalBaseline:   750,
			MitigatedCOFactor: 0.2,
			InitialCOFactor:   0.5,
			SealLength:        SealLength,
		},
		Notion: models.NotionConfig{
			StatusProperty:   "Estado",
			AuditableStatus:  "Auditable",
			SortProperty:     "Última Edición",
			TitleProperty:    "Tarea",
			ValueProperty:    "Valor (USD)",
			HoursProperty:    "Horas",
			LatencyProperty:  "Latencia (ms)",
			PageSize:         10,
			RequestTimeoutMs: 15000,
		},
		Alerts: models.AlertsConfig{
			MaxAverageLatencyMs: 5000,
			MinProfitMargin:     0,
			MaxRiskFactor:       0.5,
		},
		Metrics: models.MetricsConfig{
			Job: "aion",
		},
	}
}

// LoadConfig reads .aionconfig from the base path using Viper, applies
// AION_* environment overrides and the NOTION_TOKEN / NOTION_DATABASE_ID
// variables. If the file does not exist, defaults are used.
func (cm *viperConfigManager) LoadConfig() (*models.AionConfig, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetEnvPrefix("AION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("policy.opex_per_hour", def.Policy.OpexPerHour)
	v.SetDefault("policy.volatility_index", def.Policy.VolatilityIndex)
	v.SetDefault("policy.focus_hours", def.Policy.FocusHours)
	v.SetDefault("policy.low_risk_threshold", def.Policy.LowRiskThreshold)
	v.SetDefault("policy.capital_baseline", def.Policy.CapitalBaseline)
	v.SetDefault("policy.mitigated_co_factor", def.Policy.MitigatedCOFactor)
	v.SetDefault("policy.initial_co_factor", def.Policy.InitialCOFactor)
	v.SetDefault("policy.seal_length", def.Policy.SealLength)
	v.SetDefault("entropy.planned_tasks", 0)
	v.SetDefault("entropy.completed_tasks", 0)
	v.SetDefault("entropy.procrastination_load", 0.0)
	v.SetDefault("notion.status_property", def.Notion.StatusProperty)
	v.SetDefault("notion.auditable_status", def.Notion.AuditableStatus)
	v.SetDefault("notion.sort_property", def.Notion.SortProperty)
	v.SetDefault("notion.title_property", def.Notion.TitleProperty)
	v.SetDefault("notion.value_property", def.Notion.ValueProperty)
	v.SetDefault("notion.hours_property", def.Notion.HoursProperty)
	v.SetDefault("notion.latency_property", def.Notion.LatencyProperty)
	v.SetDefault("notion.page_size", def.Notion.PageSize)
	v.SetDefault("notion.request_timeout_ms", def.Notion.RequestTimeoutMs)
	v.SetDefault("task_file", "")
	v.SetDefault("alerts.max_average_latency_ms", def.Alerts.MaxAverageLatencyMs)
	v.SetDefault("alerts.min_profit_margin", def.Alerts.MinProfitMargin)
	v.SetDefault("alerts.max_risk_factor", def.Alerts.MaxRiskFactor)
	v.SetDefault("notifications.slack_webhook_url", "")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", def.Metrics.Job)
	v.SetDefault("journal_path", "")

	// The Notion credentials keep their historical variable names.
	_ = v.BindEnv("notion.token", "AION_NOTION_TOKEN", "NOTION_TOKEN")
	_ = v.BindEnv("notion.database_id", "AION_NOTION_DATABASE_ID", "NOTION_DATABASE_ID")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg := &models.AionConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns
// one error listing every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.AionConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level %q is invalid, must be one of: debug, info, warn, error", cfg.LogLevel))
	}

	p := cfg.Policy
	positive := []struct {
		key   string
		value float64
	}{
		{"policy.opex_per_hour", p.OpexPerHour},
		{"policy.volatility_index", p.VolatilityIndex},
		{"policy.focus_hours", p.FocusHours},
		{"policy.capital_baseline", p.CapitalBaseline},
	}
	for _, f := range positive {
		if math.IsNaN(f.value) || f.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %v", f.key, f.value))
		}
	}
	if p.LowRiskThreshold < 0 {
		errs = append(errs, fmt.Sprintf("policy.low_risk_threshold must be non-negative, got %v", p.LowRiskThreshold))
	}
	if p.MitigatedCOFactor < 0 || p.InitialCOFactor < 0 {
		errs = append(errs, "policy co factors must be non-negative")
	}
	if p.SealLength <= 0 {
		errs = append(errs, fmt.Sprintf("policy.seal_length must be positive, got %d", p.SealLength))
	}

	if err := cfg.Entropy.Validate(); err != nil {
		errs = append(errs, "entropy: "+err.Error())
	}

	if cfg.Notion.PageSize < 1 || cfg.Notion.PageSize > 100 {
		errs = append(errs, fmt.Sprintf("notion.page_size %d is invalid, must be between 1 and 100", cfg.Notion.PageSize))
	}
	if cfg.Notion.RequestTimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("notion.request_timeout_ms must be non-negative, got %d", cfg.Notion.RequestTimeoutMs))
	}

	for i, e := range cfg.Expenses {
		if e.Amount <= 0 {
			errs = append(errs, fmt.Sprintf("expenses[%d].amount must be positive, got %v", i, e.Amount))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ParseLogLevel maps a log_level value to a slog level. Unknown values map
// to info.
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
