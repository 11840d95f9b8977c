package models

// PolicyConfig holds the tunable constants of the derivation chain.
type PolicyConfig struct {
	OpexPerHour       float64 `yaml:"opex_per_hour" mapstructure:"opex_per_hour"`
	VolatilityIndex   float64 `yaml:"volatility_index" mapstructure:"volatility_index"`
	FocusHours        float64 `yaml:"focus_hours" mapstructure:"focus_hours"`
	LowRiskThreshold  float64 `yaml:"low_risk_threshold" mapstructure:"low_risk_threshold"`
	CapitalBaseline   float64 `yaml:"capital_baseline" mapstructure:"capital_baseline"`
	MitigatedCOFactor float64 `yaml:"mitigated_co_factor" mapstructure:"mitigated_co_factor"`
	InitialCOFactor   float64 `yaml:"initial_co_factor" mapstructure:"initial_co_factor"`
	SealLength        int     `yaml:"seal_length" mapstructure:"seal_length"`
}

// NotionConfig configures the Notion task source. Token and DatabaseID fall
// back to the NOTION_TOKEN and NOTION_DATABASE_ID environment variables.
type NotionConfig struct {
	Token            string `yaml:"token,omitempty" mapstructure:"token"`
	DatabaseID       string `yaml:"database_id,omitempty" mapstructure:"database_id"`
	StatusProperty   string `yaml:"status_property" mapstructure:"status_property"`
	AuditableStatus  string `yaml:"auditable_status" mapstructure:"auditable_status"`
	SortProperty     string `yaml:"sort_property" mapstructure:"sort_property"`
	TitleProperty    string `yaml:"title_property" mapstructure:"title_property"`
	ValueProperty    string `yaml:"value_property" mapstructure:"value_property"`
	HoursProperty    string `yaml:"hours_property" mapstructure:"hours_property"`
	LatencyProperty  string `yaml:"latency_property" mapstructure:"latency_property"`
	PageSize         int    `yaml:"page_size" mapstructure:"page_size"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" mapstructure:"request_timeout_ms"`
}

// ExpenseConfig is an operating expense applied after the task batch.
type ExpenseConfig struct {
	Amount float64 `yaml:"amount" mapstructure:"amount"`
	Reason string  `yaml:"reason" mapstructure:"reason"`
}

// AlertsConfig holds the alert engine thresholds.
type AlertsConfig struct {
	MaxAverageLatencyMs float64 `yaml:"max_average_latency_ms" mapstructure:"max_average_latency_ms"`
	MinProfitMargin     float64 `yaml:"min_profit_margin" mapstructure:"min_profit_margin"`
	MaxRiskFactor       float64 `yaml:"max_risk_factor" mapstructure:"max_risk_factor"`
}

// NotificationsConfig configures outbound alert delivery.
type NotificationsConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url,omitempty" mapstructure:"slack_webhook_url"`
}

// MetricsConfig configures Prometheus telemetry export.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url,omitempty" mapstructure:"pushgateway_url"`
	Job            string `yaml:"job" mapstructure:"job"`
}

// AionConfig is the full configuration read from .aionconfig via Viper.
type AionConfig struct {
	LogLevel      string              `yaml:"log_level" mapstructure:"log_level"`
	Policy        PolicyConfig        `yaml:"policy" mapstructure:"policy"`
	Entropy       EntropicInputs      `yaml:"entropy" mapstructure:"entropy"`
	Notion        NotionConfig        `yaml:"notion" mapstructure:"notion"`
	TaskFile      string              `yaml:"task_file,omitempty" mapstructure:"task_file"`
	Expenses      []ExpenseConfig     `yaml:"expenses,omitempty" mapstructure:"expenses"`
	Alerts        AlertsConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics" mapstructure:"metrics"`
	JournalPath   string              `yaml:"journal_path,omitempty" mapstructure:"journal_path"`
}
