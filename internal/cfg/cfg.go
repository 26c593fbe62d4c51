package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	ClaudeAPIKey          string
	ClaudeModel           string
	ClaudeThreshold       float64
	DatabaseURL           string
	CallbackURL           string
	SlackWebhookURL       string
	DeliverySeconds       int
	StatsWindowHours      int
	MaxRetries            int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on API requests (empty = auth disabled)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude auxiliary detector (empty = detector disabled)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.Float64Var(&c.ClaudeThreshold, "claude-threshold", 0.7, "minimum Claude confidence to raise an issue (0..1)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.CallbackURL, "callback-url", "", "HTTP endpoint that receives alert JSON on delivery")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for alert notifications")
	fs.IntVar(&c.DeliverySeconds, "delivery-seconds", 10, "seconds between alert delivery passes (1..3600)")
	fs.IntVar(&c.StatsWindowHours, "stats-window-hours", 24, "default reporting window for the stats endpoint (1..168)")
	fs.IntVar(&c.MaxRetries, "max-retries", 3, "delivery attempts before an alert is marked failed (1..10)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Claude model only matters when the detector is enabled
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	if c.ClaudeThreshold < 0 || c.ClaudeThreshold > 1 {
		errs = append(errs, fmt.Errorf("invalid CLAUDE_THRESHOLD %v (must be 0..1)", c.ClaudeThreshold))
	}

	if c.CallbackURL != "" {
		if u, err := url.Parse(c.CallbackURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid CALLBACK_URL %q (must be an absolute http(s) URL)", c.CallbackURL))
		}
	}

	if c.DeliverySeconds <= 0 || c.DeliverySeconds > 3600 {
		errs = append(errs, fmt.Errorf("invalid DELIVERY_SECONDS %d (must be 1..3600)", c.DeliverySeconds))
	}

	if c.StatsWindowHours <= 0 || c.StatsWindowHours > 168 {
		errs = append(errs, fmt.Errorf("invalid STATS_WINDOW_HOURS %d (must be 1..168)", c.StatsWindowHours))
	}

	if c.MaxRetries <= 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("invalid MAX_RETRIES %d (must be 1..10)", c.MaxRetries))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
