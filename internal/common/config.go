package common

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is picked up from the working directory when no --config is given.
const DefaultConfigFile = "oilreport.toml"

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Report      ReportConfig  `toml:"report"`
	Crude       CrudeConfig   `toml:"crude"`
	EIA         EIAConfig     `toml:"eia"`
	Bunker      BunkerConfig  `toml:"bunker"`
	Mail        MailConfig    `toml:"mail"`
	HTTP        HTTPConfig    `toml:"http"`
	Logging     LoggingConfig `toml:"logging"`

	envErrors []string // Environment values that could not be parsed
}

type ReportConfig struct {
	Days       int    `toml:"days" validate:"min=1,max=31"`
	Mode       string `toml:"mode" validate:"oneof=business-days calendar-days"`
	Subject    string `toml:"subject" validate:"required"`  // Email subject line
	DryRun     bool   `toml:"dry_run"`                      // Print only, never send
	LabelWidth int    `toml:"label_width" validate:"min=1"` // Row label column width
	ValueWidth int    `toml:"value_width" validate:"min=1"` // Per-date value column width
}

type CrudeConfig struct {
	WTISeries    string `toml:"wti_series" validate:"required"`   // EIA series code for WTI Cushing spot
	BrentSeries  string `toml:"brent_series" validate:"required"` // EIA series code for Brent spot
	LookbackDays int    `toml:"lookback_days" validate:"min=30"`  // Request window reaching back from today
	Reconcile    string `toml:"reconcile" validate:"oneof=tail-fill index-by-date"`
}

type EIAConfig struct {
	APIKey    string `toml:"api_key" validate:"required"`
	BaseURL   string `toml:"base_url" validate:"required,url"`
	RateLimit string `toml:"rate_limit"` // Minimum time between requests, e.g. "200ms"
}

type BunkerConfig struct {
	Port        string `toml:"port" validate:"required"`                // Port row to read, matched case-insensitively
	URL         string `toml:"url" validate:"required,url"`             // Price table page
	PortURL     string `toml:"port_url" validate:"omitempty,url"`       // Port-specific page for the pattern strategy
	Strategy    string `toml:"strategy" validate:"oneof=table pattern"` // "table" or "pattern"
	Render      string `toml:"render" validate:"oneof=http browser"`    // "http" or "browser" (headless Chrome)
	BrowserWait string `toml:"browser_wait"`                            // Time to let scripts settle before capture
	RateLimit   string `toml:"rate_limit"`                              // Minimum time between page requests, e.g. "1s"
}

type MailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host" validate:"required"`
	Port     int    `toml:"port" validate:"min=1,max=65535"`
	Username string `toml:"username" validate:"required"`
	Password string `toml:"password" validate:"required"`
	From     string `toml:"from" validate:"required,email"`
	To       string `toml:"to" validate:"required,email"`
	Auth     string `toml:"auth" validate:"oneof=login plain"` // Office 365 relays only accept LOGIN
}

type HTTPConfig struct {
	RequestTimeout string `toml:"request_timeout"` // Per-request timeout, e.g. "30s"
	UserAgent      string `toml:"user_agent"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Report: ReportConfig{
			Days:       DefaultWindowDays,
			Mode:       string(WindowBusinessDays),
			Subject:    "Daily Oil and Bunker Prices Report",
			LabelWidth: 35,
			ValueWidth: 6,
		},
		Crude: CrudeConfig{
			WTISeries:    "RWTC",
			BrentSeries:  "RBRTE",
			LookbackDays: 30,
			Reconcile:    "tail-fill",
		},
		EIA: EIAConfig{
			BaseURL:   "https://api.eia.gov/v2",
			RateLimit: "200ms",
		},
		Bunker: BunkerConfig{
			Port:        "Singapore",
			URL:         "https://shipandbunker.com/prices",
			PortURL:     "https://shipandbunker.com/prices/apac/sea/sg-sin-singapore",
			Strategy:    "table",
			Render:      "http",
			BrowserWait: "3s",
			RateLimit:   "1s",
		},
		Mail: MailConfig{
			Enabled: true,
			Host:    "smtp.office365.com",
			Port:    587,
			Auth:    "login",
		},
		HTTP: HTTPConfig{
			RequestTimeout: "30s",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> files -> .env -> environment.
// Later files override earlier files. Missing files are an error; pass no
// paths to fall back to DefaultConfigFile when it exists.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	if len(paths) == 0 {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			paths = []string{DefaultConfigFile}
		}
	}

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing default .env is fine.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// envLookup returns the first non-empty value among the named variables.
func envLookup(names ...string) (string, bool) {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, true
		}
	}
	return "", false
}

// applyEnvOverrides applies environment variable overrides to config.
// OILREPORT_* names win over the bare names used by older deployments.
func applyEnvOverrides(config *Config) {
	if env, ok := envLookup("OILREPORT_ENV", "GO_ENV"); ok {
		config.Environment = env
	}

	// Report window
	if days, ok := envLookup("OILREPORT_REPORT_DAYS"); ok {
		if d, err := strconv.Atoi(days); err == nil {
			config.Report.Days = d
		} else {
			config.envErrors = append(config.envErrors, "OILREPORT_REPORT_DAYS (integer)")
		}
	}
	if mode, ok := envLookup("OILREPORT_REPORT_MODE"); ok {
		config.Report.Mode = mode
	}
	if subject, ok := envLookup("OILREPORT_REPORT_SUBJECT"); ok {
		config.Report.Subject = subject
	}

	// Crude series
	if series, ok := envLookup("OILREPORT_CRUDE_WTI_SERIES"); ok {
		config.Crude.WTISeries = series
	}
	if series, ok := envLookup("OILREPORT_CRUDE_BRENT_SERIES"); ok {
		config.Crude.BrentSeries = series
	}
	if reconcile, ok := envLookup("OILREPORT_CRUDE_RECONCILE"); ok {
		config.Crude.Reconcile = reconcile
	}

	// EIA
	if key, ok := envLookup("OILREPORT_EIA_API_KEY", "EIA_API_KEY"); ok {
		config.EIA.APIKey = key
	}
	if baseURL, ok := envLookup("OILREPORT_EIA_BASE_URL"); ok {
		config.EIA.BaseURL = baseURL
	}

	// Bunker
	if port, ok := envLookup("OILREPORT_BUNKER_PORT"); ok {
		config.Bunker.Port = port
	}
	if url, ok := envLookup("OILREPORT_BUNKER_URL"); ok {
		config.Bunker.URL = url
	}
	if strategy, ok := envLookup("OILREPORT_BUNKER_STRATEGY"); ok {
		config.Bunker.Strategy = strategy
	}
	if render, ok := envLookup("OILREPORT_BUNKER_RENDER"); ok {
		config.Bunker.Render = render
	}
	if limit, ok := envLookup("OILREPORT_BUNKER_RATE_LIMIT"); ok {
		config.Bunker.RateLimit = limit
	}

	// Mail
	if enabled, ok := envLookup("OILREPORT_MAIL_ENABLED"); ok {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Mail.Enabled = b
		} else {
			config.envErrors = append(config.envErrors, "OILREPORT_MAIL_ENABLED (boolean)")
		}
	}
	if host, ok := envLookup("OILREPORT_MAIL_HOST"); ok {
		config.Mail.Host = host
	}
	if port, ok := envLookup("OILREPORT_MAIL_PORT"); ok {
		if p, err := strconv.Atoi(port); err == nil {
			config.Mail.Port = p
		} else {
			config.envErrors = append(config.envErrors, "OILREPORT_MAIL_PORT (integer)")
		}
	}
	if username, ok := envLookup("OILREPORT_MAIL_USERNAME", "EMAIL_USERNAME"); ok {
		config.Mail.Username = username
	}
	if password, ok := envLookup("OILREPORT_MAIL_PASSWORD", "EMAIL_PASSWORD"); ok {
		config.Mail.Password = password
	}
	if from, ok := envLookup("OILREPORT_MAIL_FROM", "EMAIL_SENDER"); ok {
		config.Mail.From = from
	}
	if to, ok := envLookup("OILREPORT_MAIL_TO", "EMAIL_RECEIVER"); ok {
		config.Mail.To = to
	}

	// HTTP
	if timeout, ok := envLookup("OILREPORT_HTTP_REQUEST_TIMEOUT"); ok {
		config.HTTP.RequestTimeout = timeout
	}
	if userAgent, ok := envLookup("OILREPORT_HTTP_USER_AGENT"); ok {
		config.HTTP.UserAgent = userAgent
	}

	// Logging
	if level, ok := envLookup("OILREPORT_LOG_LEVEL"); ok {
		config.Logging.Level = level
	}
	if output, ok := envLookup("OILREPORT_LOG_OUTPUT"); ok {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// FlagOverrides carries command-line values. Nil fields were not set.
type FlagOverrides struct {
	Days     *int
	Mode     *string
	NoEmail  *bool
	DryRun   *bool
	LogLevel *string
}

// ApplyFlagOverrides applies command-line flags (highest priority)
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.Days != nil {
		config.Report.Days = *flags.Days
	}
	if flags.Mode != nil {
		config.Report.Mode = *flags.Mode
	}
	if flags.NoEmail != nil && *flags.NoEmail {
		config.Mail.Enabled = false
	}
	if flags.DryRun != nil && *flags.DryRun {
		config.Report.DryRun = true
	}
	if flags.LogLevel != nil {
		config.Logging.Level = *flags.LogLevel
	}
}

// ValidationError lists every config key that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Fields, ", "))
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks required settings and enumerations. Mail credentials are
// only required when delivery is enabled and this is not a dry run.
func (c *Config) Validate() error {
	err := configValidator.Struct(c)
	mailOptional := !c.Mail.Enabled || c.Report.DryRun

	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if mailOptional && strings.HasPrefix(fe.Namespace(), "Config.mail.") {
				continue
			}
			fields = append(fields, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
		}
	} else if err != nil {
		return fmt.Errorf("failed to validate configuration: %w", err)
	}

	for name, value := range map[string]string{
		"eia.rate_limit":       c.EIA.RateLimit,
		"bunker.browser_wait":  c.Bunker.BrowserWait,
		"bunker.rate_limit":    c.Bunker.RateLimit,
		"http.request_timeout": c.HTTP.RequestTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			fields = append(fields, fmt.Sprintf("%s (duration)", name))
		}
	}

	fields = append(fields, c.envErrors...)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return parseDurationOr(c.HTTP.RequestTimeout, 30*time.Second)
}

// EIARateLimit returns the minimum spacing between EIA requests. Zero disables limiting.
func (c *Config) EIARateLimit() time.Duration {
	return parseDurationOr(c.EIA.RateLimit, 0)
}

// BunkerRateLimit returns the minimum spacing between bunker page requests. Zero disables limiting.
func (c *Config) BunkerRateLimit() time.Duration {
	return parseDurationOr(c.Bunker.RateLimit, 0)
}

// BrowserWait returns how long the headless browser waits after navigation.
func (c *Config) BrowserWait() time.Duration {
	return parseDurationOr(c.Bunker.BrowserWait, 3*time.Second)
}

// WindowMode returns the parsed report window mode.
func (c *Config) WindowMode() (WindowMode, error) {
	return ParseWindowMode(c.Report.Mode)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// MaskSecret shows only the first and last four characters of a credential.
func MaskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
