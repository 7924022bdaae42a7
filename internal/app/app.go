package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/common"
	"github.com/ternarybob/oilreport/internal/eia"
	"github.com/ternarybob/oilreport/internal/httpclient"
	"github.com/ternarybob/oilreport/internal/models"
	"github.com/ternarybob/oilreport/internal/services/bunker"
	"github.com/ternarybob/oilreport/internal/services/crude"
	"github.com/ternarybob/oilreport/internal/services/mailer"
	"github.com/ternarybob/oilreport/internal/services/report"
)

// App holds all application components and dependencies for one report run
type App struct {
	Config *common.Config
	Logger arbor.ILogger
	RunID  string

	WindowMode      common.WindowMode
	CrudeService    *crude.Service
	BunkerExtractor bunker.Extractor
	Formatter       report.Formatter
	MailerService   *mailer.Service

	output     io.Writer
	now        func() time.Time
	httpClient *http.Client
	sender     mailer.Sender
	fetcher    bunker.PageFetcher
}

// Option customises App construction.
type Option func(*App)

// WithOutput sets where the rendered report is printed. Default os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.output = w
	}
}

// WithClock sets the clock used for the report window.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithHTTPClient sets the client used for EIA and page requests.
func WithHTTPClient(client *http.Client) Option {
	return func(a *App) {
		a.httpClient = client
	}
}

// WithSender replaces the SMTP sender.
func WithSender(sender mailer.Sender) Option {
	return func(a *App) {
		a.sender = sender
	}
}

// WithPageFetcher replaces the bunker page fetcher.
func WithPageFetcher(fetcher bunker.PageFetcher) Option {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// New initializes the application. Errors are configuration errors.
func New(cfg *common.Config, logger arbor.ILogger, opts ...Option) (*App, error) {
	runID := common.NewRunID()
	a := &App{
		Config: cfg,
		Logger: logger.WithCorrelationId(runID),
		RunID:  runID,
		output: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mode, err := cfg.WindowMode()
	if err != nil {
		return nil, err
	}
	a.WindowMode = mode

	if err := a.initServices(); err != nil {
		return nil, err
	}

	return a, nil
}

// initServices builds every component from configuration.
func (a *App) initServices() error {
	cfg := a.Config
	timeout := cfg.RequestTimeout()

	if a.httpClient == nil {
		a.httpClient = httpclient.NewDefaultHTTPClient(timeout)
	}

	// 1. Crude prices
	policy, err := crude.ParsePolicy(cfg.Crude.Reconcile)
	if err != nil {
		return err
	}
	eiaClient := eia.NewClient(cfg.EIA.APIKey,
		eia.WithBaseURL(cfg.EIA.BaseURL),
		eia.WithHTTPClient(a.httpClient),
		eia.WithLogger(a.Logger),
		eia.WithRateLimit(cfg.EIARateLimit()),
	)
	a.CrudeService = crude.NewService(eiaClient, crude.Config{
		Policy:       policy,
		LookbackDays: cfg.Crude.LookbackDays,
		Timeout:      timeout,
		Now:          a.now,
	}, a.Logger)

	// 2. Bunker prices
	if a.fetcher == nil {
		if cfg.Bunker.Render == "browser" {
			a.fetcher = bunker.NewBrowserPageFetcher(cfg.HTTP.UserAgent, cfg.BrowserWait(), a.Logger)
		} else {
			a.fetcher = bunker.NewHTTPPageFetcher(a.httpClient, cfg.HTTP.UserAgent, cfg.BunkerRateLimit())
		}
	}
	extractorTimeout := timeout
	if cfg.Bunker.Render == "browser" {
		extractorTimeout += cfg.BrowserWait()
	}
	a.BunkerExtractor, err = bunker.NewExtractor(a.fetcher, bunker.ExtractorConfig{
		Strategy: bunker.Strategy(cfg.Bunker.Strategy),
		URL:      cfg.Bunker.URL,
		PortURL:  cfg.Bunker.PortURL,
		Port:     cfg.Bunker.Port,
		Timeout:  extractorTimeout,
	}, a.Logger)
	if err != nil {
		return err
	}

	// 3. Formatter
	a.Formatter = report.NewFormatter(cfg.Report.LabelWidth, cfg.Report.ValueWidth)

	// 4. Mail
	if a.sender == nil {
		a.sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Auth:     cfg.Mail.Auth,
			Timeout:  timeout,
		}, nil)
	}
	a.MailerService = mailer.NewService(a.sender, mailer.Config{
		From: cfg.Mail.From,
		To:   cfg.Mail.To,
	}, a.Logger)

	return nil
}

// Result describes one completed run.
type Result struct {
	RunID     string
	Report    models.Report
	Text      string
	Emailed   bool
	EmailSent bool
}

// Run fetches, renders, prints and mails the report. Upstream failures
// show up as N/A values; Run itself does not fail.
func (a *App) Run(ctx context.Context) Result {
	cfg := a.Config
	dates := common.ReportWindow(a.now(), cfg.Report.Days, a.WindowMode)

	a.Logger.Info().
		Strs("dates", models.Report{Dates: dates}.DateLabels()).
		Str("mode", string(a.WindowMode)).
		Msg("Starting oil price report")

	var (
		wti, brent models.PriceSeries
		prices     models.BunkerPriceSet
	)
	if failed := common.RunSteps(a.Logger,
		common.Step{Name: "wti", Fn: func() { wti = a.CrudeService.FetchSeries(ctx, cfg.Crude.WTISeries, dates) }},
		common.Step{Name: "brent", Fn: func() { brent = a.CrudeService.FetchSeries(ctx, cfg.Crude.BrentSeries, dates) }},
		common.Step{Name: "bunker", Fn: func() { prices = a.BunkerExtractor.Extract(ctx, dates) }},
	); len(failed) > 0 {
		a.Logger.Warn().Strs("steps", failed).Msg("Some fetch steps failed, reporting N/A")
	}

	rep := report.BuildReport(dates, wti, brent, prices, cfg.Bunker.Port)
	text := a.Formatter.Format(rep)

	if _, err := fmt.Fprintln(a.output, text); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to print report")
	}

	result := Result{RunID: a.RunID, Report: rep, Text: text}

	if cfg.Report.DryRun || !cfg.Mail.Enabled {
		a.Logger.Info().
			Bool("dry_run", cfg.Report.DryRun).
			Bool("mail_enabled", cfg.Mail.Enabled).
			Msg("Email delivery skipped")
		return result
	}

	result.Emailed = true
	result.EmailSent = a.MailerService.Notify(ctx, cfg.Report.Subject, text)
	return result
}
