package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ternarybob/oilreport/internal/common"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration with secrets masked",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"environment", config.Environment},
		{"report.days", fmt.Sprint(config.Report.Days)},
		{"report.mode", config.Report.Mode},
		{"report.subject", config.Report.Subject},
		{"crude.wti_series", config.Crude.WTISeries},
		{"crude.brent_series", config.Crude.BrentSeries},
		{"crude.reconcile", config.Crude.Reconcile},
		{"eia.api_key", common.MaskSecret(config.EIA.APIKey)},
		{"eia.base_url", config.EIA.BaseURL},
		{"bunker.port", config.Bunker.Port},
		{"bunker.url", config.Bunker.URL},
		{"bunker.strategy", config.Bunker.Strategy},
		{"bunker.render", config.Bunker.Render},
		{"bunker.rate_limit", config.Bunker.RateLimit},
		{"mail.enabled", fmt.Sprint(config.Mail.Enabled)},
		{"mail.host", fmt.Sprintf("%s:%d", config.Mail.Host, config.Mail.Port)},
		{"mail.username", config.Mail.Username},
		{"mail.password", common.MaskSecret(config.Mail.Password)},
		{"mail.from", config.Mail.From},
		{"mail.to", config.Mail.To},
		{"logging.level", config.Logging.Level},
		{"logging.output", strings.Join(config.Logging.Output, ",")},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		fmt.Printf("\n%v\n", err)
	}
	return nil
}
