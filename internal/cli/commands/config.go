package commands

import (
	"fmt"
	"net/url"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/searchmap/internal/cli/ui"
)

func newConfigCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after applying defaults, searchmap.yaml and
SEARCHMAP_* environment variables. Secrets are redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("backend.kind", cfg.Backend.Kind)
			table.AddRow("backend.bleve.path", valueOr(cfg.Backend.Bleve.Path, "(in memory)"))
			table.AddRow("backend.redis.addr", cfg.Backend.Redis.Addr)
			table.AddRow("backend.redis.password", redact(cfg.Backend.Redis.Password))
			table.AddRow("backend.redis.db", fmt.Sprint(cfg.Backend.Redis.DB))
			table.AddRow("backend.redis.key_prefix", cfg.Backend.Redis.KeyPrefix)
			table.AddRow("outbox.database_url", redactURL(cfg.Outbox.DatabaseURL))
			table.AddRow("outbox.table", cfg.Outbox.Table)
			table.AddRow("outbox.poll_interval", cfg.Outbox.PollInterval.String())
			table.AddRow("outbox.batch_size", fmt.Sprint(cfg.Outbox.BatchSize))
			table.AddRow("outbox.max_attempts", fmt.Sprint(cfg.Outbox.MaxAttempts))
			table.AddRow("log.level", cfg.Log.Level)
			table.AddRow("log.development", fmt.Sprint(cfg.Log.Development))
			table.Render()
			return nil
		},
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "xxxxx"
}

// redactURL hides the password of a database URL
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid)"
	}
	return u.Redacted()
}
