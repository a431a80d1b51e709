package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/searchmap/internal/backend/bleve"
	"github.com/conduit-lang/searchmap/internal/backend/redis"
	"github.com/conduit-lang/searchmap/internal/backend/sinks"
	"github.com/conduit-lang/searchmap/internal/cli/ui"
	"github.com/conduit-lang/searchmap/internal/config"
)

func newSearchCommand(opts *globalOptions) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "search <index> <query>",
		Short: "Query an index written by searchmap",
		Long: `Query an index. With the bleve backend the query uses the bleve query string
syntax and matching document ids are listed. With the redis backend the query is a
document id whose committed body is shown.`,
		Example: `  searchmap search customers 'Orders.Items.Product:tea'
  searchmap --config redis.yaml search customers 7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.Backend.Kind == config.BackendBleve && cfg.Backend.Bleve.Path == "" {
				err := fmt.Errorf("backend.bleve.path is not set; in-memory indexes cannot be searched from the CLI")
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err, color.NoColor))
				return err
			}

			sink, err := sinks.Open(cfg.Backend, logger)
			if err != nil {
				return err
			}
			defer sink.Close()

			index, query := args[0], args[1]
			out := cmd.OutOrStdout()
			switch s := sink.(type) {
			case *bleve.Sink:
				ids, err := s.Search(cmd.Context(), index, query, size)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprint(out, ui.Warning("no matching documents", color.NoColor))
					return nil
				}
				table := ui.NewTable(out, color.NoColor, "RANK", "ID")
				for i, id := range ids {
					table.AddRow(fmt.Sprint(i+1), id)
				}
				table.Render()
			case *redis.Sink:
				fields, ok, err := s.Document(cmd.Context(), index, query)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprint(out, ui.Warning(fmt.Sprintf("no document %s/%s", index, query), color.NoColor))
					return nil
				}
				keys := make([]string, 0, len(fields))
				for k := range fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				table := ui.NewKeyValueTable(out, color.NoColor)
				for _, k := range keys {
					table.AddRow(k, formatValue(fields[k]))
				}
				table.Render()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 10, "maximum number of results")
	return cmd
}

func formatValue(v interface{}) string {
	if list, ok := v.([]interface{}); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
