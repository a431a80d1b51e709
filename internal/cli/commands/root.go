// Package commands implements the searchmap command line
package commands

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/cli/ui"
	"github.com/conduit-lang/searchmap/internal/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

type globalOptions struct {
	configPath string
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "searchmap",
		Short: "Operate searchmap indexes and the change outbox",
		Long: color.CyanString(`searchmap - keeps search indexes in sync with object graphs

Entities declare their indexed fields and embedded associations with search tags.
Changes are recorded in a PostgreSQL outbox and replayed into bleve or Redis by
workers, which reindex every document embedding a changed entity.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./searchmap.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.noColor {
			color.NoColor = true
		}
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newOutboxCommand(opts))
	rootCmd.AddCommand(newSearchCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("searchmap version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// load reads the configuration and builds its logger, printing a formatted error on failure
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err, o.noColor || color.NoColor))
		return nil, nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
