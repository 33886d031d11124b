package main

import (
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/crisislens-service/internal/analysis"
	"github.com/couchcryptid/crisislens-service/internal/config"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

// rootOptions holds global CLI flags.
type rootOptions struct {
	offline  bool
	logLevel string
}

// cliContext carries initialized dependencies through the command tree.
type cliContext struct {
	cfg    *config.Config
	logger *slog.Logger
	lex    *lexicon.Lexicon
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cli := &cliContext{}

	cmd := &cobra.Command{
		Use:   "crisislens",
		Short: "Analyze crisis reports from the command line",
		Long: "crisislens runs the crisis analysis stack over reports given on the command line,\n" +
			"on stdin or in JSON lines files, and prints one analysis record per report.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.init(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.offline, "offline", false, "disable the neural scorer, Gemini and Mapbox")
	pf.StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(
		newAnalyzeCmd(cli),
		newBatchCmd(cli),
		newLexiconCmd(cli),
	)
	return cmd
}

// init loads configuration and the lexicon. Logs go to stderr so stdout
// carries only records.
func (c *cliContext) init(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.offline {
		cfg.NeuralEndpoint = ""
		cfg.GeminiEnabled = false
		cfg.MapboxEnabled = false
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	lex, err := analysis.LoadLexicon(cfg)
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}

	c.cfg = cfg
	c.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)
	c.lex = lex
	return nil
}

// analyzer builds an Analyzer with metrics on a private registry; the CLI
// does not expose them.
func (c *cliContext) analyzer() (*analysis.Analyzer, error) {
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	collab := analysis.NewCollaborators(c.cfg, metrics, c.logger)
	return analysis.Build(c.cfg, c.lex, collab, clockwork.NewRealClock(), metrics, c.logger)
}
