package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	govet "github.com/codacy/codacy-govet"
	"github.com/codacy/codacy-govet/internal/config"
	"github.com/codacy/codacy-govet/internal/deadline"
)

var (
	flagFormat     string
	flagNoColor    bool
	flagWorkers    int
	flagConfigPath string
	flagSourceRoot string
)

var rootCmd = &cobra.Command{
	Use:   "codacy-govet",
	Short: "Run Go analyzers over a source tree and report Codacy results",
	Long: `codacy-govet runs go vet passes, staticcheck, errcheck, ineffassign and bodyclose
over the Go files of a source tree. Rules and their parameters come from the
.codacyrc configuration or the cached rule manifest. Results are written to
standard output as one JSON object per line.

Environment:
  TIMEOUT  bound the run, e.g. "15 minutes" (exit status 2 when exceeded)
  DEBUG    log internal errors to standard output when true`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	RunE:          runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format of rule listings (terminal, json, sarif, markdown)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", config.DefaultConfigPath, "Run configuration file")
	rootCmd.PersistentFlags().StringVar(&flagSourceRoot, "src", config.DefaultSourceRoot, "Source root")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	env := config.FromEnv(os.LookupEnv)
	logger := config.NewLogger(env.Debug, cmd.OutOrStdout())

	a, err := govet.Prepare(cmd.OutOrStdout(),
		govet.WithConfigPath(flagConfigPath),
		govet.WithSourceRoot(flagSourceRoot),
		govet.WithWorkers(flagWorkers),
		govet.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	gov := deadline.New(logger)
	gov.Stderr = cmd.ErrOrStderr()
	gov.AtExit(a.Close)

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	return gov.Run(ctx, env.Timeout, func(ctx context.Context) error {
		_, err := a.Run(ctx)
		return err
	})
}

func contextWithInterrupt() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
