// Command kudosly runs the effort-to-recognition service and its tooling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/kudosly/internal/config"
	"github.com/okian/kudosly/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the kudosly command tree. Without a subcommand it serves.
func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "kudosly",
		Short:         "Kudosly turns engineering effort into recognition",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (default $KUDOSLY_CONFIG)")

	load := func(ctx context.Context) (*config.Config, error) {
		var opts []config.LoadOption
		if cfgFile != "" {
			opts = append(opts, config.WithFile(cfgFile))
		}
		cfg, err := config.Load(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(root.ErrOrStderr())); err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
		// Apply configured log level (fallback to info on invalid input)
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
		return cfg, nil
	}

	serve := serveCmd(load)
	root.RunE = serve.RunE
	root.AddCommand(serve, digestCmd(load), simulateCmd(load))
	return root
}

type loadFunc func(ctx context.Context) (*config.Config, error)
