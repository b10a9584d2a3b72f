package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/kudosly/internal/simulate"
)

// Default simulation settings.
const (
	defaultDeliveries = 200
	defaultEmployees  = 12
	defaultTimeout    = 10 * time.Second
)

func simulateCmd(load loadFunc) *cobra.Command {
	sc := simulate.Config{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Post signed synthetic webhooks to a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			sc.Secrets = webhookSecrets(cfg)
			stats, err := simulate.Run(ctx, sc)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sc.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&sc.Deliveries, "deliveries", defaultDeliveries, "number of webhooks to generate")
	f.IntVar(&sc.Employees, "employees", defaultEmployees, "size of the synthetic team")
	f.IntVar(&sc.Workers, "workers", runtime.NumCPU()*2, "concurrent submitters")
	f.Float64Var(&sc.DuplicateRatio, "duplicates", 0.1, "share of deliveries sent twice")
	f.DurationVar(&sc.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Uint64Var(&sc.Seed, "seed", uint64(time.Now().UnixNano()), "generator seed")
	f.StringVar(&sc.OutputFile, "output", "", "write generated deliveries to this JSON file")
	f.BoolVar(&sc.SkipDirectory, "skip-directory", false, "do not register the synthetic team")
	return cmd
}
