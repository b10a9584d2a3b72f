package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/kudosly/internal/domain/digest"
)

func digestCmd(load loadFunc) *cobra.Command {
	var (
		at       string
		employee string
	)
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Generate weekly digests once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			when := time.Now().UTC()
			if at != "" {
				if when, err = time.Parse(time.DateOnly, at); err != nil {
					return fmt.Errorf("--at must be YYYY-MM-DD: %w", err)
				}
			}

			svc, err := buildService(ctx, cfg, false)
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}
			defer svc.Stop()

			if employee != "" {
				start, end := digest.WeekOf(when)
				d, err := svc.GenerateDigest(ctx, employee, start, end)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), d.Narrative)
				return nil
			}
			n, err := svc.RunWeeklyDigests(ctx, when)
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d digests for the week of %s\n", n, when.Format(time.DateOnly))
			return err
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "any day of the target week (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&employee, "employee", "", "generate only this employee's digest and print it")
	return cmd
}
