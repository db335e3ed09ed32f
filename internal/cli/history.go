package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/ledger"
)

// newHistoryCommand creates the "history" subcommand that lists recorded publishes.
func newHistoryCommand(opts *Options) *cobra.Command {
	var (
		limit  int
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded publishes, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			envCfg := historyEnv{}
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") && envPresent("QCC_HISTORY_LIMIT") {
				limit = envCfg.Limit
			}

			cfg, _, err := loadConfigFromCmd(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			history, err := openLedger(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = history.Close() }()

			var records []ledger.Record
			if latest {
				if strings.TrimSpace(opts.Scene) == "" {
					return fmt.Errorf("--latest requires --scene")
				}
				scenePath, err := filepath.Abs(opts.Scene)
				if err != nil {
					return fmt.Errorf("resolve scene path: %w", err)
				}
				rec, ok, err := history.Latest(ctx, scenePath)
				if err != nil {
					return err
				}
				if ok {
					records = append(records, rec)
				}
			} else {
				records, err = history.List(ctx, limit)
				if err != nil {
					return err
				}
			}

			if len(records) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No publishes recorded")
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PUBLISHED\tVERSION\tDEPARTMENT\tPATH")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.PublishedAt.Format(time.RFC3339), r.Version, r.Department, r.PublishedPath)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records (0 lists all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "Show only the newest publish of the --scene asset")
	return cmd
}
