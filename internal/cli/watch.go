package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/checks"
	"github.com/qcc-tools/qcc/internal/watch"
)

// newWatchCommand creates the "watch" subcommand that re-runs checks on every save.
func newWatchCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run the department checks every time the scene is saved",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.Scene) == "" {
				return fmt.Errorf("watch requires --scene or QCC_SCENE")
			}

			ws, err := loadWorkspace(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rerun := func(ctx context.Context) error {
				host, err := openScene(opts.Scene, ws.logger)
				if err != nil {
					return err
				}
				ws.host = host
				session, err := ws.session(cmd, nil)
				if err != nil {
					return err
				}
				results := session.Run(ctx)
				ws.logger.Info("Checks finished",
					"passed", countStatus(results, checks.StatusPassed),
					"failed", countStatus(results, checks.StatusFailed),
					"skipped", countStatus(results, checks.StatusSkipped),
				)
				if err := renderResults(cmd.OutOrStdout(), ws.department.Name, results); err != nil {
					return err
				}
				return renderSummary(cmd.OutOrStdout(), session)
			}

			// Initial pass so the first report does not wait for a save.
			if err := rerun(ctx); err != nil {
				return err
			}

			w, err := watch.New(opts.Scene, ws.cfg.Watch.Debounce, rerun, ws.logger)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				_ = w.Stop()
				return err
			}
			<-ctx.Done()
			return w.Stop()
		},
	}
}

func countStatus(results []checks.Result, status checks.Status) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}
