package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/checks"
)

// newRunCommand creates the "run" subcommand that runs the department checklist.
func newRunCommand(opts *Options) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every check of the department and show their status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			session, err := ws.session(cmd, nil)
			if err != nil {
				return err
			}

			results := session.Run(cmd.Context())
			if err := renderResults(cmd.OutOrStdout(), ws.department.Name, results); err != nil {
				return err
			}
			if err := renderSummary(cmd.OutOrStdout(), session); err != nil {
				return err
			}

			if strict && !session.AllPassed() {
				return fmt.Errorf("checks not passed: %d", len(session.Failing()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any check has not passed")
	return cmd
}

// newFixCommand creates the "fix" subcommand that applies one check's fix and saves the scene.
func newFixCommand(opts *Options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fix <check>",
		Short: "Fix the violations found by a check and save the scene in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			session, err := ws.session(cmd, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			session.Run(ctx)
			res, err := session.Fix(ctx, args[0])
			if err != nil {
				return err
			}

			report, err := session.Report(res.Check)
			if err != nil {
				return err
			}
			if err := renderReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}

			switch {
			case res.Status == checks.StatusSkipped:
				return nil
			case dryRun:
				ws.logger.Info("Dry run, scene not saved")
				return nil
			}
			if _, ok := ws.host.CurrentPath(ctx); !ok {
				ws.logger.Warn("Scene is untitled, fix not saved")
				return nil
			}
			if err := ws.host.Save(ctx); err != nil {
				return fmt.Errorf("save scene: %w", err)
			}
			path, _ := ws.host.CurrentPath(ctx)
			ws.logger.Info("Scene saved", "path", path, "check", res.Check)

			if res.Blocked {
				return fmt.Errorf("fix for %q was blocked", res.Check)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the result without saving the scene")
	return cmd
}

// newReportCommand creates the "report" subcommand that explains one check's result.
func newReportCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "report <check>",
		Short: "Show the description and report of a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			session, err := ws.session(cmd, nil)
			if err != nil {
				return err
			}

			session.Run(cmd.Context())
			report, err := session.Report(args[0])
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), report)
		},
	}
}
