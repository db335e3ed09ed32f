package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/ghoutput"
	"github.com/qcc-tools/qcc/internal/hooks"
	"github.com/qcc-tools/qcc/internal/ledger"
	"github.com/qcc-tools/qcc/internal/publish"
	"github.com/qcc-tools/qcc/internal/qc"
)

// newPublishCommand creates the "publish" subcommand that increment-saves a scene once its checks pass.
func newPublishCommand(opts *Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Run the checks and increment-save the scene when all have passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			envCfg := publishEnv{}
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("force") && envPresent("QCC_FORCE") {
				force = envCfg.Force
			}

			ws, err := loadWorkspace(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			history, err := openLedger(ctx, ws.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = history.Close() }()

			session, err := ws.session(cmd, history)
			if err != nil {
				return err
			}

			session.Run(ctx)
			res, err := session.Publish(ctx, force)
			if qc.IsPublishBlocked(err) {
				_ = renderResults(cmd.OutOrStdout(), ws.department.Name, session.Results())
				return err
			}
			if err != nil {
				return err
			}
			return finishPublish(ctx, ws, res)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Publish even when checks have not passed")
	return cmd
}

// newIncrementCommand creates the "increment" subcommand that increment-saves without running checks.
func newIncrementCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "increment",
		Short: "Save the scene under its next version without running checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := ws.incrementer(cmd).IncrementAndSave(ctx)
			if err != nil {
				return err
			}

			if err := recordPublish(ctx, ws, res); err != nil {
				return err
			}
			return finishPublish(ctx, ws, res)
		},
	}
}

func recordPublish(ctx context.Context, ws *workspace, res publish.Result) error {
	history, err := openLedger(ctx, ws.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	_, err = history.Record(ctx, ledger.Record{
		Department:    ws.department.Name,
		SourcePath:    res.SourcePath,
		PublishedPath: res.Path,
		Version:       res.Version,
	})
	return err
}

// finishPublish exports the result and runs the afterPublish hooks.
func finishPublish(ctx context.Context, ws *workspace, res publish.Result) error {
	if err := exportResult(ws.logger, res); err != nil {
		return err
	}
	steps := ws.cfg.Hooks.AfterPublish
	if len(steps) == 0 {
		return nil
	}
	return hooks.NewExecutor(ws.logger).RunSteps(ctx, steps, hooks.StepContext{
		Department:    ws.department.Name,
		SourcePath:    res.SourcePath,
		PublishedPath: res.Path,
		Version:       res.Version,
	})
}

// exportResult hands the new path to CI through GITHUB_OUTPUT when running in Actions.
func exportResult(logger *slog.Logger, res publish.Result) error {
	path := ghoutput.Path()
	if path == "" {
		return nil
	}
	if err := ghoutput.Write(path, map[string]string{
		"published_path": res.Path,
		"version":        res.Version,
	}); err != nil {
		return err
	}
	logger.Debug("publish outputs written", "file", path)
	return nil
}
