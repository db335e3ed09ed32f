package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/checks"
	"github.com/qcc-tools/qcc/internal/config"
	"github.com/qcc-tools/qcc/internal/env"
	"github.com/qcc-tools/qcc/internal/hooks"
	"github.com/qcc-tools/qcc/internal/ledger"
	"github.com/qcc-tools/qcc/internal/scene"
	"github.com/qcc-tools/qcc/internal/version"
)

// newDoctorCommand creates the "doctor" subcommand that validates the project setup.
func newDoctorCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, catalogue, scene and publish history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, catalog, err := loadConfigFromCmd(cmd, opts)
			if err != nil {
				return err
			}
			logger.Info("doctor check ok", "check", "config", "root", cfg.Root, "scope", cfg.ReplaceScope)
			for _, key := range env.FromOS().WithPrefix(config.EnvPrefix) {
				logger.Info("environment override", "var", key)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := runDoctorChecks(ctx, logger, cfg, catalog, opts.Scene); err != nil {
				return err
			}

			logger.Info("doctor checks completed successfully")
			return nil
		},
	}
}

func runDoctorChecks(ctx context.Context, logger *slog.Logger, cfg *config.Config, catalog *config.Catalog, scenePath string) error {
	if logger == nil {
		logger = slog.Default()
	}
	var failed []string

	registry := checks.NewRegistry(cfg.DefaultCameras)
	for _, dept := range catalog.Departments {
		for _, name := range dept.Checks {
			if _, ok := registry.Lookup(name); !ok {
				logger.Warn("check not implemented, it will be skipped", "department", dept.Name, "check", name)
			}
		}
		logger.Info("doctor check ok", "check", "department", "department", dept.Name, "checks", len(dept.Checks))
	}

	if strings.TrimSpace(scenePath) != "" {
		if host, err := scene.Open(scenePath, logger); err != nil {
			logger.Error("doctor check failed: scene unreadable", "scene", scenePath, "error", err)
			failed = append(failed, "scene")
		} else {
			path, _ := host.CurrentPath(ctx)
			if _, err := version.ParseScoped(path, cfg.Scope); err != nil {
				logger.Warn("scene has no version token, publish will refuse it", "scene", path)
			}
			logger.Info("doctor check ok", "check", "scene", "nodes", len(host.Document().Nodes))
		}
	}

	if steps := cfg.Hooks.AfterPublish; len(steps) > 0 {
		if err := hooks.Validate(steps); err != nil {
			logger.Error("doctor check failed: hook template invalid", "error", err)
			failed = append(failed, "hooks")
		} else {
			logger.Info("doctor check ok", "check", "hooks", "afterPublish", len(steps))
		}
	}

	if err := checkLedger(ctx, cfg.Ledger); err != nil {
		logger.Error("doctor check failed: publish history unavailable", "ledger", cfg.Ledger, "error", err)
		failed = append(failed, "ledger")
	} else {
		logger.Info("doctor check ok", "check", "ledger", "path", cfg.Ledger)
	}

	if len(failed) > 0 {
		return fmt.Errorf("doctor checks failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func checkLedger(ctx context.Context, path string) error {
	l, err := ledger.Open(ctx, path)
	if err != nil {
		return err
	}
	if _, err := l.List(ctx, 1); err != nil {
		_ = l.Close()
		return err
	}
	return l.Close()
}
