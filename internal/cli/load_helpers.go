package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qcc-tools/qcc/internal/checks"
	"github.com/qcc-tools/qcc/internal/config"
	"github.com/qcc-tools/qcc/internal/ledger"
	"github.com/qcc-tools/qcc/internal/publish"
	"github.com/qcc-tools/qcc/internal/qc"
	"github.com/qcc-tools/qcc/internal/scene"
)

// workspace bundles everything a command needs about the current project.
type workspace struct {
	cfg        *config.Config
	catalog    *config.Catalog
	registry   *checks.Registry
	host       *scene.FileHost
	department config.Department
	logger     *slog.Logger
}

// loadConfigFromCmd reads qcc.yaml and the department catalogue.
func loadConfigFromCmd(cmd *cobra.Command, opts *Options) (*config.Config, *config.Catalog, error) {
	cfg, err := config.Load(opts.ConfigPath, config.LoadOptions{
		Required: cmd.Flags().Changed("config") || envPresent("QCC_CONFIG"),
	})
	if err != nil {
		return nil, nil, err
	}
	catalog, err := config.LoadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, catalog, nil
}

// loadWorkspace loads config, opens the scene and selects the department.
func loadWorkspace(cmd *cobra.Command, opts *Options) (*workspace, error) {
	logger := LoggerFromContext(cmd.Context())

	cfg, catalog, err := loadConfigFromCmd(cmd, opts)
	if err != nil {
		return nil, err
	}

	host, err := openScene(opts.Scene, logger)
	if err != nil {
		return nil, err
	}

	dept, err := selectDepartment(catalog, cfg, opts.Department, opts.Scene, logger)
	if err != nil {
		return nil, err
	}

	return &workspace{
		cfg:        cfg,
		catalog:    catalog,
		registry:   checks.NewRegistry(cfg.DefaultCameras),
		host:       host,
		department: dept,
		logger:     logger,
	}, nil
}

func openScene(path string, logger *slog.Logger) (*scene.FileHost, error) {
	if strings.TrimSpace(path) == "" {
		logger.Warn("No scene given, using an untitled scene")
		return scene.NewUntitled(logger), nil
	}
	return scene.Open(path, logger)
}

func selectDepartment(catalog *config.Catalog, cfg *config.Config, name, scenePath string, logger *slog.Logger) (config.Department, error) {
	if strings.TrimSpace(name) != "" {
		dept, ok := catalog.Department(name)
		if !ok {
			return config.Department{}, fmt.Errorf("unknown department %q (available: %s)", name, strings.Join(catalog.Names(), ", "))
		}
		return dept, nil
	}

	dept, ok := catalog.DetectDepartment(scenePath, cfg.DepartmentPrefixes)
	switch {
	case ok:
		logger.Debug("department detected", "department", dept.Name)
	case scenePath == "":
		logger.Warn("Scene is untitled, using the first department", "department", dept.Name)
	default:
		logger.Info("No department prefix matched, using the first department", "department", dept.Name)
	}
	return dept, nil
}

// incrementer builds the publish incrementer acknowledging on the command output.
func (w *workspace) incrementer(cmd *cobra.Command) *publish.Incrementer {
	notifier := publish.NewWriterNotifier(cmd.OutOrStdout(), w.logger)
	return publish.NewIncrementer(w.host, notifier, w.cfg.Scope, w.logger)
}

// session prepares a QC session; recorder may be nil.
func (w *workspace) session(cmd *cobra.Command, recorder qc.Recorder) (*qc.Session, error) {
	return qc.NewSession(w.host, qc.Options{
		Department:  w.department,
		Catalog:     w.catalog,
		Registry:    w.registry,
		Incrementer: w.incrementer(cmd),
		Recorder:    recorder,
		Logger:      w.logger,
	})
}

// openLedger opens the publish history configured for the project.
func openLedger(ctx context.Context, cfg *config.Config) (*ledger.Ledger, error) {
	return ledger.Open(ctx, cfg.Ledger)
}
