// Package config contains the loader and strongly typed model for qcc.yaml
// and the department catalogues it points to.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	envparse "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/qcc-tools/qcc/internal/env"
	"github.com/qcc-tools/qcc/internal/version"
)

const (
	// DefaultPath is the project configuration file looked up when --config is not given.
	DefaultPath = "qcc.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "QCC_"
	// defaultLedger is the publish history database relative to the project root.
	defaultLedger = ".qcc/publishes.db"
	// defaultDebounce is the watch debounce used when none is configured.
	defaultDebounce = 500 * time.Millisecond
)

// Config is the project configuration after defaults and environment overrides.
type Config struct {
	// EnvFiles lists .env files loaded before environment overrides are applied.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// Departments is the path to departments.yml; empty uses the built-in catalogue.
	Departments string `yaml:"departments,omitempty" env:"DEPARTMENTS"`
	// Descriptions is the path to descriptions.yml; empty uses the built-in descriptions.
	Descriptions string `yaml:"descriptions,omitempty" env:"DESCRIPTIONS"`
	// DepartmentPrefixes maps a scene file name prefix to a department.
	DepartmentPrefixes map[string]string `yaml:"departmentPrefixes,omitempty"`
	// DefaultCameras lists node names ignored by every check.
	DefaultCameras []string `yaml:"defaultCameras,omitempty" env:"DEFAULT_CAMERAS" envSeparator:","`
	// ReplaceScope is "literal" or "filename", see version.Scope.
	ReplaceScope string `yaml:"replaceScope,omitempty" env:"REPLACE_SCOPE"`
	// Ledger is the path to the SQLite publish history.
	Ledger string `yaml:"ledger,omitempty" env:"LEDGER"`
	// Watch configures the watch command.
	Watch WatchConfig `yaml:"watch,omitempty"`
	// Hooks lists commands run around publishing.
	Hooks HookSet `yaml:"hooks,omitempty"`

	// Root is the directory relative paths are resolved against.
	Root string `yaml:"-"`
	// Scope is the parsed ReplaceScope.
	Scope version.Scope `yaml:"-"`
}

// WatchConfig holds settings of the watch command.
type WatchConfig struct {
	// Debounce collapses bursts of file events into one check run.
	Debounce time.Duration `yaml:"debounce,omitempty" env:"WATCH_DEBOUNCE"`
}

// HookSet describes hooks executed around publishing.
type HookSet struct {
	// AfterPublish runs once a scene has been saved under its next version.
	AfterPublish []HookStep `yaml:"afterPublish,omitempty"`
}

// HookStep describes a single shell command run as a hook.
type HookStep struct {
	// Name is the identifier used in logs.
	Name string `yaml:"name,omitempty"`
	// Run is a shell command template to execute.
	Run string `yaml:"run"`
	// When is a template expression that enables the hook.
	When string `yaml:"when,omitempty"`
	// ContinueOnError skips failures when set.
	ContinueOnError bool `yaml:"continueOnError,omitempty"`
	// Timeout is a duration string for the hook execution.
	Timeout string `yaml:"timeout,omitempty"`
}

// LoadOptions influences how the configuration is located and overridden.
type LoadOptions struct {
	// Required makes a missing config file an error.
	Required bool
	// Environ replaces the OS environment; nil uses env.FromOS.
	Environ env.Vars
}

// Load reads path (when present), loads its envFiles, applies QCC_* overrides
// and fills defaults.
func Load(path string, opts LoadOptions) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := &Config{Root: filepath.Dir(absPath)}

	raw, err := os.ReadFile(absPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !opts.Required:
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config %q: %w", absPath, err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", absPath, err)
		}
	}

	osVars := opts.Environ
	if osVars == nil {
		osVars = env.FromOS()
	}
	fileVars, err := env.LoadEnvFiles(cfg.Root, cfg.EnvFiles)
	if err != nil {
		return nil, err
	}
	// Process environment wins over .env files.
	merged := env.Merge(fileVars, osVars)

	if err := envparse.ParseWithOptions(cfg, envparse.Options{
		Prefix:      EnvPrefix,
		Environment: merged,
	}); err != nil {
		return nil, fmt.Errorf("apply %s* environment overrides: %w", EnvPrefix, err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	scope, err := version.ParseScope(c.ReplaceScope)
	if err != nil {
		return err
	}
	c.Scope = scope
	c.ReplaceScope = string(scope)

	if c.Ledger == "" {
		c.Ledger = defaultLedger
	}
	c.Ledger = c.resolve(c.Ledger)
	if c.Departments != "" {
		c.Departments = c.resolve(c.Departments)
	}
	if c.Descriptions != "" {
		c.Descriptions = c.resolve(c.Descriptions)
	}

	if len(c.DepartmentPrefixes) == 0 {
		c.DepartmentPrefixes = map[string]string{
			"mdl": "Modeling",
			"rig": "Rigging",
			"ani": "Animation",
		}
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = defaultDebounce
	}

	for i, step := range c.Hooks.AfterPublish {
		if strings.TrimSpace(step.Run) == "" {
			return fmt.Errorf("hooks.afterPublish[%d]: run is required", i)
		}
		if step.Timeout != "" {
			if _, err := time.ParseDuration(step.Timeout); err != nil {
				return fmt.Errorf("hooks.afterPublish[%d]: invalid timeout %q: %w", i, step.Timeout, err)
			}
		}
	}
	return nil
}

// resolve makes p absolute relative to the config directory.
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}
