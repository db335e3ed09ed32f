package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// baseEnv defines root CLI defaults sourced from QCC_* env vars.
type baseEnv struct {
	// ConfigPath is the qcc.yaml path from QCC_CONFIG.
	ConfigPath string `env:"QCC_CONFIG"`
	// Scene is the scene file from QCC_SCENE.
	Scene string `env:"QCC_SCENE"`
	// Department is the checklist name from QCC_DEPARTMENT.
	Department string `env:"QCC_DEPARTMENT"`
	// LogLevel is the logging level from QCC_LOG_LEVEL.
	LogLevel string `env:"QCC_LOG_LEVEL"`
}

// publishEnv captures QCC_* inputs for publish.
type publishEnv struct {
	// Force publishes despite failing checks from QCC_FORCE.
	Force bool `env:"QCC_FORCE"`
}

// historyEnv captures QCC_* inputs for history.
type historyEnv struct {
	// Limit caps listed records from QCC_HISTORY_LIMIT.
	Limit int `env:"QCC_HISTORY_LIMIT"`
}

// parseEnv fills target from QCC_* env vars via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}

// applyBaseEnv fills global flags the user did not set from QCC_* env vars.
func applyBaseEnv(cmd *cobra.Command, opts *Options) error {
	envCfg := baseEnv{}
	if err := parseEnv(&envCfg); err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("config") && envPresent("QCC_CONFIG") {
		opts.ConfigPath = envCfg.ConfigPath
	}
	if !flags.Changed("scene") && envPresent("QCC_SCENE") {
		opts.Scene = envCfg.Scene
	}
	if !flags.Changed("department") && envPresent("QCC_DEPARTMENT") {
		opts.Department = envCfg.Department
	}
	if !flags.Changed("log-level") && envPresent("QCC_LOG_LEVEL") {
		if err := flags.Set("log-level", envCfg.LogLevel); err != nil {
			return err
		}
	}
	return nil
}
