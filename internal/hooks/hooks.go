// Package hooks runs the shell commands configured around publishing.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/qcc-tools/qcc/internal/config"
	"github.com/qcc-tools/qcc/internal/logging"
)

// StepContext is the data exposed to hook templates and environment.
type StepContext struct {
	Department    string
	SourcePath    string
	PublishedPath string
	Version       string
}

// environ returns the QCC_* variables describing the publish.
func (c StepContext) environ() []string {
	return []string{
		"QCC_DEPARTMENT=" + c.Department,
		"QCC_SOURCE_PATH=" + c.SourcePath,
		"QCC_PUBLISHED_PATH=" + c.PublishedPath,
		"QCC_VERSION=" + c.Version,
	}
}

// Executor runs hook steps through the shell.
type Executor struct {
	logger *slog.Logger
	shell  string
}

// NewExecutor constructs an Executor logging command output to logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger, shell: "sh"}
}

// RunSteps executes steps in order. A failing step stops the sequence
// unless it sets ContinueOnError.
func (e *Executor) RunSteps(ctx context.Context, steps []config.HookStep, sc StepContext) error {
	for i, step := range steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("hook-%d", i+1)
		}
		if err := e.runStep(ctx, name, step, sc); err != nil {
			if step.ContinueOnError {
				e.logger.Warn("hook failed, continuing", "hook", name, "error", err)
				continue
			}
			return fmt.Errorf("hook %q: %w", name, err)
		}
	}
	return nil
}

func (e *Executor) runStep(ctx context.Context, name string, step config.HookStep, sc StepContext) error {
	enabled, err := evaluateWhen(name, step.When, sc)
	if err != nil {
		return err
	}
	if !enabled {
		e.logger.Debug("hook disabled by when", "hook", name)
		return nil
	}

	script, err := render(name, step.Run, sc)
	if err != nil {
		return err
	}

	if step.Timeout != "" {
		timeout, err := time.ParseDuration(step.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", step.Timeout, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := e.logger.With("hook", name)
	logger.Info("running hook", "cmd", script)
	cmd := exec.CommandContext(ctx, e.shell, "-c", script)
	cmd.Env = append(os.Environ(), sc.environ()...)
	stdout := logging.NewWriter(logger)
	stderr := logging.NewWriter(logger)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second
	err = cmd.Run()
	stdout.Flush()
	stderr.Flush()
	return err
}

// evaluateWhen renders expr; empty output or anything but false/0/no enables the hook.
func evaluateWhen(name, expr string, sc StepContext) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	rendered, err := render(name+"-when", expr, sc)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(rendered)) {
	case "false", "0", "no":
		return false, nil
	default:
		return true, nil
	}
}

// Validate renders every step against a sample publish so template errors
// surface before the first real publish.
func Validate(steps []config.HookStep) error {
	sample := StepContext{
		Department:    "Modeling",
		SourcePath:    "/scenes/mdl_asset_v001.ma",
		PublishedPath: "/scenes/mdl_asset_v002.ma",
		Version:       "v002",
	}
	for i, step := range steps {
		if _, err := render(fmt.Sprintf("hook-%d", i+1), step.Run, sample); err != nil {
			return err
		}
		if _, err := evaluateWhen(fmt.Sprintf("hook-%d", i+1), step.When, sample); err != nil {
			return err
		}
	}
	return nil
}

func render(name, raw string, sc StepContext) (string, error) {
	tmpl, err := parse(name, raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, sc); err != nil {
		return "", fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

func parse(name, raw string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"base":    filepath.Base,
		"dir":     filepath.Dir,
		"toLower": strings.ToLower,
		"quote":   shellQuote,
	}).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}
	return tmpl, nil
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
