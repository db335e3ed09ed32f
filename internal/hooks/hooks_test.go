package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcc-tools/qcc/internal/config"
	"github.com/qcc-tools/qcc/internal/logging"
)

func testContext(dir string) StepContext {
	return StepContext{
		Department:    "Modeling",
		SourcePath:    filepath.Join(dir, "mdl_chair_v001.ma"),
		PublishedPath: filepath.Join(dir, "mdl_chair_v002.ma"),
		Version:       "v002",
	}
}

func TestRunStepsRendersTemplatesAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "hook.txt")

	steps := []config.HookStep{{
		Name: "note",
		Run:  `echo "{{ base .PublishedPath }} $QCC_VERSION {{ .Department | toLower }}" > ` + shellQuote(out),
	}}
	require.NoError(t, NewExecutor(nil).RunSteps(context.Background(), steps, testContext(dir)))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "mdl_chair_v002.ma v002 modeling\n", string(raw))
}

func TestRunStepsWhen(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "skipped.txt")

	steps := []config.HookStep{{
		Name: "rigging-only",
		When: `{{ eq .Department "Rigging" }}`,
		Run:  "touch " + shellQuote(out),
	}}
	require.NoError(t, NewExecutor(nil).RunSteps(context.Background(), steps, testContext(dir)))
	assert.NoFileExists(t, out)
}

func TestRunStepsStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "after.txt")

	steps := []config.HookStep{
		{Name: "broken", Run: "exit 3"},
		{Name: "after", Run: "touch " + shellQuote(out)},
	}
	err := NewExecutor(nil).RunSteps(context.Background(), steps, testContext(dir))
	assert.ErrorContains(t, err, `hook "broken"`)
	assert.NoFileExists(t, out)

	steps[0].ContinueOnError = true
	require.NoError(t, NewExecutor(nil).RunSteps(context.Background(), steps, testContext(dir)))
	assert.FileExists(t, out)
}

func TestRunStepsTimeout(t *testing.T) {
	steps := []config.HookStep{{Run: "sleep 5", Timeout: "50ms"}}
	err := NewExecutor(nil).RunSteps(context.Background(), steps, testContext(t.TempDir()))
	assert.ErrorContains(t, err, `hook "hook-1"`)
}

func TestRunStepsTemplateErrors(t *testing.T) {
	steps := []config.HookStep{{Name: "typo", Run: "echo {{ .Shot }}"}}
	err := NewExecutor(nil).RunSteps(context.Background(), steps, testContext(t.TempDir()))
	assert.ErrorContains(t, err, "execute template")
}

func TestRunStepsLogsOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	steps := []config.HookStep{{Name: "announce", Run: "echo published {{ quote .Version }}"}}

	executor := NewExecutor(logging.NewLogger(&buf, logging.LevelInfo))
	require.NoError(t, executor.RunSteps(context.Background(), steps, testContext(t.TempDir())))

	assert.Contains(t, buf.String(), "hook=announce")
	assert.Contains(t, buf.String(), "published v002")
}

func TestRunStepsLogsUnterminatedOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	steps := []config.HookStep{
		{Name: "upload", Run: "printf 'uploaded {{ .Version }}'"},
		{Name: "partial-failure", Run: "printf 'half a line' >&2; exit 1", ContinueOnError: true},
	}

	executor := NewExecutor(logging.NewLogger(&buf, logging.LevelInfo))
	require.NoError(t, executor.RunSteps(context.Background(), steps, testContext(t.TempDir())))

	assert.Contains(t, buf.String(), "uploaded v002")
	assert.Contains(t, buf.String(), "half a line")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]config.HookStep{{Run: "cp {{ .PublishedPath }} {{ dir .SourcePath }}/latest.ma"}}))
	assert.ErrorContains(t, Validate([]config.HookStep{{Run: "echo {{ .Shot }}"}}), "execute template")
	assert.ErrorContains(t, Validate([]config.HookStep{{Run: "echo", When: "{{ if }}"}}), "parse template")
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
