// Package ghoutput exports publish results as GitHub Actions step outputs.
package ghoutput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// EnvVar names the file GitHub Actions reads step outputs from.
const EnvVar = "GITHUB_OUTPUT"

// Path returns the output file from the environment, or "" outside Actions.
func Path() string {
	return strings.TrimSpace(os.Getenv(EnvVar))
}

// Write appends values to the file at path. An empty path is a no-op.
// Multi-line values use the heredoc form with a random delimiter.
func Write(path string, values map[string]string) error {
	if path == "" || len(values) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", EnvVar, err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := writeValue(f, key, values[key]); err != nil {
			return fmt.Errorf("write %s %q: %w", EnvVar, key, err)
		}
	}
	return nil
}

func writeValue(f *os.File, key, value string) error {
	if !strings.ContainsAny(value, "\r\n") {
		_, err := fmt.Fprintf(f, "%s=%s\n", key, value)
		return err
	}
	delimiter := "ghadelimiter_" + uuid.NewString()
	_, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
	return err
}
