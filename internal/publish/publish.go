// Package publish increment-saves the current scene under its next version.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qcc-tools/qcc/internal/version"
)

// Host owns the current document path and persists the document.
type Host interface {
	// CurrentPath returns the path of the open scene; ok is false for an untitled scene.
	CurrentPath(ctx context.Context) (path string, ok bool)
	// SaveAs retargets the open scene to path and writes it. On failure the
	// host keeps its previous path.
	SaveAs(ctx context.Context, path string) error
}

// Notifier shows a message the user has to acknowledge.
type Notifier interface {
	Acknowledge(ctx context.Context, title, message string)
}

// UnsavedSceneError indicates the host has no path for the open scene.
type UnsavedSceneError struct{}

func (e *UnsavedSceneError) Error() string {
	return "scene needs to be saved"
}

// IsUnsavedScene reports whether err indicates an untitled scene.
func IsUnsavedScene(err error) bool {
	var target *UnsavedSceneError
	return errors.As(err, &target)
}

// Result describes a completed increment-save.
type Result struct {
	// SourcePath is the path the scene had before saving.
	SourcePath string
	// Path is the new path the scene was saved under.
	Path string
	// Version is the new version token, e.g. "v004".
	Version string
}

// Incrementer derives the next scene version and asks the host to save it.
type Incrementer struct {
	host     Host
	notifier Notifier
	scope    version.Scope
	logger   *slog.Logger
}

// NewIncrementer constructs an Incrementer. A nil notifier discards messages
// and a nil logger falls back to slog.Default.
func NewIncrementer(host Host, notifier Notifier, scope version.Scope, logger *slog.Logger) *Incrementer {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if scope == "" {
		scope = version.ScopeLiteral
	}
	return &Incrementer{
		host:     host,
		notifier: notifier,
		scope:    scope,
		logger:   logger,
	}
}

// Next computes the successor path of the open scene without saving.
func (inc *Incrementer) Next(ctx context.Context) (string, version.VersionedPath, error) {
	current, ok := inc.host.CurrentPath(ctx)
	if !ok || current == "" {
		return "", version.VersionedPath{}, &UnsavedSceneError{}
	}

	vp, err := version.ParseScoped(current, inc.scope)
	if err != nil {
		return "", version.VersionedPath{}, err
	}

	next, err := vp.Next()
	if err != nil {
		return "", version.VersionedPath{}, err
	}
	return next, vp, nil
}

// IncrementAndSave saves the open scene under its next version and returns the new path.
// Precondition failures notify the user and abort before any file operation.
func (inc *Incrementer) IncrementAndSave(ctx context.Context) (Result, error) {
	next, vp, err := inc.Next(ctx)
	switch {
	case IsUnsavedScene(err):
		inc.notifier.Acknowledge(ctx, "Warning", "Scene needs to be saved")
		return Result{}, err
	case version.IsNoVersionToken(err):
		var target *version.NoVersionTokenError
		errors.As(err, &target)
		inc.notifier.Acknowledge(ctx, "Warning", "No version found vXXX: "+target.Path)
		return Result{}, err
	case err != nil:
		return Result{}, err
	}

	inc.logger.Debug("incrementing scene version",
		"from", vp.FullPath,
		"to", next,
		"version", vp.Token,
		"scope", string(inc.scope),
	)

	if err := inc.host.SaveAs(ctx, next); err != nil {
		return Result{}, fmt.Errorf("save scene as %q: %w", next, err)
	}

	inc.notifier.Acknowledge(ctx, "Saved", "Scene saved at: "+next)
	inc.logger.Info("scene saved", "path", next)

	return Result{
		SourcePath: vp.FullPath,
		Path:       next,
		Version:    version.FormatToken(vp.Number + 1),
	}, nil
}

type discardNotifier struct{}

func (discardNotifier) Acknowledge(context.Context, string, string) {}
