// Package qc runs a department checklist against an open scene and gates
// publishing on its results.
package qc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qcc-tools/qcc/internal/checks"
	"github.com/qcc-tools/qcc/internal/config"
	"github.com/qcc-tools/qcc/internal/ledger"
	"github.com/qcc-tools/qcc/internal/publish"
	"github.com/qcc-tools/qcc/internal/scene"
)

// NoErrors is the report shown for a check without violations.
const NoErrors = "No errors"

// Scene is an open scene: a publish host that exposes its document.
type Scene interface {
	publish.Host
	Document() *scene.Document
}

// Recorder stores completed publishes.
type Recorder interface {
	Record(ctx context.Context, r ledger.Record) (ledger.Record, error)
}

// PublishBlockedError is returned when checks are not all passed.
type PublishBlockedError struct {
	Failing []string
}

func (e *PublishBlockedError) Error() string {
	return "publish blocked, checks not passed: " + strings.Join(e.Failing, ", ")
}

// IsPublishBlocked reports whether err is a PublishBlockedError.
func IsPublishBlocked(err error) bool {
	var target *PublishBlockedError
	return errors.As(err, &target)
}

// UnknownCheckError is returned for a check name the department does not list.
type UnknownCheckError struct {
	Department string
	Check      string
}

func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("check %q is not part of department %q", e.Check, e.Department)
}

// Options configures a Session.
type Options struct {
	// Department is the checklist to run.
	Department config.Department
	// Catalog provides check descriptions; nil shows none.
	Catalog *config.Catalog
	// Registry resolves check implementations; nil uses the built-in checks.
	Registry *checks.Registry
	// Incrementer saves the scene on publish; nil disables publishing.
	Incrementer *publish.Incrementer
	// Recorder stores publishes; nil skips recording.
	Recorder Recorder
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Session holds the latest result of every check of one department.
type Session struct {
	scene       Scene
	department  config.Department
	catalog     *config.Catalog
	registry    *checks.Registry
	incrementer *publish.Incrementer
	recorder    Recorder
	logger      *slog.Logger

	results map[string]checks.Result
}

// NewSession prepares a session over s. Every check starts pending.
func NewSession(s Scene, opts Options) (*Session, error) {
	if s == nil {
		return nil, errors.New("qc: scene is required")
	}
	if opts.Department.Name == "" {
		return nil, errors.New("qc: department is required")
	}
	if opts.Registry == nil {
		opts.Registry = checks.NewRegistry(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	results := make(map[string]checks.Result, len(opts.Department.Checks))
	for _, name := range opts.Department.Checks {
		results[name] = checks.Result{Check: name, Status: checks.StatusPending}
	}

	return &Session{
		scene:       s,
		department:  opts.Department,
		catalog:     opts.Catalog,
		registry:    opts.Registry,
		incrementer: opts.Incrementer,
		recorder:    opts.Recorder,
		logger:      opts.Logger.With("department", opts.Department.Name),
		results:     results,
	}, nil
}

// Department returns the department being checked.
func (s *Session) Department() config.Department {
	return s.department
}

// Run runs every check of the department in catalogue order.
func (s *Session) Run(ctx context.Context) []checks.Result {
	doc := s.scene.Document()
	for _, name := range s.department.Checks {
		c, ok := s.registry.Lookup(name)
		if !ok {
			s.results[name] = s.skip(name)
			continue
		}
		s.results[name] = c.Run(ctx, doc)
	}
	return s.Results()
}

// Fix applies the fix of one check and records its new result. The scene is
// modified in memory only.
func (s *Session) Fix(ctx context.Context, name string) (checks.Result, error) {
	name, err := s.resolve(name)
	if err != nil {
		return checks.Result{}, err
	}

	c, ok := s.registry.Lookup(name)
	if !ok {
		res := s.skip(name)
		s.results[name] = res
		return res, nil
	}

	res := c.Fix(ctx, s.scene.Document())
	if res.Blocked {
		s.logger.Warn("Fix blocked", "check", name)
	}
	s.results[name] = res
	return res, nil
}

// Result returns the latest result of a check.
func (s *Session) Result(name string) (checks.Result, error) {
	name, err := s.resolve(name)
	if err != nil {
		return checks.Result{}, err
	}
	return s.results[name], nil
}

// Results returns the latest result of every check in catalogue order.
func (s *Session) Results() []checks.Result {
	out := make([]checks.Result, 0, len(s.department.Checks))
	for _, name := range s.department.Checks {
		out = append(out, s.results[name])
	}
	return out
}

// Report describes a check and lists its violations.
type Report struct {
	Check       string
	Status      checks.Status
	Description []string
	Lines       []string
}

// Report returns the description and report lines of a check, or NoErrors.
func (s *Session) Report(name string) (Report, error) {
	res, err := s.Result(name)
	if err != nil {
		return Report{}, err
	}
	lines := res.Report
	if len(lines) == 0 {
		lines = []string{NoErrors}
	}
	var desc []string
	if s.catalog != nil {
		desc = s.catalog.Description(s.department.Name, res.Check)
	}
	return Report{
		Check:       res.Check,
		Status:      res.Status,
		Description: desc,
		Lines:       lines,
	}, nil
}

// Failing lists checks that are neither passed nor skipped.
func (s *Session) Failing() []string {
	var out []string
	for _, res := range s.Results() {
		if res.Status != checks.StatusPassed && res.Status != checks.StatusSkipped {
			out = append(out, res.Check)
		}
	}
	return out
}

// AllPassed reports whether every implemented check has run and passed.
func (s *Session) AllPassed() bool {
	return len(s.Failing()) == 0
}

// Publish increment-saves the scene and records it. Unless force is set it
// refuses while any check has not passed.
func (s *Session) Publish(ctx context.Context, force bool) (publish.Result, error) {
	if s.incrementer == nil {
		return publish.Result{}, errors.New("qc: publishing is not configured")
	}
	if failing := s.Failing(); len(failing) > 0 {
		if !force {
			return publish.Result{}, &PublishBlockedError{Failing: failing}
		}
		s.logger.Warn("Publishing with failing checks", "checks", strings.Join(failing, ", "))
	}

	res, err := s.incrementer.IncrementAndSave(ctx)
	if err != nil {
		return publish.Result{}, err
	}

	if s.recorder != nil {
		rec, err := s.recorder.Record(ctx, ledger.Record{
			Department:    s.department.Name,
			SourcePath:    res.SourcePath,
			PublishedPath: res.Path,
			Version:       res.Version,
		})
		if err != nil {
			return res, fmt.Errorf("record publish: %w", err)
		}
		s.logger.Debug("Publish recorded", "id", rec.ID)
	}
	return res, nil
}

func (s *Session) skip(name string) checks.Result {
	s.logger.Warn("Check has no implementation, skipping", "check", name)
	return checks.Result{Check: name, Status: checks.StatusSkipped}
}

// resolve maps name to the department's spelling of the check.
func (s *Session) resolve(name string) (string, error) {
	for _, n := range s.department.Checks {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return n, nil
		}
	}
	return "", &UnknownCheckError{Department: s.department.Name, Check: name}
}
