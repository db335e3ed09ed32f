// Package checks implements the scene quality checks and their automatic fixes.
package checks

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/qcc-tools/qcc/internal/scene"
)

// Status is the outcome of a check.
type Status string

const (
	// StatusPassed means no violation was found.
	StatusPassed Status = "passed"
	// StatusFailed means at least one violation was found or a fix could not be applied.
	StatusFailed Status = "failed"
	// StatusSkipped means no implementation exists for the check.
	StatusSkipped Status = "skipped"
	// StatusPending means the check has not run yet.
	StatusPending Status = "pending"
)

// Check names used in department catalogues.
const (
	NameAnimatedObjects = "Animated Objects"
	NameCenter          = "Center"
	NameFreezeTransform = "Freeze Transform"
	NameSceneCleanup    = "Scene Cleanup"
)

// Result is the outcome of running or fixing one check.
type Result struct {
	// Check is the check name.
	Check string
	// Status is the resulting status.
	Status Status
	// Report lists one line per violation.
	Report []string
	// Blocked is set when a fix could not be applied and the report must be kept.
	Blocked bool
}

// Check inspects a scene and can repair what it finds.
type Check interface {
	// Name returns the catalogue name of the check.
	Name() string
	// Run inspects doc without modifying it.
	Run(ctx context.Context, doc *scene.Document) Result
	// Fix repairs doc in place and reports what is left.
	Fix(ctx context.Context, doc *scene.Document) Result
}

// Registry maps catalogue names to check implementations.
type Registry struct {
	checks map[string]Check
}

// NewRegistry returns a registry holding the built-in checks. Nodes named in
// cameras are ignored by every check; nil selects scene.DefaultCameras.
func NewRegistry(cameras []string) *Registry {
	if cameras == nil {
		cameras = scene.DefaultCameras
	}
	f := filter{cameras: cameras}

	r := &Registry{checks: make(map[string]Check)}
	r.Register(&animatedObjects{filter: f})
	r.Register(&center{filter: f})
	r.Register(&freezeTransform{filter: f})
	r.Register(&sceneCleanup{filter: f})
	return r
}

// Register adds or replaces a check.
func (r *Registry) Register(c Check) {
	r.checks[c.Name()] = c
}

// Lookup returns the check registered under name.
func (r *Registry) Lookup(name string) (Check, bool) {
	c, ok := r.checks[name]
	return c, ok
}

// Names returns all registered check names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// filter selects the nodes a check looks at.
type filter struct {
	cameras []string
}

func (f filter) candidates(doc *scene.Document) []*scene.Node {
	var out []*scene.Node
	for _, name := range doc.Assemblies() {
		if slices.Contains(f.cameras, name) {
			continue
		}
		out = append(out, doc.Node(name))
	}
	return out
}

func (f filter) meshes(doc *scene.Document) []*scene.Node {
	var out []*scene.Node
	for _, n := range f.candidates(doc) {
		if n.IsMesh() {
			out = append(out, n)
		}
	}
	return out
}

var (
	translateAttributes = []string{"translateX", "translateY", "translateZ"}
	rotateAttributes    = []string{"rotateX", "rotateY", "rotateZ"}
	scaleAttributes     = []string{"scaleX", "scaleY", "scaleZ"}
)

// readAttrs reads attrs of n in order.
func readAttrs(n *scene.Node, attrs []string) ([]float64, error) {
	values := make([]float64, len(attrs))
	for i, attr := range attrs {
		v, err := n.Attr(attr)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// writeAttrs sets every attribute in attrs to value.
func writeAttrs(n *scene.Node, attrs []string, value float64) error {
	for _, attr := range attrs {
		if err := n.SetAttr(attr, value); err != nil {
			return err
		}
	}
	return nil
}

func statusOf(report []string) Status {
	if len(report) > 0 {
		return StatusFailed
	}
	return StatusPassed
}

// formatVec renders a transform vector as "x, y, z" rounded to two decimals.
func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(scene.Round2(x), 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func isOne(v []float64) bool {
	for _, x := range v {
		if x != 1 {
			return false
		}
	}
	return true
}
