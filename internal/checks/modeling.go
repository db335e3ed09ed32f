package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/qcc-tools/qcc/internal/scene"
)

// center requires meshes to sit at the world origin.
type center struct {
	filter
}

func (c *center) Name() string { return NameCenter }

func (c *center) Run(_ context.Context, doc *scene.Document) Result {
	var report []string
	for _, n := range c.meshes(doc) {
		pos, err := readAttrs(n, translateAttributes)
		if err != nil {
			report = append(report, "Center failed: "+err.Error())
			continue
		}
		if isZero(pos) {
			continue
		}
		report = append(report, fmt.Sprintf("Center failed: Object %s position is: %s", n.Name, formatVec(pos)))
	}
	return Result{Check: c.Name(), Status: statusOf(report), Report: report}
}

func (c *center) Fix(_ context.Context, doc *scene.Document) Result {
	var report []string
	for _, n := range c.meshes(doc) {
		if err := writeAttrs(n, translateAttributes, 0); err != nil {
			report = append(report, "Center failed: "+err.Error())
		}
	}
	return Result{Check: c.Name(), Status: statusOf(report), Report: report}
}

// freezeTransform requires meshes to carry identity rotation and scale.
type freezeTransform struct {
	filter
}

var freezeAttributes = append(append([]string{}, rotateAttributes...), scaleAttributes...)

func (c *freezeTransform) Name() string { return NameFreezeTransform }

func (c *freezeTransform) Run(_ context.Context, doc *scene.Document) Result {
	var report []string
	for _, n := range c.meshes(doc) {
		report = append(report, transformLines(n)...)
	}
	return Result{Check: c.Name(), Status: statusOf(report), Report: report}
}

// Fix freezes every mesh it can. Meshes with driven rotate or scale
// attributes are left untouched and reported.
func (c *freezeTransform) Fix(_ context.Context, doc *scene.Document) Result {
	var report []string
	for _, n := range c.meshes(doc) {
		var driven []string
		for _, attr := range freezeAttributes {
			if _, ok := n.IncomingConnection(attr); ok {
				driven = append(driven, attr)
			}
		}
		if len(driven) == 0 {
			if err := freeze(n); err != nil {
				report = append(report, "Freeze Transform failed: "+err.Error())
			}
			continue
		}
		report = append(report, transformLines(n)...)
		report = append(report, fmt.Sprintf(
			"Couldn't freeze transform on '%s' due to incoming connections (%s). Run the 'Animated Objects' check pass before this one.",
			n.Name, strings.Join(driven, ", "),
		))
	}
	return Result{Check: c.Name(), Status: statusOf(report), Report: report, Blocked: len(report) > 0}
}

// freeze bakes rotation and scale into the shape, leaving rotate at zero
// and scale at one.
func freeze(n *scene.Node) error {
	if err := writeAttrs(n, rotateAttributes, 0); err != nil {
		return err
	}
	return writeAttrs(n, scaleAttributes, 1)
}

func transformLines(n *scene.Node) []string {
	rot, err := readAttrs(n, rotateAttributes)
	if err != nil {
		return []string{"Freeze Transform failed: " + err.Error()}
	}
	scale, err := readAttrs(n, scaleAttributes)
	if err != nil {
		return []string{"Freeze Transform failed: " + err.Error()}
	}

	var lines []string
	if !isZero(rot) {
		lines = append(lines, fmt.Sprintf("Freeze Transform failed: Object %s rotation is: %s", n.Name, formatVec(rot)))
	}
	if !isOne(scale) {
		lines = append(lines, fmt.Sprintf("Freeze Transform failed: Object %s scale is: %s", n.Name, formatVec(scale)))
	}
	return lines
}

// animatedObjects requires meshes to carry no keyframes.
type animatedObjects struct {
	filter
}

func (c *animatedObjects) Name() string { return NameAnimatedObjects }

func (c *animatedObjects) Run(_ context.Context, doc *scene.Document) Result {
	var report []string
	for _, n := range c.meshes(doc) {
		attrs := n.AnimatedAttributes()
		if len(attrs) == 0 {
			continue
		}
		report = append(report, fmt.Sprintf(
			"Animated Objects failed: Object %s has keyframes on the following attributes: %s",
			n.Name, strings.Join(attrs, ", "),
		))
	}
	return Result{Check: c.Name(), Status: statusOf(report), Report: report}
}

func (c *animatedObjects) Fix(_ context.Context, doc *scene.Document) Result {
	for _, n := range c.meshes(doc) {
		for _, attr := range n.AnimatedAttributes() {
			n.CutKeys(attr)
		}
	}
	return Result{Check: c.Name(), Status: StatusPassed}
}

// sceneCleanup rejects top-level objects holding anything but meshes.
type sceneCleanup struct {
	filter
}

func (c *sceneCleanup) Name() string { return NameSceneCleanup }

func (c *sceneCleanup) illegal(doc *scene.Document) []string {
	var names []string
	for _, n := range c.candidates(doc) {
		if n.HasForeignShape() {
			names = append(names, n.Name)
		}
	}
	return names
}

func (c *sceneCleanup) Run(_ context.Context, doc *scene.Document) Result {
	var report []string
	if names := c.illegal(doc); len(names) > 0 {
		report = append(report, "Scene Cleanup failed: Scene has illegal objects: "+strings.Join(names, ", "))
	}
	return Result{Check: c.Name(), Status: statusOf(report), Report: report}
}

func (c *sceneCleanup) Fix(_ context.Context, doc *scene.Document) Result {
	for _, name := range c.illegal(doc) {
		doc.Delete(name)
	}
	return Result{Check: c.Name(), Status: StatusPassed}
}
