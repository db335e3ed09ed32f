// Package scene contains the scene document model inspected by quality checks
// and the file-backed host that loads and saves it.
package scene

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ShapeMesh is the shape type of polygon meshes.
const ShapeMesh = "mesh"

// DefaultCameras lists the cameras every scene carries.
var DefaultCameras = []string{"persp", "top", "front", "side"}

// AnimatableAttributes lists keyable transform attributes in report order.
var AnimatableAttributes = []string{
	"translateX", "translateY", "translateZ",
	"rotateX", "rotateY", "rotateZ",
	"scaleX", "scaleY", "scaleZ",
	"visibility",
}

// Document is the scene graph: an ordered list of top-level transforms.
type Document struct {
	// Nodes are the top-level transforms (assemblies) in outliner order.
	Nodes []*Node `yaml:"nodes"`
}

// Node is a top-level transform with its shapes and animation data.
type Node struct {
	// Name is the unique node name.
	Name string `yaml:"name"`
	// Translate holds translateX/Y/Z.
	Translate []float64 `yaml:"translate,flow,omitempty"`
	// Rotate holds rotateX/Y/Z in degrees.
	Rotate []float64 `yaml:"rotate,flow,omitempty"`
	// Scale holds scaleX/Y/Z.
	Scale []float64 `yaml:"scale,flow,omitempty"`
	// Visibility is 1 when visible.
	Visibility *float64 `yaml:"visibility,omitempty"`
	// Shapes lists the shape nodes parented under the transform.
	Shapes []Shape `yaml:"shapes,omitempty"`
	// Keyframes maps an attribute name to its keyed frames.
	Keyframes map[string][]float64 `yaml:"keyframes,omitempty"`
	// Connections maps an attribute name to the plug driving it.
	Connections map[string]string `yaml:"connections,omitempty"`
}

// Shape is a shape node under a transform.
type Shape struct {
	// Name is the shape node name.
	Name string `yaml:"name"`
	// Type is the node type, e.g. "mesh", "camera", "nurbsCurve".
	Type string `yaml:"type"`
}

// Normalize fills defaulted transform values and validates vector sizes.
func (d *Document) Normalize() error {
	seen := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		if n == nil {
			return fmt.Errorf("node %d is empty", i)
		}
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("node %d has no name", i)
		}
		if _, dup := seen[n.Name]; dup {
			return fmt.Errorf("duplicate node name %q", n.Name)
		}
		seen[n.Name] = struct{}{}

		for attr := range n.Keyframes {
			if !slices.Contains(AnimatableAttributes, attr) {
				return fmt.Errorf("node %q: keyframes on unknown attribute %q", n.Name, attr)
			}
		}
		for attr := range n.Connections {
			if !slices.Contains(AnimatableAttributes, attr) {
				return fmt.Errorf("node %q: connection on unknown attribute %q", n.Name, attr)
			}
		}

		var err error
		if n.Translate, err = vec3(n.Name, "translate", n.Translate, 0); err != nil {
			return err
		}
		if n.Rotate, err = vec3(n.Name, "rotate", n.Rotate, 0); err != nil {
			return err
		}
		if n.Scale, err = vec3(n.Name, "scale", n.Scale, 1); err != nil {
			return err
		}
	}
	return nil
}

func vec3(node, field string, v []float64, def float64) ([]float64, error) {
	switch len(v) {
	case 0:
		return []float64{def, def, def}, nil
	case 3:
		return v, nil
	default:
		return nil, fmt.Errorf("node %q: %s needs 3 values, got %d", node, field, len(v))
	}
}

// Assemblies returns the names of all top-level transforms.
func (d *Document) Assemblies() []string {
	names := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		names = append(names, n.Name)
	}
	return names
}

// Node returns the node with the given name, or nil.
func (d *Document) Node(name string) *Node {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Delete removes the named node and reports whether it existed.
func (d *Document) Delete(name string) bool {
	for i, n := range d.Nodes {
		if n.Name == name {
			d.Nodes = slices.Delete(d.Nodes, i, i+1)
			return true
		}
	}
	return false
}

// IsMesh reports whether any shape under the node is a polygon mesh.
func (n *Node) IsMesh() bool {
	for _, s := range n.Shapes {
		if s.Type == ShapeMesh {
			return true
		}
	}
	return false
}

// HasForeignShape reports whether any shape under the node is not a mesh.
func (n *Node) HasForeignShape() bool {
	for _, s := range n.Shapes {
		if s.Type != ShapeMesh {
			return true
		}
	}
	return false
}

// Attr reads a scalar transform attribute such as "rotateY" or "visibility".
func (n *Node) Attr(attr string) (float64, error) {
	if attr == "visibility" {
		if n.Visibility == nil {
			return 1, nil
		}
		return *n.Visibility, nil
	}
	vec, axis, err := n.vector(attr)
	if err != nil {
		return 0, err
	}
	return vec[axis], nil
}

// SetAttr writes a scalar transform attribute.
func (n *Node) SetAttr(attr string, value float64) error {
	if attr == "visibility" {
		n.Visibility = &value
		return nil
	}
	vec, axis, err := n.vector(attr)
	if err != nil {
		return err
	}
	vec[axis] = value
	return nil
}

func (n *Node) vector(attr string) ([]float64, int, error) {
	if len(attr) < 2 {
		return nil, 0, fmt.Errorf("unknown attribute %s.%s", n.Name, attr)
	}
	base, axisName := attr[:len(attr)-1], attr[len(attr)-1]

	var vec []float64
	switch base {
	case "translate":
		vec = n.Translate
	case "rotate":
		vec = n.Rotate
	case "scale":
		vec = n.Scale
	default:
		return nil, 0, fmt.Errorf("unknown attribute %s.%s", n.Name, attr)
	}

	axis := strings.IndexByte("XYZ", axisName)
	if axis < 0 || len(vec) != 3 {
		return nil, 0, fmt.Errorf("unknown attribute %s.%s", n.Name, attr)
	}
	return vec, axis, nil
}

// AnimatedAttributes lists attributes carrying at least one keyframe, in
// AnimatableAttributes order.
func (n *Node) AnimatedAttributes() []string {
	var out []string
	for _, attr := range AnimatableAttributes {
		if len(n.Keyframes[attr]) > 0 {
			out = append(out, attr)
		}
	}
	return out
}

// CutKeys clears all keyframes of attr.
func (n *Node) CutKeys(attr string) {
	delete(n.Keyframes, attr)
	if len(n.Keyframes) == 0 {
		n.Keyframes = nil
	}
}

// IncomingConnection returns the plug driving attr. Keyed attributes are
// driven by their animation curve.
func (n *Node) IncomingConnection(attr string) (string, bool) {
	if src, ok := n.Connections[attr]; ok && strings.TrimSpace(src) != "" {
		return src, true
	}
	if len(n.Keyframes[attr]) > 0 {
		return n.Name + "_" + attr + ".output", true
	}
	return "", false
}

// Round2 rounds v to two decimals for reports.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
