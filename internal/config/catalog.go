package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/departments.yml
var defaultDepartments []byte

//go:embed data/descriptions.yml
var defaultDescriptions []byte

// Department is a named, ordered checklist.
type Department struct {
	// Name is the department label, e.g. "Modeling".
	Name string
	// Checks lists check names in run order.
	Checks []string
}

// Catalog holds the departments in file order and the check descriptions.
type Catalog struct {
	Departments  []Department
	descriptions map[string]map[string][]string
}

// departmentList decodes a YAML mapping while keeping its key order.
type departmentList []Department

func (d *departmentList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: departments must be a mapping of name to check list", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var checks []string
		if err := value.Decode(&checks); err != nil {
			return fmt.Errorf("department %q: %w", key.Value, err)
		}
		*d = append(*d, Department{Name: key.Value, Checks: checks})
	}
	return nil
}

// LoadCatalog reads the department and description files configured in cfg,
// falling back to the built-in catalogue for each one left empty.
func LoadCatalog(cfg *Config) (*Catalog, error) {
	deptRaw, err := readOr(cfg.Departments, defaultDepartments)
	if err != nil {
		return nil, err
	}
	descRaw, err := readOr(cfg.Descriptions, defaultDescriptions)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(deptRaw, descRaw)
}

// ParseCatalog decodes departments.yml and descriptions.yml contents.
func ParseCatalog(departments, descriptions []byte) (*Catalog, error) {
	var list departmentList
	if err := yaml.Unmarshal(departments, &list); err != nil {
		return nil, fmt.Errorf("parse departments: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("parse departments: no department defined")
	}

	seen := make(map[string]struct{}, len(list))
	for _, d := range list {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("parse departments: empty department name")
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("parse departments: duplicate department %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}

	desc := make(map[string]map[string][]string)
	if len(descriptions) > 0 {
		if err := yaml.Unmarshal(descriptions, &desc); err != nil {
			return nil, fmt.Errorf("parse descriptions: %w", err)
		}
	}

	return &Catalog{Departments: list, descriptions: desc}, nil
}

// Department returns the department with the given name, ignoring case.
func (c *Catalog) Department(name string) (Department, bool) {
	for _, d := range c.Departments {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d, true
		}
	}
	return Department{}, false
}

// Names lists department names in catalogue order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.Departments))
	for _, d := range c.Departments {
		out = append(out, d.Name)
	}
	return out
}

// Description returns the description lines of a check within a department.
func (c *Catalog) Description(department, check string) []string {
	return c.descriptions[department][check]
}

// DetectDepartment picks the department from the scene file name prefix.
// An untitled scene or an unknown prefix selects the first department; ok
// reports whether a prefix matched.
func (c *Catalog) DetectDepartment(scenePath string, prefixes map[string]string) (Department, bool) {
	if scenePath == "" {
		return c.Departments[0], false
	}

	// Longest prefix first so "rigfx" beats "rig".
	keys := make([]string, 0, len(prefixes))
	for prefix := range prefixes {
		keys = append(keys, prefix)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	base := filepath.Base(scenePath)
	for _, prefix := range keys {
		if prefix == "" || !strings.HasPrefix(base, prefix) {
			continue
		}
		if d, ok := c.Department(prefixes[prefix]); ok {
			return d, true
		}
	}
	return c.Departments[0], false
}

func readOr(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue %q: %w", path, err)
	}
	return raw, nil
}
