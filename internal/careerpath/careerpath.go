// Package careerpath maps job category tags onto canonical career paths.
package careerpath

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed paths.yaml
var defaultTable []byte

type Path struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type Table struct {
	Paths []Path `yaml:"paths"`

	byName map[string]Path
}

// Default is the built-in table. It panics only if the embedded file is broken.
var Default = mustParse(defaultTable)

func mustParse(data []byte) *Table {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse loads a table from YAML.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse career path table: %w", err)
	}
	if len(t.Paths) == 0 {
		return nil, fmt.Errorf("career path table is empty")
	}

	t.byName = make(map[string]Path, len(t.Paths))
	for i, p := range t.Paths {
		name := normalize(p.Name)
		if name == "" {
			return nil, fmt.Errorf("career path #%d has no name", i)
		}
		keywords := make([]string, 0, len(p.Keywords)+1)
		keywords = append(keywords, name)
		for _, kw := range p.Keywords {
			if kw = normalize(kw); kw != "" && kw != name {
				keywords = append(keywords, kw)
			}
		}
		p.Name = name
		p.Keywords = keywords
		t.Paths[i] = p
		t.byName[name] = p
	}

	return &t, nil
}

// Matches reports whether a single category tag belongs to the user path.
// Unknown paths fall back to matching on the path name itself.
func (t *Table) Matches(category, userPath string) bool {
	tag := normalize(category)
	name := normalize(userPath)
	if tag == "" || name == "" {
		return false
	}

	p, ok := t.byName[name]
	if !ok {
		return strings.Contains(tag, name)
	}

	for _, kw := range p.Keywords {
		if strings.Contains(tag, kw) {
			return true
		}
	}
	return false
}

// MatchAny reports whether the tag belongs to any of the user paths.
func (t *Table) MatchAny(category string, userPaths []string) bool {
	for _, p := range userPaths {
		if t.Matches(category, p) {
			return true
		}
	}
	return false
}

// FirstMatch returns the first user path (in the user's order) that any of
// the categories belong to, or "".
func (t *Table) FirstMatch(categories, userPaths []string) string {
	for _, p := range userPaths {
		for _, c := range categories {
			if t.Matches(c, p) {
				return p
			}
		}
	}
	return ""
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
