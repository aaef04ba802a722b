// Package rules implements forg's rule engine: a small template language
// over file attributes, extracted metadata, and AI tags that expands to a
// destination path, plus a declarative YAML rule-set format (spec.md
// §4.7).
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/logger"
	"github.com/forgcli/forg/internal/model"
)

// Set is an ordered, compiled collection of rules.
type Set struct {
	rules      []model.Rule
	predicates []predicate // parallel to rules
}

// document mirrors schemas/rules.schema.json.
type document struct {
	Rules []struct {
		Name        string `yaml:"name"`
		When        string `yaml:"when"`
		Destination string `yaml:"destination"`
		Priority    int    `yaml:"priority"`
		StopOnMatch bool   `yaml:"stopOnMatch"`
	} `yaml:"rules"`
}

// Load reads a YAML rule-set file, ordering rules by descending priority
// (declaration order among equal priorities) and rejecting duplicate
// rule names.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "rules.Load", err)
	}
	return Parse(data)
}

// Parse compiles a YAML rule-set document already read into memory.
func Parse(data []byte) (*Set, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, forgerr.New(forgerr.InvalidInput, "rules.Parse", err)
	}

	seen := make(map[string]struct{}, len(doc.Rules))
	rs := make([]model.Rule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		if r.Name == "" {
			return nil, forgerr.Newf(forgerr.InvalidInput, "rules.Parse", "rule missing name")
		}
		if _, dup := seen[r.Name]; dup {
			return nil, forgerr.Newf(forgerr.InvalidInput, "rules.Parse", "duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		rs = append(rs, model.Rule{
			Name:        r.Name,
			Predicate:   r.When,
			Template:    r.Destination,
			Priority:    r.Priority,
			StopOnMatch: r.StopOnMatch,
		})
	}
	return New(rs)
}

// New compiles an in-memory rule list, rejecting duplicate names.
func New(rs []model.Rule) (*Set, error) {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if _, dup := seen[r.Name]; dup {
			return nil, forgerr.Newf(forgerr.InvalidInput, "rules.New", "duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	ordered := sortByPriority(rs)
	predicates := make([]predicate, len(ordered))
	for i, r := range ordered {
		p, err := parsePredicate(r.Predicate)
		if err != nil {
			return nil, forgerr.New(forgerr.InvalidInput, "rules.New", err)
		}
		predicates[i] = p
	}
	return &Set{rules: ordered, predicates: predicates}, nil
}

// Rules returns the compiled rule list in evaluation order.
func (s *Set) Rules() []model.Rule {
	out := make([]model.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Apply implements apply_rules(file, tags) -> new_path or empty (spec.md
// §4.7). Rules are evaluated in order; the first whose predicate matches
// has its template expanded. If expansion fails the rule is skipped, not
// aborted, and evaluation continues to the next rule. If no rule matches,
// the file's own path is returned unchanged.
func (s *Set) Apply(attrs Attrs) (string, error) {
	for i, r := range s.rules {
		if !s.predicates[i].matches(attrs) {
			continue
		}
		dest, err := expandTemplate(r.Template, attrs)
		if err != nil {
			logger.Warn("rules: skipping rule %q for %s: %v", r.Name, attrs.File.Path, err)
			continue
		}
		return dest, nil
	}
	return attrs.File.Path, nil
}

// Validate reports the first structural problem in a rule set: whatever
// New rejects, then any rule with an empty destination template.
func Validate(rs []model.Rule) error {
	_, err := New(rs)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if r.Template == "" {
			return fmt.Errorf("rules: rule %q has empty destination template", r.Name)
		}
	}
	return nil
}
