// Package remedy maps diagnosed disease labels to treatment advice.
package remedy

import (
	_ "embed"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

// Fallback is returned for labels without an entry.
const Fallback = "No treatment information available. Consult an agricultural expert."

//go:embed remedies.yaml
var defaultRemedies []byte

// Entry is the advice for one label.
type Entry struct {
	Treatment  string   `yaml:"treatment" json:"treatment"`
	Prevention []string `yaml:"prevention,omitempty" json:"prevention,omitempty"`
}

// Table is an immutable label → advice mapping.
type Table struct {
	entries map[string]Entry
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultRemedies)
	if err != nil {
		// embedded data is covered by tests
		panic(err)
	}
	return t
}

// Parse reads a YAML remedy table.
func Parse(data []byte) (*Table, error) {
	entries := map[string]Entry{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.New(err).
			Component("remedy").
			Category(errors.CategoryConfiguration).
			Context("operation", "parse-remedies").
			Build()
	}
	for label, e := range entries {
		if e.Treatment == "" {
			return nil, errors.Newf("remedy for %q has no treatment", label).
				Component("remedy").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return &Table{entries: entries}, nil
}

// Load returns the built-in table merged with the override file at path.
// An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from settings
	if err != nil {
		return nil, errors.New(err).
			Component("remedy").
			Category(errors.CategoryFileIO).
			Context("operation", "read-remedies").
			Context("path", path).
			Build()
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	maps.Copy(t.entries, override.entries)
	return t, nil
}

// Lookup returns the treatment advice for label, or Fallback.
func (t *Table) Lookup(label string) string {
	if e, ok := t.entries[label]; ok {
		return e.Treatment
	}
	return Fallback
}

// Entry returns the full entry for label.
func (t *Table) Entry(label string) (Entry, bool) {
	e, ok := t.entries[label]
	return e, ok
}

// Labels returns the labels with advice, sorted.
func (t *Table) Labels() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
