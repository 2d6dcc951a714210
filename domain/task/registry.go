package task

import (
	"fmt"
	"sort"
)

// Registry maps each category to its template. Adding a category means
// registering a new template + derivation rule; generator and scorer control
// flow never changes.
type Registry struct {
	templates map[Category]Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[Category]Template)}
}

// Register adds a template. It rejects unknown categories, duplicate
// registrations, and invalid rubrics so the library is validated at startup.
func (r *Registry) Register(t Template) error {
	if !t.Category.Valid() {
		return fmt.Errorf("unknown category %q", t.Category)
	}
	if _, exists := r.templates[t.Category]; exists {
		return fmt.Errorf("duplicate template for category %q", t.Category)
	}
	if t.Render == nil || t.Derive == nil {
		return fmt.Errorf("template %q missing render or derive rule", t.Category)
	}
	if err := t.Rubric.Validate(); err != nil {
		return fmt.Errorf("template %q rubric: %w", t.Category, err)
	}
	if len(t.RequiredSlots()) == 0 {
		return fmt.Errorf("template %q declares no required slots", t.Category)
	}
	r.templates[t.Category] = t
	return nil
}

// Lookup resolves a category to its template. Pure table lookup.
func (r *Registry) Lookup(c Category) (Template, error) {
	t, ok := r.templates[c]
	if !ok {
		return Template{}, fmt.Errorf("no template registered for category %q", c)
	}
	return t, nil
}

// Categories returns the registered categories in fixed order.
func (r *Registry) Categories() []Category {
	out := make([]Category, 0, len(r.templates))
	for c := range r.templates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered templates.
func (r *Registry) Len() int { return len(r.templates) }
