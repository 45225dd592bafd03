package composer

import (
	"sort"

	apperrors "github.com/plasmakit/imascompose/errors"
)

// Builder accumulates named spec registrations during process initialization
// and freezes them into an immutable Registry. Domain mappers register
// internal plumbing specs under underscore-prefixed segment names and public
// output fields under dotted schema paths.
type Builder struct {
	specs map[string]EntrySpec
	order []string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{specs: make(map[string]EntrySpec)}
}

// Register adds a named spec. It rejects empty or duplicate names and specs
// whose fields are inconsistent with their stage.
func (b *Builder) Register(name string, spec EntrySpec) error {
	if name == "" {
		return apperrors.InvalidSpec(name, "name must not be empty")
	}
	if _, exists := b.specs[name]; exists {
		return apperrors.DuplicateSpec(name)
	}
	if reason := spec.validate(); reason != "" {
		return apperrors.InvalidSpec(name, reason)
	}
	b.specs[name] = spec
	b.order = append(b.order, name)
	return nil
}

// MustRegister is Register for startup-time wiring; it panics on error.
func (b *Builder) MustRegister(name string, spec EntrySpec) {
	if err := b.Register(name, spec); err != nil {
		panic(err)
	}
}

// Build validates the upstream-reference graph (every referenced name exists,
// no cycles) and returns the frozen Registry. Validation uses Kahn's
// algorithm; a cycle fails with a CYCLIC_DEPENDENCY error naming its members.
func (b *Builder) Build() (*Registry, error) {
	for _, name := range b.order {
		for _, up := range b.specs[name].DependsOn {
			if _, ok := b.specs[up]; !ok {
				return nil, apperrors.UnknownUpstream(name, up)
			}
		}
	}

	// Build in-degree map and dependent adjacency over spec names.
	inDegree := make(map[string]int, len(b.specs))
	dependents := make(map[string][]string)
	for name := range b.specs {
		inDegree[name] = 0
	}
	for name, spec := range b.specs {
		for _, up := range spec.DependsOn {
			inDegree[name]++
			dependents[up] = append(dependents[up], name)
		}
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		name := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		visited++
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(b.specs) {
		var members []string
		for name, deg := range inDegree {
			if deg > 0 {
				members = append(members, name)
			}
		}
		sort.Strings(members)
		return nil, apperrors.CyclicDependency(members)
	}

	specs := make(map[string]EntrySpec, len(b.specs))
	for name, spec := range b.specs {
		specs[name] = spec
	}
	return &Registry{specs: specs}, nil
}

// Registry is the immutable mapping from spec name to EntrySpec. It is built
// once at startup and safe for unsynchronized concurrent reads; Resolve and
// Compose treat it as read-only context.
type Registry struct {
	specs map[string]EntrySpec
}

// Spec returns the spec registered under name.
func (r *Registry) Spec(name string) (EntrySpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the sorted names of all registered specs, internal plumbing
// included.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the sorted names of the computed, externally requestable
// output fields.
func (r *Registry) Paths() []string {
	var paths []string
	for name, spec := range r.specs {
		if spec.Stage == StageComputed {
			paths = append(paths, name)
		}
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered specs.
func (r *Registry) Len() int { return len(r.specs) }
