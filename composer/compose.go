package composer

import (
	apperrors "github.com/plasmakit/imascompose/errors"
)

// Compose deterministically evaluates final output values for paths whose
// satisfaction a prior Resolve call against the same cache confirmed.
//
// Requested paths must be computed fields; the transitive Direct/Derived
// plumbing underneath them is presence-checked against the cache, failing
// with an UNRESOLVED_DEPENDENCY error naming the missing requirement when
// the caller violated the resolve-first protocol. A per-call memo guarantees
// that a spec referenced by several requested paths is evaluated exactly
// once. Compose never mutates the cache and performs no fetching.
func (r *Registry) Compose(paths []string, shot int, cache Cache) (map[string]Value, error) {
	for _, path := range paths {
		spec, ok := r.specs[path]
		if !ok {
			return nil, apperrors.UnregisteredPath(path, r.Paths())
		}
		if spec.Stage != StageComputed {
			return nil, apperrors.NotComposable(path, spec.Stage.String())
		}
	}

	memo := make(map[string]Value)
	done := make(map[string]bool)
	values := make(map[string]Value, len(paths))

	for _, path := range paths {
		if err := r.composeOne(path, shot, cache, memo, done); err != nil {
			return nil, err
		}
		values[path] = memo[path]
	}
	return values, nil
}

// composeOne evaluates the spec graph under root iteratively, post-order,
// mirroring resolveOne. Direct and Derived nodes evaluate to a presence
// check; their fetched values are read from the cache by the downstream
// compose functions themselves. Computed nodes run their compose function
// once and land in the memo.
func (r *Registry) composeOne(root string, shot int, cache Cache, memo map[string]Value, done map[string]bool) error {
	type frame struct {
		name     string
		expanded bool
	}
	stack := []frame{{name: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if done[top.name] {
			stack = stack[:len(stack)-1]
			continue
		}
		spec := r.specs[top.name]

		if !top.expanded {
			top.expanded = true
			for _, up := range spec.DependsOn {
				if !done[up] {
					stack = append(stack, frame{name: up})
				}
			}
			continue
		}

		name := top.name
		stack = stack[:len(stack)-1]

		switch spec.Stage {
		case StageDirect:
			if err := requireCached(name, bindShot(spec.Requirements, shot), cache); err != nil {
				return err
			}

		case StageDerived:
			reqs, err := spec.Derive(shot, cache)
			if err != nil {
				return apperrors.DeriveFailed(name, err)
			}
			if err := requireCached(name, reqs, cache); err != nil {
				return err
			}

		case StageComputed:
			value, err := spec.Compose(shot, cache)
			if err != nil {
				return apperrors.ComposeFailed(name, err)
			}
			memo[name] = value
		}
		done[name] = true
	}

	return nil
}

// requireCached enforces the compose precondition for one spec's requirements.
func requireCached(spec string, reqs []Requirement, cache Cache) error {
	for _, req := range reqs {
		if !cache.Has(req) {
			return apperrors.UnresolvedDependency(spec, req.String())
		}
	}
	return nil
}
