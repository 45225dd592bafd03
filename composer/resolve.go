package composer

import (
	"sort"

	apperrors "github.com/plasmakit/imascompose/errors"
)

// Resolve computes, for a batch of requested output paths, whether each is
// fully satisfiable from the already-fetched data in cache, and the
// deduplicated set of still-missing Requirements.
//
// "Not yet satisfied" is the normal outcome, reported in the return value,
// never as an error. Errors are reserved for malformed requests (unknown
// path) and failing domain derive functions. Resolution is monotonic and
// idempotent: repeated calls with a growing cache never shrink the satisfied
// set and never re-request a requirement already present.
//
// The returned pending slice is sorted for deterministic fetch batches.
func (r *Registry) Resolve(paths []string, shot int, cache Cache) (map[string]bool, []Requirement, error) {
	for _, path := range paths {
		if _, ok := r.specs[path]; !ok {
			return nil, nil, apperrors.UnregisteredPath(path, r.Paths())
		}
	}

	satisfied := make(map[string]bool, len(paths))
	memo := make(map[string]bool)
	pending := make(map[Requirement]struct{})

	for _, path := range paths {
		ok, err := r.resolveOne(path, shot, cache, memo, pending)
		if err != nil {
			return nil, nil, err
		}
		satisfied[path] = ok
	}

	reqs := make([]Requirement, 0, len(pending))
	for req := range pending {
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Source != reqs[j].Source {
			return reqs[i].Source < reqs[j].Source
		}
		if reqs[i].Path != reqs[j].Path {
			return reqs[i].Path < reqs[j].Path
		}
		return reqs[i].Shot < reqs[j].Shot
	})
	return satisfied, reqs, nil
}

// resolveOne walks the spec graph under root iteratively, post-order, with a
// per-call memo so shared internal specs are visited once per Resolve call.
// The graph was validated acyclic at Build, so an explicit work stack with an
// expansion flag suffices; no recursion, no depth limit.
func (r *Registry) resolveOne(root string, shot int, cache Cache, memo map[string]bool, pending map[Requirement]struct{}) (bool, error) {
	type frame struct {
		name     string
		expanded bool
	}
	stack := []frame{{name: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, done := memo[top.name]; done {
			stack = stack[:len(stack)-1]
			continue
		}
		spec := r.specs[top.name]

		if !top.expanded {
			top.expanded = true
			for _, up := range spec.DependsOn {
				if _, done := memo[up]; !done {
					stack = append(stack, frame{name: up})
				}
			}
			continue
		}

		name := top.name
		stack = stack[:len(stack)-1]

		switch spec.Stage {
		case StageDirect:
			memo[name] = checkRequirements(bindShot(spec.Requirements, shot), cache, pending)

		case StageDerived:
			if !allSatisfied(spec.DependsOn, memo) {
				// The derive function's own requirement list is undefined
				// until its inputs exist; it must not be invoked yet.
				memo[name] = false
				continue
			}
			reqs, err := spec.Derive(shot, cache)
			if err != nil {
				return false, apperrors.DeriveFailed(name, err)
			}
			memo[name] = checkRequirements(reqs, cache, pending)

		case StageComputed:
			memo[name] = allSatisfied(spec.DependsOn, memo)
		}
	}

	return memo[root], nil
}

// checkRequirements reports whether every requirement is cached, adding the
// missing ones to pending.
func checkRequirements(reqs []Requirement, cache Cache, pending map[Requirement]struct{}) bool {
	ok := true
	for _, req := range reqs {
		if !cache.Has(req) {
			pending[req] = struct{}{}
			ok = false
		}
	}
	return ok
}

// bindShot re-binds shot-0 requirement templates to the requested shot.
func bindShot(reqs []Requirement, shot int) []Requirement {
	bound := make([]Requirement, len(reqs))
	for i, req := range reqs {
		bound[i] = req.WithShot(shot)
	}
	return bound
}

func allSatisfied(names []string, memo map[string]bool) bool {
	for _, name := range names {
		if !memo[name] {
			return false
		}
	}
	return true
}
