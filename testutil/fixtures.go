package testutil

import (
	"testing"

	"github.com/plasmakit/imascompose/composer"
)

// resolvePasses bounds the fixture loop; well-formed registries converge in
// a handful of passes.
const resolvePasses = 10

// ResolveFixtures resolves paths in passes, filling each pending requirement
// from fixture data keyed by signal path, and returns the populated cache.
// It fails the test when a pending requirement has no fixture or resolution
// does not converge.
func ResolveFixtures(t testing.TB, r *composer.Registry, paths []string, shot int, fixtures map[string]composer.Value) composer.Cache {
	t.Helper()

	cache := composer.NewCache()
	for pass := 0; pass < resolvePasses; pass++ {
		satisfied, pending, err := r.Resolve(paths, shot, cache)
		if err != nil {
			t.Fatalf("resolve pass %d: %v", pass, err)
		}
		done := true
		for _, ok := range satisfied {
			if !ok {
				done = false
			}
		}
		if done {
			return cache
		}
		if len(pending) == 0 {
			t.Fatal("resolution stalled")
		}
		for _, req := range pending {
			v, ok := fixtures[req.Path]
			if !ok {
				t.Fatalf("no fixture for %s", req)
			}
			cache[req] = v
		}
	}
	t.Fatal("resolution did not converge")
	return nil
}
