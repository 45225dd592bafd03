package testutil

import (
	"context"
	"testing"

	"github.com/plasmakit/imascompose/composer"
)

func TestMapFetcher(t *testing.T) {
	req := composer.NewRequirement("SIG", 1, "T")
	f := NewMapFetcher(map[composer.Requirement]composer.Value{
		req: composer.Scalar(9),
	})

	v, err := f.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := v.Float(); got != 9 {
		t.Fatalf("expected 9, got %v", got)
	}
	if _, err := f.Fetch(context.Background(), composer.NewRequirement("MISSING", 1, "T")); err == nil {
		t.Fatal("expected error for unmapped requirement")
	}
	if f.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", f.Calls())
	}
}

func TestResolveFixtures(t *testing.T) {
	b := composer.NewBuilder()
	b.MustRegister("probe._raw", composer.Direct(composer.NewRequirement("SIG", 0, "T")))
	b.MustRegister("probe.value", composer.Computed([]string{"probe._raw"}, func(shot int, cache composer.Cache) (composer.Value, error) {
		v, err := cache.Float(composer.NewRequirement("SIG", shot, "T"))
		if err != nil {
			return composer.Value{}, err
		}
		return composer.Scalar(2 * v), nil
	}))
	r, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	cache := ResolveFixtures(t, r, r.Paths(), 5, map[string]composer.Value{
		"SIG": composer.Scalar(3),
	})
	values, err := r.Compose(r.Paths(), 5, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := values["probe.value"].Float(); got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
}
