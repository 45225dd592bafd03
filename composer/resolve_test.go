package composer

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/plasmakit/imascompose/errors"
)

// --- test helpers ---

// passthrough composes the cached value of a single requirement template.
func passthrough(template Requirement) ComposeFunc {
	return func(shot int, cache Cache) (Value, error) {
		return cache.Get(template.WithShot(shot))
	}
}

// channelRegistry models the ECE shape: a fetched channel count expands into
// one requirement per channel.
func channelRegistry(t *testing.T, deriveCalls *int) *Registry {
	t.Helper()
	b := NewBuilder()
	b.MustRegister("probe._numch", Direct(NewRequirement("NUMCH", 0, "T")))
	b.MustRegister("probe._channels", Derived([]string{"probe._numch"}, func(shot int, cache Cache) ([]Requirement, error) {
		if deriveCalls != nil {
			*deriveCalls++
		}
		n, err := cache.Int(NewRequirement("NUMCH", shot, "T"))
		if err != nil {
			return nil, err
		}
		reqs := make([]Requirement, 0, n)
		for ch := 1; ch <= n; ch++ {
			reqs = append(reqs, NewRequirement(fmt.Sprintf("CH%02d", ch), shot, "T"))
		}
		return reqs, nil
	}))
	b.MustRegister("probe.data", Computed([]string{"probe._channels"}, func(shot int, cache Cache) (Value, error) {
		n, err := cache.Int(NewRequirement("NUMCH", shot, "T"))
		if err != nil {
			return Value{}, err
		}
		var sum float64
		for ch := 1; ch <= n; ch++ {
			v, err := cache.Float(NewRequirement(fmt.Sprintf("CH%02d", ch), shot, "T"))
			if err != nil {
				return Value{}, err
			}
			sum += v
		}
		return Scalar(sum), nil
	}))
	return mustBuild(t, b)
}

// --- Resolve tests ---

func TestResolve_DirectShotBinding(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("eq._gtime", Direct(NewRequirement("GTIME", 0, "EFIT01")))
	b.MustRegister("eq.time", Computed([]string{"eq._gtime"}, passthrough(NewRequirement("GTIME", 0, "EFIT01"))))
	r := mustBuild(t, b)

	cache := NewCache()
	satisfied, pending, err := r.Resolve([]string{"eq.time"}, 12345, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if satisfied["eq.time"] {
		t.Fatal("expected eq.time unsatisfied on empty cache")
	}
	want := NewRequirement("GTIME", 12345, "EFIT01")
	if len(pending) != 1 || pending[0] != want {
		t.Fatalf("expected pending [%s], got %v", want, pending)
	}

	cache[want] = Scalar(1.0)
	satisfied, pending, err = r.Resolve([]string{"eq.time"}, 12345, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !satisfied["eq.time"] {
		t.Fatal("expected eq.time satisfied after fetch")
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending requirements, got %v", pending)
	}
}

func TestResolve_SharedRequirementDeduplicated(t *testing.T) {
	b := NewBuilder()
	shared := NewRequirement("SHARED", 0, "T")
	b.MustRegister("a._raw", Direct(shared))
	b.MustRegister("a.first", Computed([]string{"a._raw"}, passthrough(shared)))
	b.MustRegister("a.second", Computed([]string{"a._raw"}, passthrough(shared)))
	r := mustBuild(t, b)

	_, pending, err := r.Resolve([]string{"a.first", "a.second"}, 7, NewCache())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected shared requirement reported once, got %v", pending)
	}
}

func TestResolve_DerivedGatedOnUpstream(t *testing.T) {
	deriveCalls := 0
	r := channelRegistry(t, &deriveCalls)
	cache := NewCache()
	shot := 42

	// Pass 1: only the channel count is requestable; derive must not run.
	satisfied, pending, err := r.Resolve([]string{"probe.data"}, shot, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if satisfied["probe.data"] {
		t.Fatal("expected probe.data unsatisfied")
	}
	if deriveCalls != 0 {
		t.Fatalf("derive ran before its upstream was satisfied (%d calls)", deriveCalls)
	}
	if len(pending) != 1 || pending[0].Path != "NUMCH" {
		t.Fatalf("expected pending [NUMCH], got %v", pending)
	}

	// Pass 2: channel count cached; derive expands to per-channel requirements.
	cache[NewRequirement("NUMCH", shot, "T")] = Scalar(3)
	satisfied, pending, err = r.Resolve([]string{"probe.data"}, shot, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if satisfied["probe.data"] {
		t.Fatal("expected probe.data still unsatisfied")
	}
	if deriveCalls != 1 {
		t.Fatalf("expected 1 derive call, got %d", deriveCalls)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 per-channel requirements, got %v", pending)
	}

	// Pass 3: everything cached.
	for _, req := range pending {
		cache[req] = Scalar(1.5)
	}
	satisfied, pending, err = r.Resolve([]string{"probe.data"}, shot, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !satisfied["probe.data"] || len(pending) != 0 {
		t.Fatalf("expected full satisfaction, got satisfied=%v pending=%v", satisfied, pending)
	}
}

func TestResolve_UnregisteredPath(t *testing.T) {
	r := channelRegistry(t, nil)
	_, _, err := r.Resolve([]string{"no.such.path"}, 1, NewCache())
	if !apperrors.IsCode(err, apperrors.ErrCodeUnregisteredPath) {
		t.Fatalf("expected UNREGISTERED_PATH, got %v", err)
	}
}

func TestResolve_DeriveFailure(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("x._n", Direct(NewRequirement("N", 0, "T")))
	b.MustRegister("x._bad", Derived([]string{"x._n"}, func(int, Cache) ([]Requirement, error) {
		return nil, errors.New("boom")
	}))
	b.MustRegister("x.out", Computed([]string{"x._bad"}, constCompose(0)))
	r := mustBuild(t, b)

	cache := NewCache()
	cache[NewRequirement("N", 9, "T")] = Scalar(1)
	_, _, err := r.Resolve([]string{"x.out"}, 9, cache)
	if !apperrors.IsCode(err, apperrors.ErrCodeDeriveFailed) {
		t.Fatalf("expected DERIVE_FAILED, got %v", err)
	}
}

func TestResolve_PendingSortedDeterministically(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("m._z", Direct(NewRequirement("ZSIG", 0, "B")))
	b.MustRegister("m._a", Direct(NewRequirement("ASIG", 0, "B")))
	b.MustRegister("m._other", Direct(NewRequirement("SIG", 0, "A")))
	b.MustRegister("m.out", Computed([]string{"m._z", "m._a", "m._other"}, constCompose(0)))
	r := mustBuild(t, b)

	_, pending, err := r.Resolve([]string{"m.out"}, 1, NewCache())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]string, len(pending))
	for i, req := range pending {
		got[i] = req.Source + "/" + req.Path
	}
	want := []string{"A/SIG", "B/ASIG", "B/ZSIG"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pending order %v, got %v", want, got)
		}
	}
}
