package composer

import (
	"errors"
	"testing"

	apperrors "github.com/plasmakit/imascompose/errors"
)

// --- test helpers ---

func constCompose(v float64) ComposeFunc {
	return func(int, Cache) (Value, error) {
		return Scalar(v), nil
	}
}

func mustBuild(t *testing.T, b *Builder) *Registry {
	t.Helper()
	r, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return r
}

// --- Register tests ---

func TestRegister_EmptyName(t *testing.T) {
	b := NewBuilder()
	err := b.Register("", Computed(nil, constCompose(1)))
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidSpec) {
		t.Fatalf("expected INVALID_SPEC, got %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("a", Computed(nil, constCompose(1)))
	err := b.Register("a", Computed(nil, constCompose(2)))
	if !apperrors.IsCode(err, apperrors.ErrCodeDuplicateSpec) {
		t.Fatalf("expected DUPLICATE_SPEC, got %v", err)
	}
}

func TestRegister_StageFieldMismatch(t *testing.T) {
	b := NewBuilder()

	direct := Direct(NewRequirement("sig", 0, "T"))
	direct.Compose = constCompose(1)
	if err := b.Register("a", direct); !apperrors.IsCode(err, apperrors.ErrCodeInvalidSpec) {
		t.Fatalf("expected INVALID_SPEC for direct with compose, got %v", err)
	}

	if err := b.Register("b", EntrySpec{Stage: StageDerived}); !apperrors.IsCode(err, apperrors.ErrCodeInvalidSpec) {
		t.Fatalf("expected INVALID_SPEC for derived without derive, got %v", err)
	}

	if err := b.Register("c", EntrySpec{Stage: StageComputed}); !apperrors.IsCode(err, apperrors.ErrCodeInvalidSpec) {
		t.Fatalf("expected INVALID_SPEC for computed without compose, got %v", err)
	}
}

func TestMustRegister_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	b := NewBuilder()
	b.MustRegister("a", Computed(nil, constCompose(1)))
	b.MustRegister("a", Computed(nil, constCompose(1)))
}

// --- Build tests ---

func TestBuild_UnknownUpstream(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("out", Computed([]string{"missing"}, constCompose(1)))
	_, err := b.Build()
	if !apperrors.IsCode(err, apperrors.ErrCodeUnknownUpstream) {
		t.Fatalf("expected UNKNOWN_UPSTREAM, got %v", err)
	}
}

func TestBuild_Cycle(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("a", Computed([]string{"b"}, constCompose(1)))
	b.MustRegister("b", Computed([]string{"a"}, constCompose(2)))
	b.MustRegister("ok", Computed(nil, constCompose(3)))

	_, err := b.Build()
	if !apperrors.IsCode(err, apperrors.ErrCodeCyclicDependency) {
		t.Fatalf("expected CYCLIC_DEPENDENCY, got %v", err)
	}
	var ae *apperrors.AppError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AppError, got %T", err)
	}
	members, _ := ae.Details["members"].([]string)
	if len(members) != 2 || members[0] != "a" || members[1] != "b" {
		t.Fatalf("expected cycle members [a b], got %v", members)
	}
}

func TestBuild_Paths(t *testing.T) {
	b := NewBuilder()
	b.MustRegister("ids._raw", Direct(NewRequirement("sig", 0, "T")))
	b.MustRegister("ids.out", Computed([]string{"ids._raw"}, constCompose(1)))
	r := mustBuild(t, b)

	paths := r.Paths()
	if len(paths) != 1 || paths[0] != "ids.out" {
		t.Fatalf("expected only computed fields in Paths, got %v", paths)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 specs, got %d", r.Len())
	}
	if names := r.Names(); len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
}
