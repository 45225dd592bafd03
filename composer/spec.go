package composer

// Stage tags an EntrySpec with how its requirements are known.
type Stage int

const (
	// StageDirect specs carry a fixed requirement list known at registration.
	StageDirect Stage = iota
	// StageDerived specs compute their requirement list from already-fetched
	// data once their upstream specs are satisfied.
	StageDerived
	// StageComputed specs carry no requirements of their own; they transform
	// fully-fetched data into a final output value.
	StageComputed
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageDirect:
		return "direct"
	case StageDerived:
		return "derived"
	default:
		return "computed"
	}
}

// DeriveFunc computes a spec's own requirement list from fetched upstream
// data. It must be pure: no I/O, no cache mutation. It is only invoked once
// every upstream spec is satisfied.
type DeriveFunc func(shot int, cache Cache) ([]Requirement, error)

// ComposeFunc produces a final output value from fully-fetched data. It must
// be pure: no I/O, no cache mutation, no further fetching.
type ComposeFunc func(shot int, cache Cache) (Value, error)

// EntrySpec is one named node in the dependency graph, owned by the Registry
// once registered. Each stage uses exactly the fields its constructor sets;
// Builder.Register rejects inconsistent combinations.
type EntrySpec struct {
	// Stage selects the variant.
	Stage Stage
	// Requirements is the static requirement list (StageDirect only).
	// Entries are shot-0 templates re-bound at evaluation time.
	Requirements []Requirement
	// DependsOn names upstream specs that must be satisfied first
	// (StageDerived and StageComputed).
	DependsOn []string
	// Derive computes the data-dependent requirement list (StageDerived only).
	Derive DeriveFunc
	// Compose produces the final value (StageComputed only).
	Compose ComposeFunc
}

// Direct creates a spec with a fixed requirement list known at registration.
func Direct(reqs ...Requirement) EntrySpec {
	return EntrySpec{Stage: StageDirect, Requirements: reqs}
}

// Derived creates a spec whose requirement list is computed from fetched
// upstream data (e.g., one requirement per channel, with the channel count
// itself fetched data).
func Derived(dependsOn []string, derive DeriveFunc) EntrySpec {
	return EntrySpec{Stage: StageDerived, DependsOn: dependsOn, Derive: derive}
}

// Computed creates a spec that transforms fully-fetched data into a final
// output value with no further fetching.
func Computed(dependsOn []string, compose ComposeFunc) EntrySpec {
	return EntrySpec{Stage: StageComputed, DependsOn: dependsOn, Compose: compose}
}

// validate checks stage/field consistency at registration time.
func (e EntrySpec) validate() string {
	switch e.Stage {
	case StageDirect:
		if e.Derive != nil || e.Compose != nil || len(e.DependsOn) > 0 {
			return "direct specs carry only a static requirement list"
		}
	case StageDerived:
		if e.Derive == nil {
			return "derived specs need a derive function"
		}
		if e.Compose != nil || len(e.Requirements) > 0 {
			return "derived specs carry only upstream names and a derive function"
		}
	case StageComputed:
		if e.Compose == nil {
			return "computed specs need a compose function"
		}
		if e.Derive != nil || len(e.Requirements) > 0 {
			return "computed specs carry only upstream names and a compose function"
		}
	default:
		return "unknown stage"
	}
	return ""
}
