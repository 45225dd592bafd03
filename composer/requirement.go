package composer

import "fmt"

// Requirement identifies one external datum to fetch: a source path, a shot
// number, and the source tree it lives in. Two Requirements are
// interchangeable iff their triples match; the triple is the sole key used
// to look up fetched values in a Cache. Immutable value type.
type Requirement struct {
	// Path is the source-side signal path (e.g., an MDSplus node path).
	Path string
	// Shot is the shot number the datum belongs to. Specs register shot-0
	// templates that the engine re-binds at evaluation time.
	Shot int
	// Source is the source tree name (e.g., "ELECTRONS", "EFIT01").
	Source string
}

// NewRequirement creates a Requirement for the given triple.
func NewRequirement(path string, shot int, source string) Requirement {
	return Requirement{Path: path, Shot: shot, Source: source}
}

// WithShot returns a copy of the requirement bound to the given shot.
func (r Requirement) WithShot(shot int) Requirement {
	r.Shot = shot
	return r
}

// String renders the triple for logs and error messages.
func (r Requirement) String() string {
	return fmt.Sprintf("%s@%d[%s]", r.Path, r.Shot, r.Source)
}
