package composer

import (
	apperrors "github.com/plasmakit/imascompose/errors"
)

// Cache is the caller-owned mapping from Requirement to fetched Value. It
// grows monotonically across Resolve calls within one resolution session.
// The engine only reads it; the caller merges fetched data in between calls.
type Cache map[Requirement]Value

// NewCache creates an empty cache for one logical session.
func NewCache() Cache { return make(Cache) }

// Has reports whether a requirement's value is present.
func (c Cache) Has(req Requirement) bool {
	_, ok := c[req]
	return ok
}

// Get returns the cached value for a requirement, failing with an
// UNRESOLVED_DEPENDENCY error if it is absent. Compose functions use it so
// that a protocol violation surfaces with the missing requirement named.
func (c Cache) Get(req Requirement) (Value, error) {
	v, ok := c[req]
	if !ok {
		return Value{}, apperrors.UnresolvedDependency("", req.String())
	}
	return v, nil
}

// Float looks up a requirement and returns its scalar payload.
func (c Cache) Float(req Requirement) (float64, error) {
	v, err := c.Get(req)
	if err != nil {
		return 0, err
	}
	return v.Float()
}

// Int looks up a requirement and returns its scalar payload truncated to int.
func (c Cache) Int(req Requirement) (int, error) {
	v, err := c.Get(req)
	if err != nil {
		return 0, err
	}
	return v.Int()
}

// Vector looks up a requirement and returns its 1-D dense payload.
func (c Cache) Vector(req Requirement) ([]float64, error) {
	v, err := c.Get(req)
	if err != nil {
		return nil, err
	}
	return v.Vector1D()
}
