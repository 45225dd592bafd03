package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/plasmakit/imascompose/composer"
)

// MapFetcher serves values from a fixed map and counts fetches. It satisfies
// session.Fetcher.
type MapFetcher struct {
	Values map[composer.Requirement]composer.Value
	calls  atomic.Int64
}

// NewMapFetcher creates a MapFetcher over the given values.
func NewMapFetcher(values map[composer.Requirement]composer.Value) *MapFetcher {
	if values == nil {
		values = map[composer.Requirement]composer.Value{}
	}
	return &MapFetcher{Values: values}
}

// Fetch returns the mapped value for req, or an error when no fixture exists.
func (f *MapFetcher) Fetch(_ context.Context, req composer.Requirement) (composer.Value, error) {
	f.calls.Add(1)
	v, ok := f.Values[req]
	if !ok {
		return composer.Value{}, fmt.Errorf("no data for %s", req)
	}
	return v, nil
}

// Calls reports how many times Fetch has been invoked.
func (f *MapFetcher) Calls() int64 {
	return f.calls.Load()
}
