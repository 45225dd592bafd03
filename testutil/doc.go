// Package testutil provides test doubles and fixture helpers for the
// composition engine.
//
// MapFetcher is a map-backed fetcher for session tests:
//
//	fetcher := testutil.NewMapFetcher(map[composer.Requirement]composer.Value{
//	    composer.NewRequirement("NUMCH", shot, "T"): composer.Scalar(2),
//	})
//
// ResolveFixtures drives a registry's resolve loop against fixture data keyed
// by signal path, returning a cache ready for Compose:
//
//	cache := testutil.ResolveFixtures(t, registry, registry.Paths(), shot,
//	    fixtures)
package testutil
