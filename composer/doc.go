// Package composer provides a dependency-driven evaluation engine for mapping
// per-shot instrument signals onto a hierarchical output schema.
//
// A Registry holds named EntrySpecs forming an acyclic dependency graph.
// Callers drive a two-phase protocol against it:
//   - Resolve: determine, incrementally, the minimal set of external fetches
//     still needed to produce a requested set of output paths.
//   - Compose: once all requirements are cached, deterministically evaluate
//     the final output values.
//
// The engine performs no I/O and holds no state across calls: all fetching
// happens outside it, driven by the caller between Resolve calls (see the
// session package for a ready-made fetch loop).
package composer
