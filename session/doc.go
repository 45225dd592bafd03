// Package session provides the caller-side resolve/fetch loop around the
// composition engine.
//
// A Session owns the cache for one logical shot session and drives the
// two-phase protocol: resolve the requested paths, fetch the pending
// requirements through a Fetcher (concurrently), merge the results, and
// repeat until every path is satisfied; then compose once.
//
// The engine itself performs no I/O — all suspension lives here, which is
// what lets a Session fetch a batch of pending requirements concurrently
// without any engine involvement.
package session
