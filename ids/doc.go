// Package ids maps DIII-D instrument and reconstruction signals onto IMAS
// IDS output paths.
//
// Each mapper registers three layers of specs: direct specs for the raw
// MDSplus nodes it reads (underscore-prefixed internal names), derived specs
// whose node list itself depends on fetched data (e.g., the ECE channel
// count), and computed specs for the public IDS fields. Static output values
// and the per-IDS field ledger live in embedded YAML tables.
package ids
