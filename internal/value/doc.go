// Package value provides the JSON value model used for entry keys and values.
//
// This package imports nothing internal. Every other package that touches
// entry contents goes through Value, so the sealed interface is the single
// place where JSON kinds are enumerated.
//
// Key design constraints:
//   - Numbers keep their literal text; no float round-trip
//   - Canonical text (MarshalCanonical) is stable and is what bucket files store
//   - Equality is structural and independent of object key order
package value
