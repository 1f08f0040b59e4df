// Package keyfile provides the INI-backed key-value store behind the
// lumen configuration file, together with validated typed getters.
//
// # Fallback Semantics
//
// The getters never abort a configuration load. Each returns a value and
// an ok flag; a missing key, a type mismatch, or a failed validation
// check logs a structured warning and reports ok=false, which makes the
// caller keep its previous or default value for that one field. Only a
// syntactically malformed file is a hard error, surfaced by Parse.
//
// # Lists and Enums
//
// List values are encoded with ';' between elements. Enum values are
// matched against a fixed nickname table per enum type; the warning for
// an unknown nickname enumerates every legal nickname. List getters are
// all-or-nothing: one bad element invalidates the whole call.
package keyfile
