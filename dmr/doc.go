// Package dmr implements the Dynamic Model Representation, a schemaless,
// self-describing tree of typed values used as a neutral interchange format
// between management clients and servers.
//
// # Data Model
//
// A Node carries one of fourteen type tags: the scalars BOOLEAN, INT, LONG,
// DOUBLE, BIG_INTEGER, BIG_DECIMAL, STRING, BYTES, EXPRESSION and TYPE, the
// containers LIST and OBJECT, the single association PROPERTY, and
// UNDEFINED. OBJECT iteration preserves first-insertion order. Navigation
// auto-vivifies: Get on an undefined node promotes it to an OBJECT and
// creates absent children on demand.
//
//	node := dmr.New()
//	node.Get("address", "host").SetString("localhost")
//	node.Get("address", "port").SetInt(9990)
//
// Protect deep-freezes a tree; Clone produces an independent unprotected
// copy; Resolve substitutes ${...} expression placeholders against an
// environment.
//
// # Encodings
//
// Four surfaces round-trip a tree:
//
//   - the native textual dialect ({"a" => 1}, expression "...", bytes {...})
//   - a JSON-compatible dialect, encoding non-JSON variants as sentinel
//     objects (EXPRESSION_VALUE, BYTES_VALUE, TYPE_MODEL_VALUE,
//     PROPERTY_VALUE)
//   - a self-delimiting binary external form
//   - a base64 wrapping of the binary form for text-safe transport
//
// Both textual dialects share one incremental grammar automaton: readers
// and writers validate every token against it without building parse trees,
// so malformed input fails at the first offending token with an
// "Expecting ..." message.
package dmr
