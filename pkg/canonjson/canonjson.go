// Package canonjson implements the deterministic JSON encoding the patch
// compiler and WriteGuard depend on (§4.2 step 5, §4.3, round-trip law R1):
// sorted object keys, no insignificant whitespace, stable number formatting.
// Go's encoding/json already sorts map keys and produces compact output by
// default; this package exists to make that guarantee explicit and named at
// every call site that feeds a hash, rather than relying on json.Marshal's
// incidental behavior matching the spec's requirement by coincidence.
package canonjson

import (
	"bytes"
	"encoding/json"
)

// Marshal encodes v as canonical JSON: map keys sorted lexicographically
// (encoding/json's documented behavior for map[string]T and struct fields in
// declaration order), no HTML escaping substitutions beyond what json
// already guarantees stable, and no trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MustMarshal panics on error; used only where v's marshalability is an
// invariant of the caller (e.g. a GraphPayload built entirely from this
// package's own types).
func MustMarshal(v any) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
