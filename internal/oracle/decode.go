package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/creedhall/doctrine/internal/types"
)

// payloadSchema is the structural contract every oracle response must meet
// before any field-level coercion happens. Item shapes are deliberately loose
// here; the string-or-wrapper decode below owns those.
const payloadSchema = `{
  "type": "object",
  "required": ["principles", "claims", "rules", "warnings", "cross_references"],
  "properties": {
    "principles": {"type": "array"},
    "claims": {"type": "array"},
    "rules": {"type": "array"},
    "warnings": {"type": "array"},
    "cross_references": {"type": "array"}
  }
}`

var compiledPayloadSchema = jsonschema.MustCompileString("payload.json", payloadSchema)

// wrapperKeys is the small known set of single-key wrapper objects the oracle
// is allowed to emit instead of a plain string. Anything else is a ShapeError.
var wrapperKeys = []string{"claim", "principle", "rule", "warning", "text"}

// rawPayload mirrors the oracle wire format with items left undecoded so
// each can be coerced individually.
type rawPayload struct {
	Principles      []json.RawMessage `json:"principles"`
	Claims          []json.RawMessage `json:"claims"`
	Rules           []json.RawMessage `json:"rules"`
	Warnings        []json.RawMessage `json:"warnings"`
	CrossReferences []json.RawMessage `json:"cross_references"`
}

// DecodePayload validates raw oracle JSON against the payload schema and
// decodes it into a PartialExtraction containing only plain strings and ints.
// The dynamic string-or-wrapped-object shape is resolved here, once, so the
// rest of the pipeline never type-sniffs.
func DecodePayload(raw []byte) (*types.PartialExtraction, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("oracle payload is not valid JSON: %w", err)
	}
	if err := compiledPayloadSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("oracle payload does not match schema: %w", err)
	}

	var rp rawPayload
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil, fmt.Errorf("failed to decode oracle payload: %w", err)
	}

	pe := &types.PartialExtraction{}
	var err error
	if pe.Principles, err = coerceStrings("principles", rp.Principles); err != nil {
		return nil, err
	}
	if pe.Claims, err = coerceStrings("claims", rp.Claims); err != nil {
		return nil, err
	}
	if pe.Rules, err = coerceStrings("rules", rp.Rules); err != nil {
		return nil, err
	}
	if pe.Warnings, err = coerceStrings("warnings", rp.Warnings); err != nil {
		return nil, err
	}
	if pe.CrossReferences, err = coerceInts("cross_references", rp.CrossReferences); err != nil {
		return nil, err
	}
	return pe, nil
}

// coerceStrings decodes each item as either a plain string or a single-key
// wrapper object from the known key set.
func coerceStrings(field string, items []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err == nil && len(obj) == 1 {
			if v, ok := wrappedValue(obj); ok {
				out = append(out, v)
				continue
			}
		}

		return nil, &ShapeError{Field: field, Item: strings.TrimSpace(string(item))}
	}
	return out, nil
}

func wrappedValue(obj map[string]json.RawMessage) (string, bool) {
	for _, key := range wrapperKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

// coerceInts accepts only integral JSON numbers.
func coerceInts(field string, items []json.RawMessage) ([]int, error) {
	out := make([]int, 0, len(items))
	for _, item := range items {
		var n int
		if err := json.Unmarshal(item, &n); err != nil {
			return nil, &ShapeError{Field: field, Item: strings.TrimSpace(string(item))}
		}
		out = append(out, n)
	}
	return out, nil
}
