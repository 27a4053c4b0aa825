package dataapi

import (
	"bytes"
	"encoding/json"
)

// Shape tells how a list response was wrapped.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeArray
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "unrecognized"
	}
}

// envelopeKeys are checked in order.
var envelopeKeys = []string{"data", "results", "positions"}

type Envelope struct {
	Shape Shape
	// Key is the wrapper key when Shape is ShapeWrapped.
	Key   string
	Items []json.RawMessage
}

// DecodeEnvelope normalizes a list response to its items. It never fails:
// malformed JSON and unknown wrappers both come back as ShapeUnrecognized
// with no items, which callers treat the same as an empty page.
func DecodeEnvelope(body []byte) Envelope {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{Shape: ShapeUnrecognized, Items: []json.RawMessage{}}
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Envelope{Shape: ShapeUnrecognized, Items: []json.RawMessage{}}
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return Envelope{Shape: ShapeArray, Items: items}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Envelope{Shape: ShapeUnrecognized, Items: []json.RawMessage{}}
		}
		for _, key := range envelopeKeys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				continue
			}
			if items == nil {
				items = []json.RawMessage{}
			}
			return Envelope{Shape: ShapeWrapped, Key: key, Items: items}
		}
	}
	return Envelope{Shape: ShapeUnrecognized, Items: []json.RawMessage{}}
}
