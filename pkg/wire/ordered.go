package wire

import (
	"encoding/json"
	"fmt"
	"io"
)

// parseOrdered decodes a JSON document from r into the same shape
// encoding/json would produce (nil, bool, float64, string, []any) except
// that objects become *Object instead of map[string]any, so key order
// survives the round trip.
func parseOrdered(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	v, err := parseOrderedValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseOrderedValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseOrderedToken(dec, tok)
}

func parseOrderedToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("wire: object key must be a string, got %T", keyTok)
				}
				val, err := parseOrderedValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := make([]any, 0)
			for dec.More() {
				val, err := parseOrderedValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("wire: unexpected delimiter %v", t)
		}
	case float64, string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("wire: unexpected token %v (%T)", t, t)
	}
}
