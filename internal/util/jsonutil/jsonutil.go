// Package jsonutil smooths over the escaping quirks of model-produced
// JSON before it reaches encoding/json.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// UnmarshalRaw decodes a tool-use payload into v, tolerating
// double-escaped unicode sequences.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return UnmarshalFlex([]byte(raw), v)
}

// UnmarshalFlex tries a direct unmarshal first and falls back to
// normalizing escape sequences when that fails.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	norm, err := NormalizeJSONUnicode(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// MarshalNoEscape encodes v without turning <, >, & into \u003c forms.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// NormalizeJSONUnicode parses JSON and recursively unescapes
// double-escaped unicode sequences in string values. Payloads that are
// themselves a quoted JSON string get unwrapped first.
func NormalizeJSONUnicode(raw []byte) ([]byte, error) {
	var anyVal any
	if err := json.Unmarshal(raw, &anyVal); err != nil {
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(s), &anyVal); err != nil {
			return nil, errors.New("jsonutil: cannot parse JSON payload")
		}
	}
	return MarshalNoEscape(deepUnescape(anyVal))
}

// unescapeUnicodeString converts sequences like "\u003e" into actual
// characters, including double-escaped "\u003e" forms.
func unescapeUnicodeString(s string) (string, error) {
	esc := strings.ReplaceAll(s, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if s, err := unescapeUnicodeString(x); err == nil {
			return s
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
