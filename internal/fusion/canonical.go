package fusion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for fingerprinting and golden
// snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (RFC 8785 ordering)
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. float32 only, written in shortest round-trip form; non-finite values are
//     written as the strings "NaN", "+Inf" and "-Inf"
//  5. No null and no float64 (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return appendString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		return appendFloat(buf, val)
	case float64:
		return fmt.Errorf("float64 is forbidden in canonical JSON: %v", val)
	case Axis:
		return appendObject(buf, val.fields())
	case Quaternion:
		return appendObject(buf, val.fields())
	case Measurement:
		return appendObject(buf, val.fields())
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		return appendObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func appendObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := appendCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// appendString writes an NFC-normalized JSON string without HTML escaping.
func appendString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds trailing newline, remove it
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func appendFloat(buf *bytes.Buffer, f float32) error {
	if isFinite(f) {
		buf.WriteString(FormatFloat(f))
		return nil
	}
	return appendString(buf, FormatFloat(f))
}

// FormatFloat renders f in the shortest form that parses back to the same
// float32. Non-finite values render as "NaN", "+Inf" or "-Inf".
func FormatFloat(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "+Inf"
	case math.IsInf(float64(f), -1):
		return "-Inf"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// compareKeysUTF16 compares strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

func (a Axis) fields() map[string]any {
	return map[string]any{"x": a.X, "y": a.Y, "z": a.Z}
}

func (q Quaternion) fields() map[string]any {
	return map[string]any{"a": q.A, "b": q.B, "c": q.C, "d": q.D}
}

func (m Measurement) fields() map[string]any {
	return map[string]any{"acc": m.Acc, "gyro": m.Gyro, "mag": m.Mag}
}

// MarshalJSON writes the axis in canonical form so non-finite values survive.
func (a Axis) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(a)
}

// MarshalJSON writes the quaternion in canonical form so non-finite values survive.
func (q Quaternion) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(q)
}

// UnmarshalJSON accepts numbers or the non-finite string forms.
func (a *Axis) UnmarshalJSON(data []byte) error {
	var raw struct {
		X jsonFloat `json:"x"`
		Y jsonFloat `json:"y"`
		Z jsonFloat `json:"z"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal axis: %w", err)
	}
	*a = Axis{X: float32(raw.X), Y: float32(raw.Y), Z: float32(raw.Z)}
	return nil
}

// UnmarshalJSON accepts numbers or the non-finite string forms.
func (q *Quaternion) UnmarshalJSON(data []byte) error {
	var raw struct {
		A jsonFloat `json:"a"`
		B jsonFloat `json:"b"`
		C jsonFloat `json:"c"`
		D jsonFloat `json:"d"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal quaternion: %w", err)
	}
	*q = Quaternion{A: float32(raw.A), B: float32(raw.B), C: float32(raw.C), D: float32(raw.D)}
	return nil
}

// jsonFloat decodes a float32 written either as a JSON number or as one of
// the quoted non-finite forms produced by FormatFloat.
type jsonFloat float32

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return fmt.Errorf("invalid float32 %s: %w", data, err)
	}
	*f = jsonFloat(v)
	return nil
}
