package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Entry is one sub-record of a sequence metric.
type Entry struct {
	ID     string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Key returns the stable identity of the entry: ID when set, otherwise Name.
func (e Entry) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Name
}

// Bin is one labelled count of a frequency table.
type Bin struct {
	Label string  `json:"label"`
	Count float64 `json:"count"`
}

// Value is the tagged metric value. Exactly one payload field is meaningful,
// selected by Kind. The zero Value is the absent marker.
type Value struct {
	Kind MetricKind
	Num  float64
	Text string
	Bool bool
	Seq  []Entry
	Freq []Bin // sorted by label
}

// Number returns a numeric value.
func Number(v float64) Value { return Value{Kind: NumericKind, Num: v} }

// Text returns a text value.
func Text(s string) Value { return Value{Kind: TextKind, Text: s} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{Kind: BooleanKind, Bool: b} }

// Sequence returns a sequence value. The entries are copied.
func Sequence(entries ...Entry) Value {
	return Value{Kind: SequenceKind, Seq: slices.Clone(entries)}
}

// Frequency returns a frequency-table value with bins sorted by label.
func Frequency(table map[string]float64) Value {
	bins := make([]Bin, 0, len(table))
	for _, label := range slices.Sorted(maps.Keys(table)) {
		bins = append(bins, Bin{Label: label, Count: table[label]})
	}
	return Value{Kind: FrequencyKind, Freq: bins}
}

// IsAbsent reports whether v is the absent marker.
func (v Value) IsAbsent() bool { return v.Kind == "" }

// Counts returns the frequency table counts in label order.
func (v Value) Counts() []float64 {
	out := make([]float64, len(v.Freq))
	for i, b := range v.Freq {
		out[i] = b.Count
	}
	return out
}

// String renders the value for tables and narratives.
func (v Value) String() string {
	switch v.Kind {
	case NumericKind:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TextKind:
		return v.Text
	case BooleanKind:
		return strconv.FormatBool(v.Bool)
	case SequenceKind:
		keys := make([]string, len(v.Seq))
		for i, e := range v.Seq {
			keys[i] = e.Key()
		}
		return "[" + strings.Join(keys, ", ") + "]"
	case FrequencyKind:
		parts := make([]string, len(v.Freq))
		for i, b := range v.Freq {
			parts[i] = b.Label + ":" + strconv.FormatFloat(b.Count, 'g', -1, 64)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<absent>"
	}
}

// MarshalJSON encodes the payload using the natural JSON shape of its kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case NumericKind:
		return json.Marshal(v.Num)
	case TextKind:
		return json.Marshal(v.Text)
	case BooleanKind:
		return json.Marshal(v.Bool)
	case SequenceKind:
		if v.Seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Seq)
	case FrequencyKind:
		// Bins are already sorted; write them as an ordered object.
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, b := range v.Freq {
			if i > 0 {
				buf.WriteByte(',')
			}
			label, err := json.Marshal(b.Label)
			if err != nil {
				return nil, err
			}
			buf.Write(label)
			buf.WriteByte(':')
			buf.WriteString(strconv.FormatFloat(b.Count, 'g', -1, 64))
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON infers the kind from the JSON shape. Declared kinds are
// checked later against the registry.
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		*v = Boolean(b)
	case '[':
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("sequence entries: %w", err)
		}
		*v = Sequence(entries...)
	case '{':
		var table map[string]float64
		if err := json.Unmarshal(raw, &table); err != nil {
			return fmt.Errorf("frequency table: %w", err)
		}
		*v = Frequency(table)
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// Any returns the generic document form of the value, the inverse of FromAny.
func (v Value) Any() any {
	switch v.Kind {
	case NumericKind:
		return v.Num
	case TextKind:
		return v.Text
	case BooleanKind:
		return v.Bool
	case SequenceKind:
		out := make([]any, len(v.Seq))
		for i, e := range v.Seq {
			m := map[string]any{"name": e.Name}
			if e.ID != "" {
				m["id"] = e.ID
			}
			if e.Weight != 0 {
				m["weight"] = e.Weight
			}
			out[i] = m
		}
		return out
	case FrequencyKind:
		out := make(map[string]any, len(v.Freq))
		for _, b := range v.Freq {
			out[b.Label] = b.Count
		}
		return out
	default:
		return nil
	}
}

// FromAny converts a generically decoded document value (JSON or YAML) into a Value.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case string:
		return Text(x), nil
	case bool:
		return Boolean(x), nil
	case []any:
		entries := make([]Entry, 0, len(x))
		for i, item := range x {
			e, err := entryFromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("entry %d: %w", i, err)
			}
			entries = append(entries, e)
		}
		return Sequence(entries...), nil
	case map[string]any:
		table := make(map[string]float64, len(x))
		for label, c := range x {
			n, err := FromAny(c)
			if err != nil {
				return Value{}, err
			}
			if n.Kind != NumericKind {
				return Value{}, fmt.Errorf("frequency bin %q is not numeric", label)
			}
			table[label] = n.Num
		}
		return Frequency(table), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func entryFromAny(raw any) (Entry, error) {
	switch x := raw.(type) {
	case string:
		return Entry{Name: x}, nil
	case map[string]any:
		var e Entry
		if id, ok := x["id"].(string); ok {
			e.ID = id
		}
		if name, ok := x["name"].(string); ok {
			e.Name = name
		}
		if w, ok := x["weight"]; ok {
			n, err := FromAny(w)
			if err != nil || n.Kind != NumericKind {
				return Entry{}, fmt.Errorf("weight must be numeric")
			}
			e.Weight = n.Num
		}
		if e.Key() == "" {
			return Entry{}, fmt.Errorf("entry needs an id or a name")
		}
		return e, nil
	default:
		return Entry{}, fmt.Errorf("unsupported entry type %T", raw)
	}
}
