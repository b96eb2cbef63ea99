package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind tags the variant held by a ChangeValue.
type ValueKind uint8

const (
	KindString ValueKind = iota + 1
	KindUint8
	KindBool
)

// noneText is how an absent change side renders in message bodies.
const noneText = "None"

// ChangeValue is one side of a change entry: a string, a small unsigned
// integer or a boolean. It is decoded by trial in exactly that order, so a
// quoted "7" is the string variant and never coerced to a number.
type ChangeValue struct {
	Kind ValueKind
	Str  string
	Num  uint8
	Bool bool
}

// StringValue constructs the string variant.
func StringValue(s string) *ChangeValue { return &ChangeValue{Kind: KindString, Str: s} }

// Uint8Value constructs the integer variant.
func Uint8Value(n uint8) *ChangeValue { return &ChangeValue{Kind: KindUint8, Num: n} }

// BoolValue constructs the boolean variant.
func BoolValue(b bool) *ChangeValue { return &ChangeValue{Kind: KindBool, Bool: b} }

// IsString reports whether v is the string variant holding s. Nil-safe.
func (v *ChangeValue) IsString(s string) bool {
	return v != nil && v.Kind == KindString && v.Str == s
}

// IsBool reports whether v is the boolean variant holding b. Nil-safe.
func (v *ChangeValue) IsBool(b bool) bool {
	return v != nil && v.Kind == KindBool && v.Bool == b
}

// String renders the natural textual form of the variant; nil renders "None".
func (v *ChangeValue) String() string {
	if v == nil {
		return noneText
	}
	switch v.Kind {
	case KindString:
		return v.Str
	case KindUint8:
		return strconv.FormatUint(uint64(v.Num), 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return noneText
	}
}

// UnmarshalJSON tries string, then uint8, then bool. The first representation
// that decodes wins; if none does the value is rejected.
func (v *ChangeValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ChangeValue{Kind: KindString, Str: s}
		return nil
	}

	var n uint8
	if err := json.Unmarshal(data, &n); err == nil {
		*v = ChangeValue{Kind: KindUint8, Num: n}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = ChangeValue{Kind: KindBool, Bool: b}
		return nil
	}

	return fmt.Errorf("change value %s is not a string, small integer or boolean", truncateRaw(data))
}

// MarshalJSON writes the variant in its native JSON type.
func (v ChangeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindUint8:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("change value has no kind")
	}
}

// Change is a field-level {from, to} delta. Either side may be absent.
type Change struct {
	From *ChangeValue `json:"from"`
	To   *ChangeValue `json:"to"`
}

// UnmarshalJSON decodes both sides, treating a missing key or an explicit
// null as absent.
func (c *Change) UnmarshalJSON(data []byte) error {
	var raw struct {
		From json.RawMessage `json:"from"`
		To   json.RawMessage `json:"to"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	from, err := decodeSide(raw.From)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := decodeSide(raw.To)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	c.From, c.To = from, to
	return nil
}

func decodeSide(raw json.RawMessage) (*ChangeValue, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var v ChangeValue
	if err := v.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return &v, nil
}

func truncateRaw(data []byte) string {
	const limit = 32
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
