package study

import (
	"encoding/json"
	"fmt"
)

// ValueKind enumerates the value types an annotation note may hold.
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindNull    ValueKind = "null"
)

// NoteKeyType declares one key of an annotation note schema.
type NoteKeyType struct {
	Key  string    `json:"key"`
	Type ValueKind `json:"type"`
}

// NoteSchema is the declared set of note keys for an annotation.
type NoteSchema []NoteKeyType

// TypeOf returns the declared kind for a key, or false if undeclared.
func (s NoteSchema) TypeOf(key string) (ValueKind, bool) {
	for _, kt := range s {
		if kt.Key == key {
			return kt.Type, true
		}
	}
	return "", false
}

// NoteValue is a tagged union over the kinds a note value may hold.
// Dynamic payloads are decoded into this at the boundary; untyped
// values never propagate inward.
type NoteValue struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// String constructs a string-valued note.
func StringValue(s string) NoteValue { return NoteValue{Kind: KindString, Str: s} }

// NumberValue constructs a number-valued note.
func NumberValue(n float64) NoteValue { return NoteValue{Kind: KindNumber, Num: n} }

// BoolValue constructs a boolean-valued note.
func BoolValue(b bool) NoteValue { return NoteValue{Kind: KindBoolean, Bool: b} }

// NullValue constructs a null note. Null is accepted for any declared key.
func NullValue() NoteValue { return NoteValue{Kind: KindNull} }

// MarshalJSON encodes the value as its plain JSON representation.
func (v NoteValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindNull, "":
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("unknown note value kind %q", v.Kind)
}

// UnmarshalJSON decodes a plain JSON value into the tagged union.
// Objects and arrays are rejected.
func (v *NoteValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NullValue()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	return fmt.Errorf("note value must be string, number, boolean, or null: %s", string(data))
}

// Annotation maps analysis keys to typed note values under a declared
// schema. Annotations are edited through the same entity-store
// machinery as studies.
type Annotation struct {
	ID      string               `json:"id"`
	StudyID string               `json:"study_id,omitempty"`
	Schema  NoteSchema           `json:"note_keys,omitempty"`
	Notes   map[string]NoteValue `json:"notes,omitempty"`
}

// ValidateNotes checks that every note key is declared by the schema
// and that every value matches its declared kind. Null is allowed for
// any declared key.
func ValidateNotes(schema NoteSchema, notes map[string]NoteValue) error {
	for key, val := range notes {
		declared, ok := schema.TypeOf(key)
		if !ok {
			return fmt.Errorf("note key %q not declared in schema", key)
		}
		if val.Kind == KindNull || val.Kind == "" {
			continue
		}
		if val.Kind != declared {
			return fmt.Errorf("note key %q: schema declares %s, value is %s", key, declared, val.Kind)
		}
	}
	return nil
}
