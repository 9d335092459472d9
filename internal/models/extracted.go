package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ExtractedField is a single value pulled out of a document.
type ExtractedField struct {
	Value         string `json:"value"`
	Reasoning     string `json:"reasoning"`
	OriginalValue string `json:"original_value,omitempty"`
}

type EntryKind int

const (
	// KindField is an object carrying a "value" key.
	KindField EntryKind = iota
	// KindMetadata is any key starting with "_". Never mapped or normalised.
	KindMetadata
	// KindOpaque is any other JSON value. Renamed by the mapper but
	// otherwise passed through untouched.
	KindOpaque
)

// Entry is one value of ExtractedData.
type Entry struct {
	Kind  EntryKind
	Field ExtractedField
	Raw   json.RawMessage
}

func FieldEntry(value, reasoning string) Entry {
	return Entry{Kind: KindField, Field: ExtractedField{Value: value, Reasoning: reasoning}}
}

func MetadataEntry(v interface{}) Entry {
	raw, err := json.Marshal(v)
	if err != nil {
		raw = []byte("null")
	}
	return Entry{Kind: KindMetadata, Raw: raw}
}

func OpaqueEntry(v interface{}) Entry {
	e := MetadataEntry(v)
	e.Kind = KindOpaque
	return e
}

func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, "_")
}

// Text returns the string the matcher scores: the field value, or the
// raw value for opaque entries (unquoted if it is a JSON string).
func (e Entry) Text() string {
	if e.Kind == KindField {
		return e.Field.Value
	}
	var s string
	if err := json.Unmarshal(e.Raw, &s); err == nil {
		return s
	}
	return string(e.Raw)
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Kind == KindField {
		return json.Marshal(e.Field)
	}
	if len(e.Raw) == 0 {
		return []byte("null"), nil
	}
	return e.Raw, nil
}

// ExtractedData maps field names, canonical or free text, to entries.
type ExtractedData map[string]Entry

func (d *ExtractedData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(ExtractedData, len(raw))
	for k, v := range raw {
		out[k] = decodeEntry(k, v)
	}
	*d = out
	return nil
}

func decodeEntry(key string, v json.RawMessage) Entry {
	if IsMetadataKey(key) {
		return Entry{Kind: KindMetadata, Raw: v}
	}

	var obj map[string]json.RawMessage
	if bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) && json.Unmarshal(v, &obj) == nil {
		if rawValue, ok := obj["value"]; ok {
			return Entry{Kind: KindField, Field: ExtractedField{
				Value:         scalarString(rawValue),
				Reasoning:     scalarString(obj["reasoning"]),
				OriginalValue: scalarString(obj["original_value"]),
			}}
		}
	}
	return Entry{Kind: KindOpaque, Raw: v}
}

// scalarString renders numbers and booleans the LLM sometimes returns
// instead of strings.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}

// Keys returns the keys in sorted order.
func (d ExtractedData) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d ExtractedData) Clone() ExtractedData {
	out := make(ExtractedData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (d ExtractedData) SetMetadata(key string, v interface{}) {
	d[key] = MetadataEntry(v)
}

// MetadataString returns a metadata value if it is a JSON string.
func (d ExtractedData) MetadataString(key string) (string, bool) {
	e, ok := d[key]
	if !ok || e.Kind != KindMetadata {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Field returns the field stored under key, if key holds a field entry.
func (d ExtractedData) Field(key string) (ExtractedField, bool) {
	e, ok := d[key]
	if !ok || e.Kind != KindField {
		return ExtractedField{}, false
	}
	return e.Field, true
}

// ContextData carries facts the caller already knows about the claim.
type ContextData struct {
	DeceasedName           string `json:"deceasedName,omitempty"`
	RelationshipToDeceased string `json:"relationshipToDeceased,omitempty"`
}

func (c ContextData) IsEmpty() bool {
	return c.DeceasedName == "" && c.RelationshipToDeceased == ""
}

// MetadataText returns a metadata value that is either a JSON string or an
// object carrying a "value" string, as _fileType and _documentType do.
func (d ExtractedData) MetadataText(key string) (string, bool) {
	if s, ok := d.MetadataString(key); ok {
		return s, true
	}
	e, ok := d[key]
	if !ok || e.Kind != KindMetadata {
		return "", false
	}
	var f ExtractedField
	if err := json.Unmarshal(e.Raw, &f); err != nil || f.Value == "" {
		return "", false
	}
	return f.Value, true
}
