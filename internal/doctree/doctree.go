package doctree

import "errors"

// ErrInvalidInput is returned when a value is not a recognized tree shape.
var ErrInvalidInput = errors.New("invalid input")

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindText
	KindSequence
	KindMapping
)

// String returns the kind name used in chunk metadata.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// IsScalar reports whether k is one of the leaf kinds.
func (k Kind) IsScalar() bool {
	return k >= KindNull && k <= KindText
}

// Value is a node of a document tree: a mapping, a sequence or a scalar.
// Containers hold pointers so a node can be mutated in place while its
// parent keeps referencing it.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	textVal  string

	items   []*Value
	entries []Entry
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   string
	Value *Value
}

// Null returns a null scalar.
func Null() *Value { return &Value{kind: KindNull} }

// Bool returns a boolean scalar.
func Bool(b bool) *Value { return &Value{kind: KindBool, boolVal: b} }

// Int returns an integer scalar.
func Int(n int64) *Value { return &Value{kind: KindInt, intVal: n} }

// Float returns a floating-point scalar.
func Float(f float64) *Value { return &Value{kind: KindFloat, floatVal: f} }

// Text returns a text scalar.
func Text(s string) *Value { return &Value{kind: KindText, textVal: s} }

// Sequence returns a sequence holding items.
func Sequence(items ...*Value) *Value { return &Value{kind: KindSequence, items: items} }

// Mapping builds a mapping from entries. Later duplicates replace earlier
// values but keep the first position.
func Mapping(entries ...Entry) *Value {
	m := &Value{kind: KindMapping}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Kind returns the variant of v. A nil value reports KindInvalid.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindInvalid
	}
	return v.kind
}

func (v *Value) BoolValue() bool { return v.boolVal }
func (v *Value) IntValue() int64 { return v.intVal }
func (v *Value) FloatValue() float64 { return v.floatVal }
func (v *Value) TextValue() string { return v.textVal }

// Items returns the elements of a sequence.
func (v *Value) Items() []*Value {
	if v.Kind() != KindSequence {
		return nil
	}
	return v.items
}

// Entries returns the key/value pairs of a mapping in insertion order.
func (v *Value) Entries() []Entry {
	if v.Kind() != KindMapping {
		return nil
	}
	return v.entries
}

// Len returns the number of children of a container, or 0 for scalars.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	}
	return 0
}

// Get looks up key in a mapping.
func (v *Value) Get(key string) (*Value, bool) {
	for _, e := range v.Entries() {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set stores val under key. An existing key keeps its position.
func (v *Value) Set(key string, val *Value) {
	if v.kind != KindMapping {
		return
	}
	for i := range v.entries {
		if v.entries[i].Key == key {
			v.entries[i].Value = val
			return
		}
	}
	v.entries = append(v.entries, Entry{Key: key, Value: val})
}

// Append adds val to the end of a sequence.
func (v *Value) Append(val *Value) {
	if v.kind != KindSequence {
		return
	}
	v.items = append(v.items, val)
}

// ToSequence turns a mapping into a sequence in place. Existing entries are
// kept as single-entry mappings so nothing is dropped.
func (v *Value) ToSequence() {
	if v.kind != KindMapping {
		return
	}
	var items []*Value
	for _, e := range v.entries {
		items = append(items, Mapping(e))
	}
	*v = Value{kind: KindSequence, items: items}
}

// Chunk is one emitted markup line with its breadcrumb and classification.
type Chunk struct {
	Content  string   `json:"content"`
	Path     string   `json:"path"`
	Metadata Metadata `json:"metadata"`
}

// ChunkType classifies how a chunk line was produced.
type ChunkType string

const (
	ChunkHeading  ChunkType = "heading"
	ChunkValue    ChunkType = "value"
	ChunkListItem ChunkType = "list_item"
)

// Metadata describes a chunk. Key and ValueType are empty for list items;
// Index is only set for list items.
type Metadata struct {
	Type      ChunkType `json:"type"`
	Level     int       `json:"level"`
	Key       string    `json:"key,omitempty"`
	ValueType string    `json:"value_type,omitempty"`
	Index     *int      `json:"index,omitempty"`
}
