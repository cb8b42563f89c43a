package record

import "strings"

// Kind is the storage type of a field.
type Kind uint8

// Field kinds.
const (
	Invalid Kind = iota
	Float64
	Int64
	String
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case String:
		return "string"
	default:
		return "invalid"
	}
}

// Numeric reports whether values of this kind can be compared to ranges.
func (k Kind) Numeric() bool {
	return k == Float64 || k == Int64
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "float64", "float", "double":
		return Float64
	case "int64", "int", "integer":
		return Int64
	case "string", "str":
		return String
	default:
		return Invalid
	}
}

// Field is a named, typed column.
type Field struct {
	Name string
	Kind Kind
}

// Schema is an ordered set of uniquely named fields. Schemas are
// immutable once built.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, ErrEmptyFieldName
		}
		if f.Kind == Invalid {
			return nil, fieldErr(f.Name, ErrKindMismatch)
		}
		if _, ok := s.index[f.Name]; ok {
			return nil, fieldErr(f.Name, ErrFieldExists)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema contains name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the position of name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// With returns a new schema with f appended.
func (s *Schema) With(f Field) (*Schema, error) {
	return NewSchema(append(s.Fields(), f)...)
}
