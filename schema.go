package arbor

import (
	"fmt"
	"strings"
)

// Schema describes the top-level fields of a collection of documents.
// A nil *Schema means no schema is known.
type Schema struct {
	Fields []SchemaField `json:"fields" yaml:"fields"`
}

type SchemaField struct {
	Name string `json:"name" yaml:"name"`
	// Kind is the single kind of every non-null value of the field or
	// KindMixed.  It is KindNull when only nulls were seen.
	Kind Kind `json:"kind" yaml:"kind"`
	// Nullable is set when some document holds an explicit null.
	Nullable bool `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	// Optional is set when the field is absent from some document.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

func (s *Schema) Lookup(name string) (SchemaField, bool) {
	if s == nil {
		return SchemaField{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

func (s *Schema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

func (s *Schema) String() string {
	if s == nil {
		return "<none>"
	}
	var b strings.Builder
	b.WriteByte('{')
	for k, f := range s.Fields {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Kind.String())
		if f.Nullable {
			b.WriteString("|null")
		}
		if f.Optional {
			b.WriteByte('?')
		}
	}
	b.WriteByte('}')
	return b.String()
}

// Merge combines two schemas describing disjoint sets of documents.
// Fields present in only one become optional.  If either schema is
// nil, the result is nil.
func (s *Schema) Merge(other *Schema) *Schema {
	if s == nil || other == nil {
		return nil
	}
	out := &Schema{}
	for _, f := range s.Fields {
		g, ok := other.Lookup(f.Name)
		if !ok {
			f.Optional = true
			out.Fields = append(out.Fields, f)
			continue
		}
		f.Kind = mergeKind(f.Kind, g.Kind)
		f.Nullable = f.Nullable || g.Nullable
		f.Optional = f.Optional || g.Optional
		out.Fields = append(out.Fields, f)
	}
	for _, g := range other.Fields {
		if !s.Has(g.Name) {
			g.Optional = true
			out.Fields = append(out.Fields, g)
		}
	}
	return out
}

func mergeKind(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == KindNull:
		return b
	case b == KindNull:
		return a
	}
	return KindMixed
}

// SchemaBuilder accumulates a Schema one document at a time.
type SchemaBuilder struct {
	fields []SchemaField
	index  map[string]int
	seen   []int
	docs   int
}

func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{index: make(map[string]int)}
}

// Observe records a top-level field of the current document.
func (s *SchemaBuilder) Observe(name string, kind Kind) {
	i, ok := s.index[name]
	if !ok {
		i = len(s.fields)
		s.index[name] = i
		s.fields = append(s.fields, SchemaField{Name: name, Kind: KindNull})
		s.seen = append(s.seen, 0)
	}
	f := &s.fields[i]
	if kind == KindNull {
		f.Nullable = true
	} else {
		f.Kind = mergeKind(f.Kind, kind)
	}
	s.seen[i]++
}

// Next ends the current document.
func (s *SchemaBuilder) Next() {
	s.docs++
}

func (s *SchemaBuilder) Schema() *Schema {
	out := &Schema{Fields: make([]SchemaField, len(s.fields))}
	for i, f := range s.fields {
		f.Optional = s.seen[i] < s.docs
		out.Fields[i] = f
	}
	return out
}

// ObserveValue records every top-level field of an object document.
// Non-object documents contribute no fields.
func (s *SchemaBuilder) ObserveValue(v Value) {
	for _, f := range v.Fields() {
		s.Observe(f.Name, f.Value.Kind())
	}
	s.Next()
}

func (f SchemaField) String() string {
	return fmt.Sprintf("%s:%s", f.Name, f.Kind)
}
