// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"
	"sort"

	"github.com/swaggest/jsonschema-go"
)

// Kind identifies which description language a [Field] was written in.
type Kind int

const (
	// KindUnset marks a part with no declared description. Unset parts are
	// not validated and pass through requests unchanged.
	KindUnset Kind = iota

	// KindA marks a part described directly in the canonical language.
	KindA

	// KindB marks a part described in the parse language.
	KindB
)

func (k Kind) String() string {
	switch k {
	case KindA:
		return "canonical"
	case KindB:
		return "parse"
	default:
		return "unset"
	}
}

// Field tags a part description with the language it was written in.
// The zero value is an unset field.
type Field struct {
	kind Kind
	a    *jsonschema.Schema
	b    Schema
}

// A wraps a canonical description.
func A(s *jsonschema.Schema) Field {
	return Field{
		kind: KindA,
		a:    s,
	}
}

// B wraps a parse language description.
func B(s Schema) Field {
	return Field{
		kind: KindB,
		b:    s,
	}
}

// Kind reports which language the field was written in.
func (f Field) Kind() Kind {
	return f.kind
}

// IsZero reports whether the field carries no description.
func (f Field) IsZero() bool {
	return f.kind == KindUnset
}

// ParseSchema returns the original parse language description,
// if the field was written in it.
func (f Field) ParseSchema() (Schema, bool) {
	return f.b, f.kind == KindB
}

// NilDescriptionError is returned when a part is tagged as described
// but carries no description object.
type NilDescriptionError struct {
	Kind Kind
}

func (e NilDescriptionError) Error() string {
	return fmt.Sprintf("nil %s description", e.Kind)
}

// Canonical converts the field to its canonical description.
//
// Canonical descriptions are returned as written, aside from stripping the
// self referential schema identifier. Parse language descriptions are
// converted through [Schema.JSONSchema] and stripped the same way: the
// identifier names the source document, not the shape, and must never leak
// into documentation output.
func (f Field) Canonical() (*jsonschema.Schema, error) {
	switch f.kind {
	case KindA:
		if f.a == nil {
			return nil, NilDescriptionError{Kind: KindA}
		}
		s := *f.a
		stripIdentifier(&s)
		return &s, nil
	case KindB:
		if f.b == nil {
			return nil, NilDescriptionError{Kind: KindB}
		}
		s, err := f.b.JSONSchema()
		if err != nil {
			return nil, err
		}
		stripIdentifier(&s)
		return &s, nil
	default:
		return nil, nil
	}
}

func stripIdentifier(s *jsonschema.Schema) {
	s.ID = nil
	if _, ok := s.ExtraProperties["$id"]; !ok {
		return
	}

	// The shallow copy of the schema still aliases the author's map, so
	// deleting in place would mutate their description object.
	extra := make(map[string]any, len(s.ExtraProperties)-1)
	for k, v := range s.ExtraProperties {
		if k == "$id" {
			continue
		}
		extra[k] = v
	}
	s.ExtraProperties = extra
}

// PropertyNames lists the property names declared by a canonical object
// description, sorted lexically.
func PropertyNames(s *jsonschema.Schema) []string {
	if s == nil {
		return nil
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
