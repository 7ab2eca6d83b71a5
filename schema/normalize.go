// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"

	"github.com/swaggest/jsonschema-go"
)

// Canonical is the documentation facing form of a [Bundle]: every declared
// part reduced to its canonical description. It carries no record of which
// language a part was written in; that lives in [Provenance] so documentation
// consumers never see validator internals.
type Canonical struct {
	Parts     map[Part]*jsonschema.Schema
	Responses map[int]*jsonschema.Schema

	Doc Doc
}

// Part returns the canonical description for the named part, or nil if the
// part was not declared.
func (c *Canonical) Part(p Part) *jsonschema.Schema {
	if c == nil {
		return nil
	}
	return c.Parts[p]
}

// Origin identifies the description language a part was originally written
// in.
type Origin int

const (
	OriginA Origin = iota + 1
	OriginB
)

type partRecord struct {
	origin Origin
	parse  Schema
}

// Provenance records, per part and per response status, which language the
// author used, retaining the original parse language description for request
// time dispatch. It is keyed out of band and never attached to [Canonical].
type Provenance struct {
	parts     map[Part]partRecord
	responses map[int]partRecord
}

// Empty reports whether no request part was declared. Routes with empty
// request provenance need no validation hook.
func (p *Provenance) Empty() bool {
	return p == nil || len(p.parts) == 0
}

// Origin reports the language the named part was written in.
func (p *Provenance) Origin(part Part) (Origin, bool) {
	if p == nil {
		return 0, false
	}
	rec, ok := p.parts[part]
	return rec.origin, ok
}

// ParseSchema returns the retained parse language description for the named
// part. It only returns true for parts with [OriginB].
func (p *Provenance) ParseSchema(part Part) (Schema, bool) {
	if p == nil {
		return nil, false
	}
	rec, ok := p.parts[part]
	if !ok || rec.origin != OriginB {
		return nil, false
	}
	return rec.parse, true
}

// ResponseParseSchema returns the retained parse language description for
// the given response status. It only returns true for statuses declared in
// the parse language.
func (p *Provenance) ResponseParseSchema(status int) (Schema, bool) {
	if p == nil {
		return nil, false
	}
	rec, ok := p.responses[status]
	if !ok || rec.origin != OriginB {
		return nil, false
	}
	return rec.parse, true
}

// ValidatesResponses reports whether any response status was declared in the
// parse language. Canonical response descriptions are documentation only;
// only parse language descriptions are enforced after the handler runs.
func (p *Provenance) ValidatesResponses() bool {
	if p == nil {
		return false
	}
	for _, rec := range p.responses {
		if rec.origin == OriginB {
			return true
		}
	}
	return false
}

// PartError wraps an error with the request part (or response status) whose
// description caused it.
type PartError struct {
	Part  string
	Cause error
}

func (e PartError) Error() string {
	return fmt.Sprintf("schema for %s: %v", e.Part, e.Cause)
}

func (e PartError) Unwrap() error {
	return e.Cause
}

// Normalize reduces a [Bundle] to its canonical, documentation ready form
// and the out of band provenance map used for request time dispatch.
//
// Normalizing an already canonical part returns its description unchanged,
// aside from the stripped schema identifier. A nil bundle normalizes to an
// empty canonical bundle and empty provenance.
func Normalize(b *Bundle) (*Canonical, *Provenance, error) {
	canon := &Canonical{
		Parts:     make(map[Part]*jsonschema.Schema),
		Responses: make(map[int]*jsonschema.Schema),
	}
	prov := &Provenance{
		parts:     make(map[Part]partRecord),
		responses: make(map[int]partRecord),
	}
	if b == nil {
		return canon, prov, nil
	}
	canon.Doc = b.Doc

	for _, part := range Parts() {
		f := b.part(part)
		if f.IsZero() {
			continue
		}

		cs, err := f.Canonical()
		if err != nil {
			return nil, nil, PartError{Part: string(part), Cause: err}
		}

		canon.Parts[part] = cs
		prov.parts[part] = record(f)
	}

	for status, f := range b.Responses {
		if f.IsZero() {
			continue
		}

		cs, err := f.Canonical()
		if err != nil {
			return nil, nil, PartError{Part: fmt.Sprintf("response %d", status), Cause: err}
		}

		canon.Responses[status] = cs
		prov.responses[status] = record(f)
	}

	return canon, prov, nil
}

func record(f Field) partRecord {
	rec := partRecord{origin: OriginA}
	if ps, ok := f.ParseSchema(); ok {
		rec.origin = OriginB
		rec.parse = ps
	}
	return rec
}
