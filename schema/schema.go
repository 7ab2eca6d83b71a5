// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package schema describes request and response shapes for file based routes.
//
// A shape can be declared in one of two languages:
//
//   - the canonical language: a plain [jsonschema.Schema] document, used
//     directly for documentation and validated structurally at request time.
//   - the parse language: a [Schema] built with this package's combinators,
//     which validates and transforms values itself and can describe its own
//     canonical form.
//
// Both languages can be mixed freely within a single [Bundle]. [Normalize]
// reduces every part to its canonical description for documentation while
// recording, out of band, which language each part was written in.
package schema

import (
	"context"

	"github.com/swaggest/jsonschema-go"
)

// Issue is a single validation finding, located by a dot separated path
// relative to the value being validated. An empty path refers to the value
// itself.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + " " + i.Message
}

// Schema is the parse language: a self validating description of a value.
//
// Parse validates the given value and returns the validated, possibly
// transformed, result (defaults filled in, strings parsed into richer types).
// A non-empty issue list means validation failed and the returned value must
// be discarded.
//
// JSONSchema reports the canonical description of the same shape for
// documentation purposes.
type Schema interface {
	Parse(ctx context.Context, value any) (any, []Issue)

	JSONSchema() (jsonschema.Schema, error)
}

func issuef(path, message string) Issue {
	return Issue{
		Path:    path,
		Message: message,
	}
}

func childPath(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}
	return parent + "." + name
}
