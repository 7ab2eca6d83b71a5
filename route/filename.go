// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package route compiles a directory tree of handler module files into an
// immutable table of HTTP routes. File names encode the route: dot separated
// path segments, then the HTTP method, then the file extension, e.g.
// "api.users.$id.get.ts" or "api/users/[id].get.ts" spread across nested
// directories.
package route

import (
	"fmt"
	"strings"
)

// EscapeToken marks a literal dot inside a path segment. The dot separating
// the token from its neighbours is part of the compiled path rather than a
// segment separator: "v1[.]0" compiles to the single segment "v1.0".
const EscapeToken = "[.]"

// Methods is the closed set of HTTP method tokens accepted in file names.
// Tokens are lowercase and matched case sensitively.
var Methods = []string{"delete", "get", "head", "patch", "post", "put"}

func validMethod(token string) bool {
	for _, m := range Methods {
		if token == m {
			return true
		}
	}
	return false
}

// Segment is one positional token of a route path. EscapedDot records that
// Value contains dots written with [EscapeToken], which the compilers allow
// where a plain dot could never appear.
type Segment struct {
	Value      string
	EscapedDot bool
}

// Name is a parsed route file name.
type Name struct {
	// Segments are the route path segments encoded in the file name,
	// in order. A name like "get.ts" has none; the route is determined
	// entirely by the directories above it.
	Segments []Segment

	// Method is the HTTP method token.
	Method string

	// Ext is the matched file extension, including the leading dot.
	Ext string
}

// InvalidMethodError is returned for a route file whose method token is not
// one of [Methods]. A bad method token almost always means a typo in the
// file name, so it aborts the whole startup rather than dropping the route.
type InvalidMethodError struct {
	File  string
	Token string
}

func (e InvalidMethodError) Error() string {
	return fmt.Sprintf("%s: invalid http method %q, expected one of %v", e.File, e.Token, Methods)
}

// MalformedNameError is returned for a route file name with too few dot
// separated tokens to hold a method and extension.
type MalformedNameError struct {
	File string
}

func (e MalformedNameError) Error() string {
	return fmt.Sprintf("%s: file name must be of the form <segment>.<method>.<ext>", e.File)
}

// InvalidExtensionError is returned for a configured extension missing its
// leading dot.
type InvalidExtensionError struct {
	Ext string
}

func (e InvalidExtensionError) Error() string {
	return fmt.Sprintf("accepted extension %q must start with a dot", e.Ext)
}

// UnanchoredEscapeError is returned when [EscapeToken] appears with no
// preceding segment to attach the literal dot to.
type UnanchoredEscapeError struct {
	File string
}

func (e UnanchoredEscapeError) Error() string {
	return fmt.Sprintf("%s: escape token %q has no preceding segment", e.File, EscapeToken)
}

// ParseName parses a route file name into its segments, method, and
// extension. The file argument is the full path, used only for diagnostics.
//
// A name whose extension is not in exts is not a route file: ParseName
// reports ok == false and no error, and the caller skips it. Any other
// failure is fatal to startup.
func ParseName(name string, exts []string, file string) (n Name, ok bool, err error) {
	tokens := tokenize(name)

	ext := "." + tokens[len(tokens)-1]
	if !acceptedExt(ext, exts) {
		return Name{}, false, nil
	}
	if len(tokens) < 2 {
		return Name{}, false, MalformedNameError{File: file}
	}

	method := tokens[len(tokens)-2]
	if !validMethod(method) {
		return Name{}, false, InvalidMethodError{File: file, Token: method}
	}

	segs, err := mergeEscapes(tokens[:len(tokens)-2], file)
	if err != nil {
		return Name{}, false, err
	}

	return Name{
		Segments: segs,
		Method:   method,
		Ext:      ext,
	}, true, nil
}

// ParseDirName parses a directory name into route segments using the same
// tokenization and escape merging as file names, minus the method and
// extension tokens.
func ParseDirName(name string, dir string) ([]Segment, error) {
	return mergeEscapes(tokenize(name), dir)
}

func acceptedExt(ext string, exts []string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// tokenize splits a name on dots while treating [EscapeToken] as an atomic
// token, whether or not the author wrote separator dots around it:
// "v1[.]0" and "v1.[.].0" both tokenize to ["v1", "[.]", "0"].
func tokenize(name string) []string {
	var tokens []string
	var cur strings.Builder
	flushed := false

	flush := func() {
		tokens = append(tokens, cur.String())
		cur.Reset()
		flushed = false
	}

	for i := 0; i < len(name); {
		if strings.HasPrefix(name[i:], EscapeToken) {
			if cur.Len() > 0 {
				flush()
			}
			tokens = append(tokens, EscapeToken)
			flushed = true
			i += len(EscapeToken)
			continue
		}
		if name[i] == '.' {
			if flushed {
				// Separator dot directly after an escape token.
				flushed = false
			} else {
				flush()
			}
			i++
			continue
		}
		cur.WriteByte(name[i])
		flushed = false
		i++
	}
	if cur.Len() > 0 || len(tokens) == 0 {
		flush()
	}
	return tokens
}

// mergeEscapes folds escape tokens into their neighbouring segments:
// ["v1", "[.]", "0"] becomes the single segment "v1.0". An escape at the end
// of the list appends a trailing dot to its predecessor.
func mergeEscapes(tokens []string, file string) ([]Segment, error) {
	var segs []Segment
	pending := false
	for _, tok := range tokens {
		if tok == EscapeToken {
			if len(segs) == 0 {
				return nil, UnanchoredEscapeError{File: file}
			}
			segs[len(segs)-1].Value += "."
			segs[len(segs)-1].EscapedDot = true
			pending = true
			continue
		}
		if pending {
			segs[len(segs)-1].Value += tok
			pending = false
			continue
		}
		segs = append(segs, Segment{Value: tok})
	}
	return segs, nil
}
