// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"fmt"
	"strings"
)

// Convention selects which segment grammar encodes named parameters and
// wildcards. A directory walk uses exactly one convention for every file it
// visits; the two grammars cannot be mixed.
type Convention int

const (
	// ConventionSigil marks parameters with a leading '$': "$id" is the
	// parameter id and a bare "$" is a trailing wildcard.
	ConventionSigil Convention = iota

	// ConventionBracket wraps parameters in brackets: "[id]" is the
	// parameter id and "[...rest]" is a trailing wildcard.
	ConventionBracket
)

func (c Convention) String() string {
	switch c {
	case ConventionSigil:
		return "sigil"
	case ConventionBracket:
		return "bracket"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// UnknownConventionError is returned when a configured convention name is
// not recognized.
type UnknownConventionError struct {
	Name string
}

func (e UnknownConventionError) Error() string {
	return fmt.Sprintf("unknown naming convention %q, expected %q or %q", e.Name, ConventionSigil, ConventionBracket)
}

// ParseConvention resolves a configured convention name.
func ParseConvention(name string) (Convention, error) {
	switch name {
	case "sigil":
		return ConventionSigil, nil
	case "bracket":
		return ConventionBracket, nil
	default:
		return 0, UnknownConventionError{Name: name}
	}
}

const (
	sigil        = "$"
	spreadMarker = "..."
	wildcardStar = "*"
)

// InvalidSegmentError is returned when a segment does not fit the selected
// convention's grammar.
type InvalidSegmentError struct {
	File       string
	Segment    string
	Convention Convention
	Reason     string
}

func (e InvalidSegmentError) Error() string {
	return fmt.Sprintf("%s: segment %q: %s (%s convention)", e.File, e.Segment, e.Reason, e.Convention)
}

// Compiled is the result of compiling an ordered segment list: the URL
// pattern relative to the mount point, with parameters in ":name" notation
// and a trailing "*" for wildcard routes.
type Compiled struct {
	// Pattern is the "/" joined pattern without a leading slash,
	// e.g. "api/users/:id".
	Pattern string

	// Params lists the named parameters in path order.
	Params []string

	// Wildcard reports whether the route ends in a wildcard segment.
	Wildcard bool
}

// Compile converts an ordered segment list into a URL pattern under the
// given convention. Compilation is pure: the same segments and convention
// always produce the same pattern.
//
// Wildcards match the whole remaining path suffix, so a wildcard segment
// anywhere but last can never match and is rejected.
func Compile(segs []Segment, conv Convention, file string) (Compiled, error) {
	var c Compiled
	parts := make([]string, 0, len(segs))
	seen := make(map[string]struct{})

	for i, seg := range segs {
		if c.Wildcard {
			return Compiled{}, InvalidSegmentError{
				File:       file,
				Segment:    segs[i-1].Value,
				Convention: conv,
				Reason:     "wildcard must be the last segment",
			}
		}

		var compiled compiledSegment
		var err error
		switch conv {
		case ConventionSigil:
			compiled, err = compileSigil(seg, file)
		case ConventionBracket:
			compiled, err = compileBracket(seg, file)
		default:
			return Compiled{}, UnknownConventionError{Name: fmt.Sprint(int(conv))}
		}
		if err != nil {
			return Compiled{}, err
		}

		if compiled.param != "" {
			if _, dup := seen[compiled.param]; dup {
				return Compiled{}, InvalidSegmentError{
					File:       file,
					Segment:    seg.Value,
					Convention: conv,
					Reason:     fmt.Sprintf("duplicate parameter %q", compiled.param),
				}
			}
			seen[compiled.param] = struct{}{}
			c.Params = append(c.Params, compiled.param)
		}
		c.Wildcard = c.Wildcard || compiled.wildcard
		parts = append(parts, compiled.text)
	}

	c.Pattern = strings.Join(parts, "/")
	return c, nil
}

type compiledSegment struct {
	text     string
	param    string
	wildcard bool
}

func compileSigil(seg Segment, file string) (compiledSegment, error) {
	fail := func(reason string) (compiledSegment, error) {
		return compiledSegment{}, InvalidSegmentError{
			File:       file,
			Segment:    seg.Value,
			Convention: ConventionSigil,
			Reason:     reason,
		}
	}

	if seg.Value == sigil {
		return compiledSegment{text: wildcardStar, wildcard: true}, nil
	}

	if strings.HasPrefix(seg.Value, sigil) {
		name, suffix := seg.Value[1:], ""
		if seg.EscapedDot {
			// An escaped dot closes off the parameter name; the rest of
			// the segment is a literal suffix.
			name, suffix, _ = strings.Cut(name, ".")
			suffix = "." + suffix
		}
		if name == "" {
			if suffix != "" {
				return fail("wildcard cannot carry a literal suffix")
			}
			return compiledSegment{text: wildcardStar, wildcard: true}, nil
		}
		if !literalName(name) {
			return fail("parameter name must contain only letters, digits, '-' and '_'")
		}
		if suffix != "" && !literalText(suffix[1:], seg.EscapedDot) {
			return fail("invalid characters after escaped dot")
		}
		return compiledSegment{text: ":" + name + suffix, param: name}, nil
	}

	if strings.ContainsAny(seg.Value, "[]") {
		return fail("brackets are reserved by the bracket convention")
	}
	if !literalText(seg.Value, seg.EscapedDot) {
		return fail("literal segment must contain only letters, digits, '-' and '_'")
	}
	return compiledSegment{text: seg.Value}, nil
}

func compileBracket(seg Segment, file string) (compiledSegment, error) {
	fail := func(reason string) (compiledSegment, error) {
		return compiledSegment{}, InvalidSegmentError{
			File:       file,
			Segment:    seg.Value,
			Convention: ConventionBracket,
			Reason:     reason,
		}
	}

	if strings.HasPrefix(seg.Value, sigil) {
		return fail("'$' parameters belong to the sigil convention")
	}

	if strings.HasPrefix(seg.Value, "[") {
		end := strings.IndexByte(seg.Value, ']')
		if end < 0 {
			return fail("unterminated bracket")
		}
		content := seg.Value[1:end]
		suffix := seg.Value[end+1:]
		if suffix != "" {
			// Only an escaped dot can legally follow a parameter,
			// e.g. "[version][.]0" compiling to ":version.0".
			if !seg.EscapedDot || !strings.HasPrefix(suffix, ".") {
				return fail("text after closing bracket")
			}
			if !literalText(suffix[1:], seg.EscapedDot) {
				return fail("invalid characters after escaped dot")
			}
		}

		if content == "" {
			return fail("empty parameter brackets")
		}
		if strings.HasPrefix(content, spreadMarker) {
			if suffix != "" {
				return fail("wildcard cannot carry a literal suffix")
			}
			name := content[len(spreadMarker):]
			if name != "" && !literalName(name) {
				return fail("wildcard name must contain only letters, digits, '-' and '_'")
			}
			return compiledSegment{text: wildcardStar, wildcard: true}, nil
		}
		if !literalName(content) {
			return fail("parameter name must contain only letters, digits, '-' and '_'")
		}
		return compiledSegment{text: ":" + content + suffix, param: content}, nil
	}

	if strings.ContainsAny(seg.Value, "[]") {
		return fail("brackets may only wrap a whole parameter segment")
	}
	if !literalText(seg.Value, seg.EscapedDot) {
		return fail("literal segment must contain only letters, digits, '-' and '_'")
	}
	return compiledSegment{text: seg.Value}, nil
}

func literalName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !literalRune(r) {
			return false
		}
	}
	return true
}

// literalText validates a literal segment. Dots are only legal when they
// were written with the escape token.
func literalText(s string, escapedDot bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '.' {
			if !escapedDot {
				return false
			}
			continue
		}
		if !literalRune(r) {
			return false
		}
	}
	return true
}

func literalRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return true
	default:
		return false
	}
}
