// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loam

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loamhq/loam/route"
	"github.com/loamhq/loam/schema"
)

// ParamMismatchError reports a route whose declared parameter schema does not
// describe the same names as its compiled URL pattern. Serving such a route
// would validate against parameters that never arrive, or let undeclared
// ones through unchecked.
type ParamMismatchError struct {
	// File is the route file's path relative to the build root.
	File string

	// Pattern is the compiled URL pattern.
	Pattern string

	// MissingFromSchema are pattern parameters the schema never mentions.
	MissingFromSchema []string

	// MissingFromPattern are schema properties with no pattern parameter.
	MissingFromPattern []string
}

func (e ParamMismatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "route %q (%s): parameter schema does not match url pattern", e.File, e.Pattern)
	if len(e.MissingFromSchema) > 0 {
		fmt.Fprintf(&sb, ": pattern parameters missing from schema: %s", strings.Join(e.MissingFromSchema, ", "))
	}
	if len(e.MissingFromPattern) > 0 {
		fmt.Fprintf(&sb, ": schema properties missing from pattern: %s", strings.Join(e.MissingFromPattern, ", "))
	}
	return sb.String()
}

// checkParamConsistency compares the names captured by a route's pattern
// against the property names of its declared params description. Routes
// without a params description are exempt, as are wildcard routes, whose
// capture is positional rather than named.
func checkParamConsistency(d route.Descriptor, canon *schema.Canonical) error {
	declared := canon.Part(schema.PartParams)
	if declared == nil {
		return nil
	}
	if d.Wildcard {
		return nil
	}

	params := route.PatternParams(d.Pattern)
	inPattern := make(map[string]struct{}, len(params))
	for _, name := range params {
		inPattern[name] = struct{}{}
	}

	names := schema.PropertyNames(declared)
	inSchema := make(map[string]struct{}, len(names))
	for _, name := range names {
		inSchema[name] = struct{}{}
	}

	var missingFromSchema, missingFromPattern []string
	for name := range inPattern {
		if _, ok := inSchema[name]; !ok {
			missingFromSchema = append(missingFromSchema, name)
		}
	}
	for name := range inSchema {
		if _, ok := inPattern[name]; !ok {
			missingFromPattern = append(missingFromPattern, name)
		}
	}
	if len(missingFromSchema) == 0 && len(missingFromPattern) == 0 {
		return nil
	}

	sort.Strings(missingFromSchema)
	sort.Strings(missingFromPattern)
	return ParamMismatchError{
		File:               d.File,
		Pattern:            d.Pattern,
		MissingFromSchema:  missingFromSchema,
		MissingFromPattern: missingFromPattern,
	}
}
