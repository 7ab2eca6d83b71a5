// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/swaggest/jsonschema-go"
)

// CheckOptions configure [Check].
type CheckOptions struct {
	// Coerce enables lenient string conversion before type checking:
	// "true"/"false" become booleans and numeric strings become numbers.
	// Query strings and path parameters always arrive as strings, so
	// checking them without coercion would reject every declared number.
	Coerce bool

	// FillDefaults substitutes a property's declared default when the
	// property is absent.
	FillDefaults bool
}

// Check validates a value structurally against a canonical description and
// returns the checked, possibly coerced and defaulted, value.
//
// Check covers the subset of the canonical language produced by this module:
// primitive types, object properties and required lists, array items, numeric
// bounds, string length and pattern, and enums. Descriptions outside that
// subset pass unchecked rather than failing; refusing to serve a route over
// an exotic keyword would turn a documentation nicety into an outage.
func Check(s *jsonschema.Schema, value any, opts CheckOptions) (any, []Issue) {
	if s == nil {
		return value, nil
	}
	return check(s, value, "", opts)
}

func check(s *jsonschema.Schema, value any, path string, opts CheckOptions) (any, []Issue) {
	if value == nil && s.Default != nil && opts.FillDefaults {
		value = *s.Default
	}

	if value != nil && opts.Coerce {
		value = coerce(s, value)
	}

	switch {
	case hasType(s, jsonschema.Object):
		return checkObject(s, value, path, opts)
	case hasType(s, jsonschema.Array):
		return checkArray(s, value, path, opts)
	case hasType(s, jsonschema.String):
		return checkString(s, value, path)
	case hasType(s, jsonschema.Integer):
		return checkInteger(s, value, path)
	case hasType(s, jsonschema.Number):
		return checkNumber(s, value, path)
	case hasType(s, jsonschema.Boolean):
		return checkBoolean(value, path)
	default:
		return value, nil
	}
}

func hasType(s *jsonschema.Schema, t jsonschema.SimpleType) bool {
	if s.Type == nil {
		return false
	}
	if s.Type.SimpleTypes != nil {
		return *s.Type.SimpleTypes == t
	}
	for _, st := range s.Type.SliceOfSimpleTypeValues {
		if st == t {
			return true
		}
	}
	return false
}

// coerce converts string values into the scalar type the description
// declares. Unconvertible strings are returned unchanged and left for the
// type check to report.
func coerce(s *jsonschema.Schema, value any) any {
	str, ok := value.(string)
	if !ok {
		return value
	}

	switch {
	case hasType(s, jsonschema.Boolean):
		switch str {
		case "true":
			return true
		case "false":
			return false
		}
	case hasType(s, jsonschema.Integer), hasType(s, jsonschema.Number):
		n, err := strconv.ParseFloat(str, 64)
		if err == nil {
			return n
		}
	}
	return value
}

func checkObject(s *jsonschema.Schema, value any, path string, opts CheckOptions) (any, []Issue) {
	if value == nil {
		value = map[string]any{}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, []Issue{issuef(path, "must be an object")}
	}

	required := make(map[string]struct{}, len(s.Required))
	for _, name := range s.Required {
		required[name] = struct{}{}
	}

	var issues []Issue
	checked := make(map[string]any, len(obj))
	for name, v := range obj {
		prop, ok := s.Properties[name]
		if !ok || prop.TypeObject == nil {
			checked[name] = v
			continue
		}

		cv, propIssues := check(prop.TypeObject, v, childPath(path, name), opts)
		if len(propIssues) > 0 {
			issues = append(issues, propIssues...)
			continue
		}
		checked[name] = cv
	}

	for name, prop := range s.Properties {
		if _, present := obj[name]; present {
			continue
		}
		if prop.TypeObject != nil && prop.TypeObject.Default != nil && opts.FillDefaults {
			checked[name] = *prop.TypeObject.Default
			continue
		}
		if _, req := required[name]; req {
			issues = append(issues, issuef(childPath(path, name), "is required"))
		}
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return checked, nil
}

func checkArray(s *jsonschema.Schema, value any, path string, opts CheckOptions) (any, []Issue) {
	items, ok := value.([]any)
	if !ok {
		return nil, []Issue{issuef(path, "must be an array")}
	}
	if s.Items == nil || s.Items.SchemaOrBool == nil || s.Items.SchemaOrBool.TypeObject == nil {
		return items, nil
	}

	itemSchema := s.Items.SchemaOrBool.TypeObject

	var issues []Issue
	checked := make([]any, len(items))
	for i, item := range items {
		cv, itemIssues := check(itemSchema, item, childPath(path, strconv.Itoa(i)), opts)
		if len(itemIssues) > 0 {
			issues = append(issues, itemIssues...)
			continue
		}
		checked[i] = cv
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return checked, nil
}

func checkString(s *jsonschema.Schema, value any, path string) (any, []Issue) {
	str, ok := value.(string)
	if !ok {
		return nil, []Issue{issuef(path, "must be a string")}
	}
	if int64(len(str)) < s.MinLength {
		return nil, []Issue{issuef(path, fmt.Sprintf("must have at least %d characters", s.MinLength))}
	}
	if s.MaxLength != nil && int64(len(str)) > *s.MaxLength {
		return nil, []Issue{issuef(path, fmt.Sprintf("must have at most %d characters", *s.MaxLength))}
	}
	if s.Pattern != nil {
		re, err := regexp.Compile(*s.Pattern)
		if err == nil && !re.MatchString(str) {
			return nil, []Issue{issuef(path, fmt.Sprintf("must match %q", *s.Pattern))}
		}
	}
	if issue, ok := checkEnum(s, str, path); !ok {
		return nil, []Issue{issue}
	}
	return str, nil
}

// jsonNumber accepts only values that are already numeric; string conversion
// is the coerce step's job and must stay opt in.
func jsonNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func checkInteger(s *jsonschema.Schema, value any, path string) (any, []Issue) {
	f, ok := jsonNumber(value)
	if !ok || f != math.Trunc(f) {
		return nil, []Issue{issuef(path, "must be an integer")}
	}
	if issue, ok := checkBounds(s, f, path); !ok {
		return nil, []Issue{issue}
	}
	return int64(f), nil
}

func checkNumber(s *jsonschema.Schema, value any, path string) (any, []Issue) {
	f, ok := jsonNumber(value)
	if !ok {
		return nil, []Issue{issuef(path, "must be a number")}
	}
	if issue, ok := checkBounds(s, f, path); !ok {
		return nil, []Issue{issue}
	}
	return f, nil
}

func checkBoolean(value any, path string) (any, []Issue) {
	b, ok := value.(bool)
	if !ok {
		return nil, []Issue{issuef(path, "must be a boolean")}
	}
	return b, nil
}

func checkBounds(s *jsonschema.Schema, f float64, path string) (Issue, bool) {
	if s.Minimum != nil && f < *s.Minimum {
		return issuef(path, fmt.Sprintf("must be at least %v", *s.Minimum)), false
	}
	if s.Maximum != nil && f > *s.Maximum {
		return issuef(path, fmt.Sprintf("must be at most %v", *s.Maximum)), false
	}
	if s.ExclusiveMinimum != nil && f <= *s.ExclusiveMinimum {
		return issuef(path, fmt.Sprintf("must be greater than %v", *s.ExclusiveMinimum)), false
	}
	if s.ExclusiveMaximum != nil && f >= *s.ExclusiveMaximum {
		return issuef(path, fmt.Sprintf("must be less than %v", *s.ExclusiveMaximum)), false
	}
	return Issue{}, true
}

func checkEnum(s *jsonschema.Schema, value any, path string) (Issue, bool) {
	if len(s.Enum) == 0 {
		return Issue{}, true
	}
	for _, v := range s.Enum {
		if v == value {
			return Issue{}, true
		}
	}
	return issuef(path, fmt.Sprintf("must be one of %v", s.Enum)), false
}
