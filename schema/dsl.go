// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/swaggest/jsonschema-go"
	"github.com/z5labs/sdk-go/ptr"
)

func prefixIssues(issues []Issue, name string) []Issue {
	for i := range issues {
		issues[i].Path = childPath(name, issues[i].Path)
	}
	return issues
}

// StringSchema validates string values. See [String].
type StringSchema struct {
	minLen  *int
	maxLen  *int
	pattern *regexp.Regexp
	format  string
	enum    []string
	def     *string
}

// String returns a schema which accepts string values.
func String() *StringSchema {
	return &StringSchema{}
}

// MinLen requires the string to contain at least n characters.
func (s *StringSchema) MinLen(n int) *StringSchema {
	s.minLen = ptr.Ref(n)
	return s
}

// MaxLen requires the string to contain at most n characters.
func (s *StringSchema) MaxLen(n int) *StringSchema {
	s.maxLen = ptr.Ref(n)
	return s
}

// Pattern requires the string to match re.
func (s *StringSchema) Pattern(re *regexp.Regexp) *StringSchema {
	s.pattern = re
	return s
}

// Format annotates the canonical description with a format marker.
// The format is documentation only and not enforced by Parse.
func (s *StringSchema) Format(format string) *StringSchema {
	s.format = format
	return s
}

// Enum restricts the string to the given values.
func (s *StringSchema) Enum(values ...string) *StringSchema {
	s.enum = values
	return s
}

// Default substitutes v when the value is absent.
func (s *StringSchema) Default(v string) *StringSchema {
	s.def = ptr.Ref(v)
	return s
}

// Parse implements the [Schema] interface.
func (s *StringSchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		if s.def != nil {
			return *s.def, nil
		}
		return nil, []Issue{issuef("", "is required")}
	}

	str, ok := value.(string)
	if !ok {
		return nil, []Issue{issuef("", "must be a string")}
	}
	if s.minLen != nil && len(str) < *s.minLen {
		return nil, []Issue{issuef("", fmt.Sprintf("must have at least %d characters", *s.minLen))}
	}
	if s.maxLen != nil && len(str) > *s.maxLen {
		return nil, []Issue{issuef("", fmt.Sprintf("must have at most %d characters", *s.maxLen))}
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		return nil, []Issue{issuef("", fmt.Sprintf("must match %q", s.pattern.String()))}
	}
	if len(s.enum) > 0 {
		for _, v := range s.enum {
			if str == v {
				return str, nil
			}
		}
		return nil, []Issue{issuef("", fmt.Sprintf("must be one of %v", s.enum))}
	}
	return str, nil
}

// JSONSchema implements the [Schema] interface.
func (s *StringSchema) JSONSchema() (jsonschema.Schema, error) {
	var js jsonschema.Schema
	js.WithType(jsonschema.String.Type())
	if s.minLen != nil {
		js.WithMinLength(int64(*s.minLen))
	}
	if s.maxLen != nil {
		js.WithMaxLength(int64(*s.maxLen))
	}
	if s.pattern != nil {
		js.WithPattern(s.pattern.String())
	}
	if s.format != "" {
		js.WithFormat(s.format)
	}
	if len(s.enum) > 0 {
		vs := make([]interface{}, len(s.enum))
		for i, v := range s.enum {
			vs[i] = v
		}
		js.WithEnum(vs...)
	}
	if s.def != nil {
		js.WithDefault(*s.def)
	}
	return js, nil
}

// IntSchema validates integer values. See [Int].
type IntSchema struct {
	min *int64
	max *int64
	def *int64
}

// Int returns a schema which accepts integer values.
func Int() *IntSchema {
	return &IntSchema{}
}

// Min requires the value to be at least n.
func (s *IntSchema) Min(n int64) *IntSchema {
	s.min = ptr.Ref(n)
	return s
}

// Max requires the value to be at most n.
func (s *IntSchema) Max(n int64) *IntSchema {
	s.max = ptr.Ref(n)
	return s
}

// Default substitutes v when the value is absent.
func (s *IntSchema) Default(v int64) *IntSchema {
	s.def = ptr.Ref(v)
	return s
}

// toInt64 converts the numeric representations a value can arrive in:
// decoded JSON numbers and the strings path parameters and query values
// always arrive as.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return toInt64(float64(v))
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Parse implements the [Schema] interface.
func (s *IntSchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		if s.def != nil {
			return *s.def, nil
		}
		return nil, []Issue{issuef("", "is required")}
	}

	n, ok := toInt64(value)
	if !ok {
		return nil, []Issue{issuef("", "must be an integer")}
	}
	if s.min != nil && n < *s.min {
		return nil, []Issue{issuef("", fmt.Sprintf("must be at least %d", *s.min))}
	}
	if s.max != nil && n > *s.max {
		return nil, []Issue{issuef("", fmt.Sprintf("must be at most %d", *s.max))}
	}
	return n, nil
}

// JSONSchema implements the [Schema] interface.
func (s *IntSchema) JSONSchema() (jsonschema.Schema, error) {
	var js jsonschema.Schema
	js.WithType(jsonschema.Integer.Type())
	if s.min != nil {
		js.WithMinimum(float64(*s.min))
	}
	if s.max != nil {
		js.WithMaximum(float64(*s.max))
	}
	if s.def != nil {
		js.WithDefault(*s.def)
	}
	return js, nil
}

// FloatSchema validates numeric values. See [Float].
type FloatSchema struct {
	min *float64
	max *float64
	def *float64
}

// Float returns a schema which accepts numeric values.
func Float() *FloatSchema {
	return &FloatSchema{}
}

// Min requires the value to be at least n.
func (s *FloatSchema) Min(n float64) *FloatSchema {
	s.min = ptr.Ref(n)
	return s
}

// Max requires the value to be at most n.
func (s *FloatSchema) Max(n float64) *FloatSchema {
	s.max = ptr.Ref(n)
	return s
}

// Default substitutes v when the value is absent.
func (s *FloatSchema) Default(v float64) *FloatSchema {
	s.def = ptr.Ref(v)
	return s
}

func toFloat64(value any) (float64, bool) {
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
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Parse implements the [Schema] interface.
func (s *FloatSchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		if s.def != nil {
			return *s.def, nil
		}
		return nil, []Issue{issuef("", "is required")}
	}

	n, ok := toFloat64(value)
	if !ok {
		return nil, []Issue{issuef("", "must be a number")}
	}
	if s.min != nil && n < *s.min {
		return nil, []Issue{issuef("", fmt.Sprintf("must be at least %v", *s.min))}
	}
	if s.max != nil && n > *s.max {
		return nil, []Issue{issuef("", fmt.Sprintf("must be at most %v", *s.max))}
	}
	return n, nil
}

// JSONSchema implements the [Schema] interface.
func (s *FloatSchema) JSONSchema() (jsonschema.Schema, error) {
	var js jsonschema.Schema
	js.WithType(jsonschema.Number.Type())
	if s.min != nil {
		js.WithMinimum(*s.min)
	}
	if s.max != nil {
		js.WithMaximum(*s.max)
	}
	if s.def != nil {
		js.WithDefault(*s.def)
	}
	return js, nil
}

// BoolSchema validates boolean values. See [Bool].
type BoolSchema struct {
	def *bool
}

// Bool returns a schema which accepts boolean values.
func Bool() *BoolSchema {
	return &BoolSchema{}
}

// Default substitutes v when the value is absent.
func (s *BoolSchema) Default(v bool) *BoolSchema {
	s.def = ptr.Ref(v)
	return s
}

// Parse implements the [Schema] interface.
func (s *BoolSchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		if s.def != nil {
			return *s.def, nil
		}
		return nil, []Issue{issuef("", "is required")}
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		// Query values and path parameters arrive as strings.
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, []Issue{issuef("", "must be a boolean")}
}

// JSONSchema implements the [Schema] interface.
func (s *BoolSchema) JSONSchema() (jsonschema.Schema, error) {
	var js jsonschema.Schema
	js.WithType(jsonschema.Boolean.Type())
	if s.def != nil {
		js.WithDefault(*s.def)
	}
	return js, nil
}

// TimeSchema validates RFC 3339 timestamps and parses them into [time.Time]
// values. Its canonical description is a string with the date-time format
// marker.
type TimeSchema struct{}

// Time returns a schema which accepts RFC 3339 timestamps.
func Time() *TimeSchema {
	return &TimeSchema{}
}

// Parse implements the [Schema] interface.
func (s *TimeSchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		return nil, []Issue{issuef("", "is required")}
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, []Issue{issuef("", "must be a valid RFC 3339 timestamp")}
		}
		return t, nil
	default:
		return nil, []Issue{issuef("", "must be a valid RFC 3339 timestamp")}
	}
}

// JSONSchema implements the [Schema] interface.
//
// Native time values have no JSON representation of their own so they are
// documented as strings carrying the date-time format marker.
func (s *TimeSchema) JSONSchema() (jsonschema.Schema, error) {
	var js jsonschema.Schema
	js.WithType(jsonschema.String.Type())
	js.WithFormat("date-time")
	return js, nil
}

// ArraySchema validates arrays whose items all share one schema. See [Array].
type ArraySchema struct {
	item     Schema
	minItems *int
	maxItems *int
}

// Array returns a schema which accepts arrays of item values.
func Array(item Schema) *ArraySchema {
	return &ArraySchema{
		item: item,
	}
}

// MinItems requires the array to contain at least n items.
func (s *ArraySchema) MinItems(n int) *ArraySchema {
	s.minItems = ptr.Ref(n)
	return s
}

// MaxItems requires the array to contain at most n items.
func (s *ArraySchema) MaxItems(n int) *ArraySchema {
	s.maxItems = ptr.Ref(n)
	return s
}

// Parse implements the [Schema] interface.
func (s *ArraySchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		return nil, []Issue{issuef("", "is required")}
	}

	items, ok := value.([]any)
	if !ok {
		return nil, []Issue{issuef("", "must be an array")}
	}
	if s.minItems != nil && len(items) < *s.minItems {
		return nil, []Issue{issuef("", fmt.Sprintf("must have at least %d items", *s.minItems))}
	}
	if s.maxItems != nil && len(items) > *s.maxItems {
		return nil, []Issue{issuef("", fmt.Sprintf("must have at most %d items", *s.maxItems))}
	}

	var issues []Issue
	parsed := make([]any, len(items))
	for i, item := range items {
		v, itemIssues := s.item.Parse(ctx, item)
		if len(itemIssues) > 0 {
			issues = append(issues, prefixIssues(itemIssues, strconv.Itoa(i))...)
			continue
		}
		parsed[i] = v
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return parsed, nil
}

// JSONSchema implements the [Schema] interface.
func (s *ArraySchema) JSONSchema() (jsonschema.Schema, error) {
	item, err := s.item.JSONSchema()
	if err != nil {
		return jsonschema.Schema{}, err
	}

	var js jsonschema.Schema
	js.WithType(jsonschema.Array.Type())
	js.WithItems(jsonschema.Items{
		SchemaOrBool: ptr.Ref(item.ToSchemaOrBool()),
	})
	if s.minItems != nil {
		js.WithMinItems(int64(*s.minItems))
	}
	if s.maxItems != nil {
		js.WithMaxItems(int64(*s.maxItems))
	}
	return js, nil
}

type objectField struct {
	name     string
	schema   Schema
	required bool
}

// ObjectSchema validates objects field by field. See [Object].
type ObjectSchema struct {
	fields []objectField
}

// Object returns a schema which accepts object values.
func Object() *ObjectSchema {
	return &ObjectSchema{}
}

// Field declares an optional field. Absent optional fields are omitted from
// the parsed result unless the field schema declares a default.
func (s *ObjectSchema) Field(name string, schema Schema) *ObjectSchema {
	s.fields = append(s.fields, objectField{
		name:   name,
		schema: schema,
	})
	return s
}

// Require declares a required field.
func (s *ObjectSchema) Require(name string, schema Schema) *ObjectSchema {
	s.fields = append(s.fields, objectField{
		name:     name,
		schema:   schema,
		required: true,
	})
	return s
}

// Parse implements the [Schema] interface.
//
// All fields are checked before reporting so a single pass surfaces every
// failing field of the object.
func (s *ObjectSchema) Parse(ctx context.Context, value any) (any, []Issue) {
	if value == nil {
		value = map[string]any{}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, []Issue{issuef("", "must be an object")}
	}

	var issues []Issue
	parsed := make(map[string]any, len(obj))
	for _, f := range s.fields {
		v, present := obj[f.name]
		if !present {
			if f.required {
				issues = append(issues, issuef(f.name, "is required"))
				continue
			}
			// Give optional field schemas a chance to fill a default.
			fv, fieldIssues := f.schema.Parse(ctx, nil)
			if len(fieldIssues) == 0 {
				parsed[f.name] = fv
			}
			continue
		}

		fv, fieldIssues := f.schema.Parse(ctx, v)
		if len(fieldIssues) > 0 {
			issues = append(issues, prefixIssues(fieldIssues, f.name)...)
			continue
		}
		parsed[f.name] = fv
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return parsed, nil
}

// JSONSchema implements the [Schema] interface.
func (s *ObjectSchema) JSONSchema() (jsonschema.Schema, error) {
	var js jsonschema.Schema
	js.WithType(jsonschema.Object.Type())
	for _, f := range s.fields {
		fs, err := f.schema.JSONSchema()
		if err != nil {
			return jsonschema.Schema{}, err
		}
		js.WithPropertiesItem(f.name, fs.ToSchemaOrBool())
		if f.required {
			js.Required = append(js.Required, f.name)
		}
	}
	return js, nil
}
