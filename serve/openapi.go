// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package serve

import (
	"net/http"
	"strconv"

	"github.com/loamhq/loam"
	"github.com/loamhq/loam/schema"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// definition builds the OpenAPI operation for one route table entry from its
// normalized schema bundle. Routes without a bundle still document their
// path parameters.
func definition(e loam.Entry) (openapi3.Operation, error) {
	var op openapi3.Operation

	doc := e.Docs.Doc
	if doc.Summary != "" {
		op.Summary = ptr.Ref(doc.Summary)
	}
	if doc.Description != "" {
		op.Description = ptr.Ref(doc.Description)
	}
	if doc.OperationID != "" {
		op.ID = ptr.Ref(doc.OperationID)
	}
	op.Tags = doc.Tags
	if doc.Deprecated {
		op.Deprecated = ptr.Ref(true)
	}
	for _, name := range doc.Security {
		op.Security = append(op.Security, map[string][]string{name: {}})
	}

	op.Parameters = parameters(e)

	if body := e.Docs.Part(schema.PartBody); body != nil {
		op.RequestBody = &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Required: ptr.Ref(true),
				Content: map[string]openapi3.MediaType{
					"application/json": {
						Schema: schemaOrRef(body),
					},
				},
			},
		}
	}

	responses := make(map[string]openapi3.ResponseOrRef)
	for status, s := range e.Docs.Responses {
		responses[strconv.Itoa(status)] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{
				Description: http.StatusText(status),
				Content: map[string]openapi3.MediaType{
					"application/json": {
						Schema: schemaOrRef(s),
					},
				},
			},
		}
	}
	if len(responses) == 0 {
		responses["200"] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{
				Description: http.StatusText(http.StatusOK),
			},
		}
	}
	op.Responses = openapi3.Responses{
		MapOfResponseOrRefValues: responses,
	}
	return op, nil
}

func parameters(e loam.Entry) []openapi3.ParameterOrRef {
	var params []openapi3.ParameterOrRef

	declared := e.Docs.Part(schema.PartParams)
	for _, name := range e.Params {
		p := &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInPath,
			Required: ptr.Ref(true),
			Schema:   stringSchema(),
		}
		if declared != nil {
			if prop, ok := declared.Properties[name]; ok && prop.TypeObject != nil {
				p.Schema = schemaOrRef(prop.TypeObject)
			}
		}
		params = append(params, openapi3.ParameterOrRef{Parameter: p})
	}
	if e.Wildcard {
		params = append(params, openapi3.ParameterOrRef{
			Parameter: &openapi3.Parameter{
				Name:     "wildcard",
				In:       openapi3.ParameterInPath,
				Required: ptr.Ref(true),
				Schema:   stringSchema(),
			},
		})
	}

	params = append(params, partParameters(e.Docs.Part(schema.PartQuery), openapi3.ParameterInQuery)...)
	params = append(params, partParameters(e.Docs.Part(schema.PartHeaders), openapi3.ParameterInHeader)...)
	return params
}

func partParameters(s *jsonschema.Schema, in openapi3.ParameterIn) []openapi3.ParameterOrRef {
	if s == nil {
		return nil
	}

	required := make(map[string]struct{}, len(s.Required))
	for _, name := range s.Required {
		required[name] = struct{}{}
	}

	var params []openapi3.ParameterOrRef
	for _, name := range schema.PropertyNames(s) {
		prop, ok := s.Properties[name]
		if !ok || prop.TypeObject == nil {
			continue
		}

		p := &openapi3.Parameter{
			Name:   name,
			In:     in,
			Schema: schemaOrRef(prop.TypeObject),
		}
		if _, ok := required[name]; ok {
			p.Required = ptr.Ref(true)
		}
		params = append(params, openapi3.ParameterOrRef{Parameter: p})
	}
	return params
}

func stringSchema() *openapi3.SchemaOrRef {
	t := openapi3.SchemaTypeString
	return &openapi3.SchemaOrRef{
		Schema: &openapi3.Schema{
			Type: &t,
		},
	}
}

func schemaOrRef(s *jsonschema.Schema) *openapi3.SchemaOrRef {
	var sr openapi3.SchemaOrRef
	sr.FromJSONSchema(s.ToSchemaOrBool())
	return &sr
}
