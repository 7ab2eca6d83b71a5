// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"

	"github.com/loamhq/loam/schema"
)

// Request carries the validatable parts of one HTTP request. The host
// adapter fills it before the handler runs; validation hooks may replace a
// part's data with the validated, coerced value.
type Request struct {
	// Params maps path parameter names to their raw captured values.
	Params map[string]any

	// Query maps query string keys to their raw values.
	Query map[string]any

	// Body is the decoded request body, or nil if there was none.
	Body any

	// Headers maps lowercased header names to their first values.
	Headers map[string]any
}

// SetPart replaces the request data for the named part with the validated
// value.
func (r *Request) SetPart(p schema.Part, value any) {
	switch p {
	case schema.PartParams:
		r.Params, _ = value.(map[string]any)
	case schema.PartQuery:
		r.Query, _ = value.(map[string]any)
	case schema.PartBody:
		r.Body = value
	case schema.PartHeaders:
		r.Headers, _ = value.(map[string]any)
	}
}

// PartData returns the current request data for the named part.
func (r *Request) PartData(p schema.Part) any {
	switch p {
	case schema.PartParams:
		if r.Params == nil {
			return nil
		}
		return r.Params
	case schema.PartQuery:
		if r.Query == nil {
			return nil
		}
		return r.Query
	case schema.PartBody:
		return r.Body
	case schema.PartHeaders:
		if r.Headers == nil {
			return nil
		}
		return r.Headers
	default:
		return nil
	}
}

// Response is a handler's reply before serialization.
type Response struct {
	// Status is the HTTP status code. Zero means 200.
	Status int

	// Payload is serialized by the host adapter, typically as JSON.
	Payload any
}

// Handler implements the core logic of one route.
type Handler interface {
	Handle(context.Context, *Request) (*Response, error)
}

// HandlerFunc is an adapter to allow the use of ordinary functions as
// [Handler]s.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Descriptor is one entry of the route table produced by a walk. The full
// set is constructed once at startup and never mutated while serving.
type Descriptor struct {
	// Method is the lowercase HTTP method token from the file name.
	Method string

	// Pattern is the compiled URL pattern relative to the mount point,
	// with parameters in ":name" notation.
	Pattern string

	// Params lists the named parameters of Pattern in path order.
	Params []string

	// Wildcard reports whether Pattern ends in a wildcard segment.
	Wildcard bool

	// File is the route file's path relative to the build root, using
	// forward slashes. It doubles as the module registry key.
	File string

	// Handler is the loaded handler for this route.
	Handler Handler

	// Bundle is the author supplied schema bundle, possibly nil.
	Bundle *schema.Bundle
}
