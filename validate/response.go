// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loamhq/loam/route"
	"github.com/loamhq/loam/schema"
)

// ResponseError reports a handler reply that failed its declared response
// schema. The client receives a 500 with a fixed body; the offending payload
// is never serialized.
type ResponseError struct {
	// Status is the status code the handler attempted to reply with.
	Status int

	// Issues are the individual findings against the declared schema.
	Issues []schema.Issue
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("response validation failed for status %d: %s", e.Status, formatIssues(e.Issues))
}

// Body returns the reply serialized to the client alongside a 500 status.
func (e *ResponseError) Body() ErrorBody {
	return ErrorBody{
		Error:   "Internal Server Error",
		Message: "Response validation failed",
		Details: formatIssues(e.Issues),
	}
}

// ResponseValidator checks handler replies against response schemas declared
// in the parse language. Canonically described responses are documentation
// only and are never enforced here.
type ResponseValidator struct {
	provenance *schema.Provenance
	log        *slog.Logger
}

// NewResponseValidator builds a [ResponseValidator] from a normalized
// bundle's provenance. It returns nil when no response status was declared
// in the parse language.
func NewResponseValidator(p *schema.Provenance, log *slog.Logger) *ResponseValidator {
	if !p.ValidatesResponses() {
		return nil
	}
	return &ResponseValidator{
		provenance: p,
		log:        log,
	}
}

// Validate checks the response payload against the schema declared for its
// status code. Statuses without a parse language declaration pass through
// untouched. On success the payload is replaced with the validated value; on
// failure a [ResponseError] is returned and the payload must not be sent.
func (v *ResponseValidator) Validate(ctx context.Context, resp *route.Response) error {
	if v == nil {
		return nil
	}

	status := resp.Status
	if status == 0 {
		status = 200
	}

	ps, ok := v.provenance.ResponseParseSchema(status)
	if !ok {
		return nil
	}

	value, issues := ps.Parse(ctx, resp.Payload)
	if len(issues) > 0 {
		v.log.ErrorContext(
			ctx,
			"handler response failed validation",
			slog.Int("status", status),
			slog.Int("issues", len(issues)),
		)
		return &ResponseError{Status: status, Issues: issues}
	}
	resp.Payload = value
	return nil
}
