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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BadRequestError reports the first request part that failed validation.
// Parts are checked in a fixed order and validation stops at the first
// failing part, so the error always names exactly one part.
type BadRequestError struct {
	// Part is the request part that failed.
	Part schema.Part

	// Issues are the individual findings within the failed part.
	Issues []schema.Issue
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("Bad Request: %s - %s", e.Part, formatIssues(e.Issues))
}

// Body returns the reply serialized to the client alongside a 400 status.
func (e *BadRequestError) Body() ErrorBody {
	return ErrorBody{Error: e.Error()}
}

// Dispatcher validates the parts of one route's requests, choosing per part
// between the structural checker for canonically described parts and the
// retained parse schema for parse described parts.
type Dispatcher struct {
	canonical  *schema.Canonical
	provenance *schema.Provenance
	log        *slog.Logger
	tracer     trace.Tracer
}

// NewDispatcher builds a [Dispatcher] from a normalized bundle. It returns
// nil when no request part was declared, so callers can skip hook
// installation entirely for unvalidated routes.
func NewDispatcher(c *schema.Canonical, p *schema.Provenance, log *slog.Logger) *Dispatcher {
	if p.Empty() {
		return nil
	}
	return &Dispatcher{
		canonical:  c,
		provenance: p,
		log:        log,
		tracer:     otel.Tracer("github.com/loamhq/loam/validate"),
	}
}

// Validate checks every declared request part in order: path parameters,
// query string, body, headers. The first failing part aborts the remaining
// checks and is reported as a [BadRequestError]; parts that pass have their
// request data replaced with the validated, coerced value.
func (d *Dispatcher) Validate(ctx context.Context, req *route.Request) error {
	if d == nil {
		return nil
	}

	spanCtx, span := d.tracer.Start(ctx, "Dispatcher.Validate")
	defer span.End()

	for _, part := range schema.Parts() {
		origin, ok := d.provenance.Origin(part)
		if !ok {
			continue
		}

		value, issues := d.validatePart(spanCtx, part, origin, req.PartData(part))
		if len(issues) > 0 {
			span.SetAttributes(attribute.String("validate.failed_part", string(part)))
			d.log.DebugContext(
				spanCtx,
				"request part failed validation",
				slog.String("part", string(part)),
				slog.Int("issues", len(issues)),
			)
			return &BadRequestError{Part: part, Issues: issues}
		}
		req.SetPart(part, value)
	}
	return nil
}

func (d *Dispatcher) validatePart(ctx context.Context, part schema.Part, origin schema.Origin, data any) (any, []schema.Issue) {
	if origin == schema.OriginB {
		ps, _ := d.provenance.ParseSchema(part)
		return ps.Parse(ctx, data)
	}
	return schema.Check(d.canonical.Part(part), data, schema.CheckOptions{
		Coerce:       true,
		FillDefaults: true,
	})
}
