// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package serve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/loamhq/loam"
	"github.com/loamhq/loam/route"
	"github.com/loamhq/loam/schema"
	"github.com/loamhq/loam/validate"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// operation adapts one route table entry to [http.Handler]: it extracts the
// request parts, runs the entry's validation hooks around the handler, and
// serializes the reply.
type operation struct {
	tracer trace.Tracer
	log    *slog.Logger
	entry  loam.Entry
}

func newOperation(e loam.Entry, log *slog.Logger) *operation {
	return &operation{
		tracer: otel.Tracer("github.com/loamhq/loam/serve"),
		log:    log,
		entry:  e,
	}
}

func (o *operation) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)

	var err error
	defer func() {
		if err == nil {
			return
		}

		o.writeError(ctx, w, err, requestID)
	}()
	defer try.Recover(&err)

	req, err := o.readRequest(ctx, r)
	if err != nil {
		return
	}

	err = o.entry.Validator.Validate(ctx, req)
	if err != nil {
		return
	}

	resp, err := o.entry.Handler.Handle(ctx, req)
	if err != nil {
		return
	}
	if resp == nil {
		resp = &route.Response{Status: http.StatusNoContent}
	}

	err = o.entry.ResponseValidator.Validate(ctx, resp)
	if err != nil {
		return
	}

	err = o.writeResponse(ctx, w, resp)
}

func (o *operation) readRequest(ctx context.Context, r *http.Request) (_ *route.Request, err error) {
	_, span := o.tracer.Start(ctx, "operation.readRequest")
	defer span.End()

	req := &route.Request{
		Params:  make(map[string]any, len(o.entry.Params)),
		Query:   make(map[string]any),
		Headers: make(map[string]any),
	}

	for _, name := range o.entry.Params {
		req.Params[name] = chi.URLParam(r, name)
	}
	if o.entry.Wildcard {
		req.Params["*"] = chi.URLParam(r, "*")
	}

	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			req.Query[key] = values[0]
			continue
		}
		vs := make([]any, len(values))
		for i, v := range values {
			vs[i] = v
		}
		req.Query[key] = vs
	}

	for key, values := range r.Header {
		if len(values) == 0 {
			continue
		}
		req.Headers[strings.ToLower(key)] = values[0]
	}

	if r.Body != nil && r.ContentLength != 0 && isJSON(r.Header.Get("Content-Type")) {
		defer try.Close(&err, r.Body)

		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req.Body); err != nil {
			return nil, &validate.BadRequestError{
				Part:   schema.PartBody,
				Issues: []schema.Issue{{Message: "must be valid json"}},
			}
		}
	}
	return req, nil
}

func isJSON(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mediaType) == "application/json"
}

func (o *operation) writeResponse(ctx context.Context, w http.ResponseWriter, resp *route.Response) error {
	_, span := o.tracer.Start(ctx, "operation.writeResponse")
	defer span.End()

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	if resp.Payload == nil {
		w.WriteHeader(status)
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	return enc.Encode(resp.Payload)
}

func (o *operation) writeError(ctx context.Context, w http.ResponseWriter, err error, requestID string) {
	var badRequest *validate.BadRequestError
	if errors.As(err, &badRequest) {
		writeJSON(w, http.StatusBadRequest, badRequest.Body())
		return
	}

	var badResponse *validate.ResponseError
	if errors.As(err, &badResponse) {
		o.log.ErrorContext(
			ctx,
			"response validation failed",
			slog.String("pattern", o.entry.Pattern),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, badResponse.Body())
		return
	}

	o.log.ErrorContext(
		ctx,
		"handler failed",
		slog.String("pattern", o.entry.Pattern),
		slog.String("request_id", requestID),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, validate.ErrorBody{Error: "Internal Server Error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	_ = enc.Encode(body)
}
