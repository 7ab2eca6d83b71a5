// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package serve mounts compiled route tables onto an HTTP mux, with an
// OpenAPI schema and health endpoints alongside.
package serve

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/loamhq/loam"
	"github.com/loamhq/loam/health"
	"github.com/loamhq/loam/validate"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterOptions represents configurable values for a [Router].
type RouterOptions struct {
	readiness               health.Monitor
	liveness                health.Monitor
	notFoundHandler         http.Handler
	methodNotAllowedHandler http.Handler
}

// RouterOption sets values on [RouterOptions].
type RouterOption interface {
	ApplyRouterOption(*RouterOptions)
}

type routerOptionFunc func(*RouterOptions)

func (f routerOptionFunc) ApplyRouterOption(ro *RouterOptions) {
	f(ro)
}

// Readiness will register the given [health.Monitor] to be used
// for reporting when the application is ready to start accepting traffic.
func Readiness(m health.Monitor) RouterOption {
	return routerOptionFunc(func(ro *RouterOptions) {
		ro.readiness = m
	})
}

// Liveness will register the given [health.Monitor] to be used
// for reporting when the entire application needs to be restarted.
func Liveness(m health.Monitor) RouterOption {
	return routerOptionFunc(func(ro *RouterOptions) {
		ro.liveness = m
	})
}

// NotFound overrides the handler used for requests matching no route.
func NotFound(h http.Handler) RouterOption {
	return routerOptionFunc(func(ro *RouterOptions) {
		ro.notFoundHandler = h
	})
}

// MethodNotAllowed overrides the handler used for requests matching a
// route's pattern but not its method.
func MethodNotAllowed(h http.Handler) RouterOption {
	return routerOptionFunc(func(ro *RouterOptions) {
		ro.methodNotAllowedHandler = h
	})
}

// Router is a HTTP request multiplexer serving a compiled route table.
//
// Router provides a set of standard features:
// - OpenAPI schema as JSON at "/openapi.json"
// - Liveness endpoint at "/health/liveness"
// - Readiness endpoint at "/health/readiness"
// - Standardized NotFound behaviour
// - Standardized MethodNotAllowed behaviour
type Router struct {
	router http.Handler
	spec   *openapi3.Spec
}

// New mounts every entry of the route table and initializes a [Router].
func New(title, version string, entries []loam.Entry, opts ...RouterOption) (*Router, error) {
	var defaultHealth health.Binary
	defaultHealth.MarkHealthy()

	ro := &RouterOptions{
		readiness:               &defaultHealth,
		liveness:                &defaultHealth,
		notFoundHandler:         errorHandler(http.StatusNotFound, "Not Found"),
		methodNotAllowedHandler: errorHandler(http.StatusMethodNotAllowed, "Method Not Allowed"),
	}
	for _, opt := range opts {
		opt.ApplyRouterOption(ro)
	}

	spec := &openapi3.Spec{
		Openapi: "3.0",
		Info: openapi3.Info{
			Title:   title,
			Version: version,
		},
	}

	m := chi.NewMux()

	log := loam.Logger("github.com/loamhq/loam/serve")
	m.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		err := enc.Encode(spec)
		if err == nil {
			return
		}
		log.ErrorContext(
			r.Context(),
			"failed to encode openapi schema to json",
			slog.String("error", err.Error()),
		)
	})

	m.Get("/health/readiness", healthHandler(ro.readiness))
	m.Get("/health/liveness", healthHandler(ro.liveness))

	m.NotFound(ro.notFoundHandler.ServeHTTP)
	m.MethodNotAllowed(ro.methodNotAllowedHandler.ServeHTTP)

	for _, e := range entries {
		op, err := definition(e)
		if err != nil {
			return nil, loam.RouteError{File: e.File, Cause: err}
		}

		method := strings.ToUpper(e.Method)
		err = spec.AddOperation(method, specPath(e.Pattern), op)
		if err != nil {
			return nil, loam.RouteError{File: e.File, Cause: err}
		}

		m.Method(method, chiPattern(e.Pattern), otelhttp.WithRouteTag(e.Pattern, newOperation(e, log)))
	}

	return &Router{
		router: m,
		spec:   spec,
	}, nil
}

// ServeHTTP implements the [http.Handler] interface.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func healthHandler(m health.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy, err := m.Healthy(r.Context())
		if !healthy || err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func errorHandler(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		enc := json.NewEncoder(w)
		_ = enc.Encode(validate.ErrorBody{Error: message})
	})
}

// chiPattern rewrites a compiled ":name" pattern into chi's "{name}" form.
// Trailing wildcards are already in chi's "*" form.
func chiPattern(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name, suffix, _ := strings.Cut(seg[1:], ".")
		if suffix != "" {
			suffix = "." + suffix
		}
		segs[i] = "{" + name + "}" + suffix
	}
	return strings.Join(segs, "/")
}

// specPath rewrites a compiled pattern into an OpenAPI path template.
// Wildcards have no OpenAPI notation, so the suffix becomes a "wildcard"
// path parameter.
func specPath(pattern string) string {
	p := chiPattern(pattern)
	if strings.HasSuffix(p, "*") {
		p = strings.TrimSuffix(p, "*") + "{wildcard}"
	}
	return p
}
