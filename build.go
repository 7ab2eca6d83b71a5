// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loam

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/loamhq/loam/route"
	"github.com/loamhq/loam/schema"
	"github.com/loamhq/loam/validate"
)

// Entry is one fully compiled route: the pattern with its mount prefix
// applied, the loaded handler, and the validation hooks derived from the
// route's schema bundle. Nil hooks mean the route has nothing to validate.
type Entry struct {
	// Method is the lowercase HTTP method token.
	Method string

	// Pattern is the full URL pattern including the mount prefix, with
	// parameters in ":name" notation.
	Pattern string

	// Params lists the named parameters of Pattern in path order.
	Params []string

	// Wildcard reports whether Pattern ends in a wildcard segment.
	Wildcard bool

	// File is the route file's path relative to the build root.
	File string

	// Handler is the loaded handler for this route.
	Handler route.Handler

	// Docs is the normalized, documentation ready schema bundle.
	Docs *schema.Canonical

	// Validator checks request parts before the handler runs. Nil when
	// the bundle declares no request part.
	Validator *validate.Dispatcher

	// ResponseValidator checks handler replies after the handler runs.
	// Nil when response validation is disabled or the bundle declares no
	// parse language response.
	ResponseValidator *validate.ResponseValidator
}

// DuplicateRouteError reports two route files compiling to the same method
// and pattern. Which one would win is mux dependent, so neither does.
type DuplicateRouteError struct {
	Method  string
	Pattern string
	Files   [2]string
}

func (e DuplicateRouteError) Error() string {
	return fmt.Sprintf(
		"route files %q and %q both compile to %s %s",
		e.Files[0],
		e.Files[1],
		e.Method,
		e.Pattern,
	)
}

// RouteError wraps an error with the route file that caused it.
type RouteError struct {
	File  string
	Cause error
}

func (e RouteError) Error() string {
	return fmt.Sprintf("route %q: %v", e.File, e.Cause)
}

func (e RouteError) Unwrap() error {
	return e.Cause
}

// Build walks the configured route directories, normalizes every discovered
// route's schema bundle, verifies parameter consistency, and returns the
// resulting route table sorted by pattern then method.
//
// Build is fail fast: the first broken route file, schema, or collision
// aborts the whole table. A partially served route tree is worse than a
// startup failure.
func Build(ctx context.Context, cfg RoutesConfig, loader route.Loader) ([]Entry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conv, err := route.ParseConvention(cfg.Convention)
	if err != nil {
		return nil, err
	}

	log := Logger("github.com/loamhq/loam")

	walker := &route.Walker{
		BuildRoot:  cfg.BuildRoot,
		Roots:      cfg.Dirs,
		Extensions: cfg.Extensions,
		Convention: conv,
		Exclusions: cfg.exclusions(),
		Loader:     loader,
		Log:        log,
	}
	descriptors, err := walker.Walk(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(descriptors))
	seen := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		canon, prov, err := schema.Normalize(d.Bundle)
		if err != nil {
			return nil, RouteError{File: d.File, Cause: err}
		}
		if err := checkParamConsistency(d, canon); err != nil {
			return nil, err
		}

		pattern := route.JoinMount(cfg.Mount, d.Pattern)
		key := d.Method + " " + pattern
		if first, ok := seen[key]; ok {
			return nil, DuplicateRouteError{
				Method:  d.Method,
				Pattern: pattern,
				Files:   [2]string{first, d.File},
			}
		}
		seen[key] = d.File

		var respValidator *validate.ResponseValidator
		if cfg.ValidateResponses {
			respValidator = validate.NewResponseValidator(prov, log)
		}

		entries = append(entries, Entry{
			Method:            d.Method,
			Pattern:           pattern,
			Params:            d.Params,
			Wildcard:          d.Wildcard,
			File:              d.File,
			Handler:           d.Handler,
			Docs:              canon,
			Validator:         validate.NewDispatcher(canon, prov, log),
			ResponseValidator: respValidator,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Pattern != entries[j].Pattern {
			return entries[i].Pattern < entries[j].Pattern
		}
		return entries[i].Method < entries[j].Method
	})

	if cfg.LogRoutes {
		for _, e := range entries {
			log.InfoContext(
				ctx,
				"registered route",
				slog.String("method", e.Method),
				slog.String("pattern", e.Pattern),
				slog.String("file", e.File),
			)
		}
	}
	return entries, nil
}
