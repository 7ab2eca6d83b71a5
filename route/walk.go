// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"
)

// AbsoluteRootError is returned for a configured directory which is not
// relative. Paths are always resolved against the build root; an absolute
// path would silently escape it.
type AbsoluteRootError struct {
	Path string
}

func (e AbsoluteRootError) Error() string {
	return fmt.Sprintf("configured directory %q must be relative", e.Path)
}

// NotADirectoryError is returned for a configured directory which does not
// exist or is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e NotADirectoryError) Error() string {
	return fmt.Sprintf("configured directory %q does not exist or is not a directory", e.Path)
}

// NoRootsError is returned when no route root directories are configured.
type NoRootsError struct{}

func (e NoRootsError) Error() string {
	return "no route root directories configured"
}

// Walker recursively visits the configured route roots and compiles every
// route file it finds into a [Descriptor].
//
// Any failure is fatal to the whole walk: a broken route file must never
// silently vanish from the table.
type Walker struct {
	// BuildRoot is the directory the route roots live under. Relative
	// only; it must exist and be a directory.
	BuildRoot string

	// Roots are the route directories to scan, relative to BuildRoot.
	Roots []string

	// Extensions is the accepted route file extension allow list.
	Extensions []string

	// Convention selects the segment grammar for the whole walk.
	Convention Convention

	// Exclusions are tested against every entry name, after
	// [DefaultExclusions].
	Exclusions []ExclusionRule

	// Loader resolves handler modules for discovered route files.
	Loader Loader

	// Log receives skip and progress records. Nil disables logging.
	Log *slog.Logger
}

func (w *Walker) log() *slog.Logger {
	if w.Log == nil {
		return slog.New(discardHandler{})
	}
	return w.Log
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// Walk scans all configured roots concurrently and returns the accumulated
// route descriptors. Descriptors carry no ordering guarantee; the table is
// keyed by method and pattern, not registration order.
func (w *Walker) Walk(ctx context.Context) ([]Descriptor, error) {
	if len(w.Roots) == 0 {
		return nil, NoRootsError{}
	}
	if err := checkDir(w.BuildRoot); err != nil {
		return nil, err
	}

	rules := append(DefaultExclusions(), w.Exclusions...)

	roots := make([]string, len(w.Roots))
	for i, root := range w.Roots {
		if err := checkRelative(root); err != nil {
			return nil, err
		}
		full := filepath.Join(w.BuildRoot, root)
		if err := checkDir(full); err != nil {
			return nil, NotADirectoryError{Path: root}
		}
		roots[i] = full
	}

	var mu sync.Mutex
	var descriptors []Descriptor
	collect := func(ds ...Descriptor) {
		mu.Lock()
		defer mu.Unlock()
		descriptors = append(descriptors, ds...)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, root := range roots {
		eg.Go(func() error {
			return w.walkDir(egCtx, root, nil, rules, collect)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return descriptors, nil
}

func checkRelative(path string) error {
	if filepath.IsAbs(path) {
		return AbsoluteRootError{Path: path}
	}
	return nil
}

func checkDir(path string) error {
	if filepath.IsAbs(path) {
		return AbsoluteRootError{Path: path}
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return NotADirectoryError{Path: path}
	}
	return nil
}

// walkDir processes the entries of one directory concurrently: module
// loading per file is I/O bound, so sibling files fan out and the directory
// completes when all of them have.
func (w *Walker) walkDir(ctx context.Context, dir string, segs []Segment, rules []ExclusionRule, collect func(...Descriptor)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, entry := range entries {
		p.Go(func(ctx context.Context) error {
			name := entry.Name()
			full := filepath.Join(dir, name)

			if excluded(rules, name, entry.IsDir()) {
				w.log().DebugContext(ctx, "skipping excluded entry", slog.String("path", full))
				return nil
			}

			if entry.IsDir() {
				dirSegs, err := ParseDirName(name, full)
				if err != nil {
					return err
				}
				return w.walkDir(ctx, full, appendSegments(segs, dirSegs), rules, collect)
			}

			return w.walkFile(ctx, full, name, segs, collect)
		})
	}
	return p.Wait()
}

func (w *Walker) walkFile(ctx context.Context, full, name string, segs []Segment, collect func(...Descriptor)) error {
	parsed, ok, err := ParseName(name, w.Extensions, full)
	if err != nil {
		return err
	}
	if !ok {
		w.log().DebugContext(ctx, "skipping non-route file", slog.String("path", full))
		return nil
	}

	compiled, err := Compile(appendSegments(segs, parsed.Segments), w.Convention, full)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(w.BuildRoot, full)
	if err != nil {
		return err
	}
	key := filepath.ToSlash(rel)

	module, err := w.Loader.Load(ctx, key)
	if err != nil {
		return err
	}

	collect(Descriptor{
		Method:   parsed.Method,
		Pattern:  compiled.Pattern,
		Params:   compiled.Params,
		Wildcard: compiled.Wildcard,
		File:     key,
		Handler:  module.Handler,
		Bundle:   module.Schema,
	})
	return nil
}

// appendSegments copies before appending; sibling goroutines share the
// parent's segment slice.
func appendSegments(parent []Segment, segs []Segment) []Segment {
	merged := make([]Segment, 0, len(parent)+len(segs))
	merged = append(merged, parent...)
	merged = append(merged, segs...)
	return merged
}
