// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"fmt"
	"sync"

	"github.com/loamhq/loam/schema"
)

// Module is the loadable content of one route file: the handler plus its
// optional schema bundle.
type Module struct {
	Handler Handler
	Schema  *schema.Bundle
}

// Loader resolves the [Module] for a discovered route file. The path is the
// file's location relative to the build root, with forward slashes.
//
// The walker depends on this interface rather than any concrete loading
// mechanism so it can be driven without real modules behind the files.
type Loader interface {
	Load(ctx context.Context, path string) (*Module, error)
}

// LoaderFunc is an adapter to allow the use of ordinary functions as
// [Loader]s.
type LoaderFunc func(ctx context.Context, path string) (*Module, error)

// Load implements the [Loader] interface.
func (f LoaderFunc) Load(ctx context.Context, path string) (*Module, error) {
	return f(ctx, path)
}

// UnregisteredModuleError is returned when a route file exists on disk but
// no module was registered for it. A file without a handler would otherwise
// silently vanish from the route table.
type UnregisteredModuleError struct {
	Path string
}

func (e UnregisteredModuleError) Error() string {
	return fmt.Sprintf("no module registered for route file %q", e.Path)
}

// MissingHandlerError is returned when a registered module has no handler.
type MissingHandlerError struct {
	Path string
}

func (e MissingHandlerError) Error() string {
	return fmt.Sprintf("module for route file %q has no handler", e.Path)
}

// Registry is a [Loader] backed by explicit registration. Handlers register
// themselves against the path of their route file, and the walk resolves
// each discovered file through the registry.
//
// Registration typically happens in init or main before the walk; lookups
// during the walk are concurrent with each other but not with registration.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// NewRegistry initializes an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
	}
}

// Register associates a module with a route file path relative to the build
// root. Registering the same path twice replaces the earlier module.
func (r *Registry) Register(path string, m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[path] = m
}

// Handle is a convenience for registering a handler without a schema bundle.
func (r *Registry) Handle(path string, h Handler) {
	r.Register(path, &Module{Handler: h})
}

// Load implements the [Loader] interface.
func (r *Registry) Load(ctx context.Context, path string) (*Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[path]
	if !ok {
		return nil, UnregisteredModuleError{Path: path}
	}
	if m.Handler == nil {
		return nil, MissingHandlerError{Path: path}
	}
	return m, nil
}
