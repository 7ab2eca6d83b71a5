// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package serve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loamhq/loam"
	"github.com/loamhq/loam/route"
	"github.com/loamhq/loam/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/jsonschema-go"
)

func writeFiles(t *testing.T, files ...string) {
	t.Helper()

	for _, f := range files {
		dir := filepath.Dir(f)
		require.Nil(t, os.MkdirAll(dir, 0o755))
		require.Nil(t, os.WriteFile(f, nil, 0o644))
	}
}

func buildEntries(t *testing.T, registry *route.Registry, files ...string) []loam.Entry {
	t.Helper()

	t.Chdir(t.TempDir())
	writeFiles(t, files...)

	entries, err := loam.Build(context.Background(), loam.RoutesConfig{
		Mount:             "/",
		Dirs:              []string{"routes"},
		BuildRoot:         ".",
		Extensions:        []string{".ts"},
		Convention:        "sigil",
		ValidateResponses: true,
	}, registry)
	require.Nil(t, err)
	return entries
}

func serveRequest(t *testing.T, entries []loam.Entry, req *http.Request) *http.Response {
	t.Helper()

	router, err := New("test", "v0.0.0", entries)
	require.Nil(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	var body map[string]any
	require.Nil(t, json.Unmarshal(b, &body))
	return body
}

func TestRouter(t *testing.T) {
	t.Run("will serve the handler response", func(t *testing.T) {
		t.Run("with validated path parameters", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Register("routes/users.$id.get.ts", &route.Module{
				Handler: route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
					return &route.Response{Payload: req.Params}, nil
				}),
				Schema: &schema.Bundle{
					Params: schema.B(schema.Object().Require("id", schema.Int())),
				},
			})

			entries := buildEntries(t, registry, "routes/users.$id.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/users/42", nil))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, float64(42), body["id"])
		})

		t.Run("with a validated request body", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Register("routes/users.post.ts", &route.Module{
				Handler: route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
					return &route.Response{Status: http.StatusCreated, Payload: req.Body}, nil
				}),
				Schema: &schema.Bundle{
					Body: schema.B(schema.Object().
						Require("name", schema.String()).
						Field("role", schema.String().Default("member"))),
				},
			})

			entries := buildEntries(t, registry, "routes/users.post.ts")

			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"ada"}`))
			req.Header.Set("Content-Type", "application/json")

			resp := serveRequest(t, entries, req)
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "ada", body["name"])
			assert.Equal(t, "member", body["role"])
		})

		t.Run("capturing the wildcard suffix", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Register("routes/files.$.get.ts", &route.Module{
				Handler: route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
					return &route.Response{Payload: map[string]any{"path": req.Params["*"]}}, nil
				}),
			})

			entries := buildEntries(t, registry, "routes/files.$.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/files/docs/readme.txt", nil))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "docs/readme.txt", body["path"])
		})

		t.Run("at a pattern containing an escaped literal dot", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Handle("routes/api.v1[.]0.get.ts", route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
				return &route.Response{Payload: map[string]any{"version": "1.0"}}, nil
			}))

			entries := buildEntries(t, registry, "routes/api.v1[.]0.get.ts")
			require.Equal(t, "/api/v1.0", entries[0].Pattern)

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/api/v1.0", nil))
			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	})

	t.Run("will reply with 400", func(t *testing.T) {
		t.Run("if a query value fails its canonical description", func(t *testing.T) {
			declared := (&jsonschema.Schema{}).WithType(jsonschema.Object.Type())
			declared.WithPropertiesItem("count", (&jsonschema.Schema{}).
				WithType(jsonschema.Integer.Type()).
				WithMaximum(5).
				ToSchemaOrBool())

			registry := route.NewRegistry()
			registry.Register("routes/items.get.ts", &route.Module{
				Handler: route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
					return &route.Response{Payload: map[string]any{}}, nil
				}),
				Schema: &schema.Bundle{
					Query: schema.A(declared),
				},
			})

			entries := buildEntries(t, registry, "routes/items.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/items?count=6", nil))
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "Bad Request: querystring - count must be at most 5", body["error"])
		})

		t.Run("if the request body fails its parse description", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Register("routes/users.post.ts", &route.Module{
				Handler: route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
					return &route.Response{Payload: req.Body}, nil
				}),
				Schema: &schema.Bundle{
					Body: schema.B(schema.Object().Require("name", schema.String())),
				},
			})

			entries := buildEntries(t, registry, "routes/users.post.ts")

			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")

			resp := serveRequest(t, entries, req)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "Bad Request: body - name is required", body["error"])
		})
	})

	t.Run("will reply with 500", func(t *testing.T) {
		t.Run("if the handler response fails its declared schema", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Register("routes/users.get.ts", &route.Module{
				Handler: route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
					return &route.Response{Payload: map[string]any{"id": "oops"}}, nil
				}),
				Schema: &schema.Bundle{
					Responses: map[int]schema.Field{
						200: schema.B(schema.Object().Require("id", schema.Int())),
					},
				},
			})

			entries := buildEntries(t, registry, "routes/users.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/users", nil))
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "Internal Server Error", body["error"])
			assert.Equal(t, "Response validation failed", body["message"])
			assert.Equal(t, "id must be an integer", body["details"])
		})

		t.Run("if the handler returns an error", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Handle("routes/users.get.ts", route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
				return nil, context.DeadlineExceeded
			}))

			entries := buildEntries(t, registry, "routes/users.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/users", nil))
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "Internal Server Error", body["error"])
		})
	})

	t.Run("will serve the standard endpoints", func(t *testing.T) {
		t.Run("exposing the openapi schema", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Handle("routes/users.$id.get.ts", noopHandler())

			entries := buildEntries(t, registry, "routes/users.$id.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			b, err := io.ReadAll(resp.Body)
			require.Nil(t, err)

			var spec struct {
				Paths map[string]any `json:"paths"`
			}
			require.Nil(t, json.Unmarshal(b, &spec))
			assert.Contains(t, spec.Paths, "/users/{id}")
		})

		t.Run("reporting liveness and readiness", func(t *testing.T) {
			resp := serveRequest(t, nil, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			resp = serveRequest(t, nil, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("replying 404 for unknown paths", func(t *testing.T) {
			resp := serveRequest(t, nil, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
			require.Equal(t, http.StatusNotFound, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "Not Found", body["error"])
		})

		t.Run("replying 405 for a known path with the wrong method", func(t *testing.T) {
			registry := route.NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())

			entries := buildEntries(t, registry, "routes/users.get.ts")

			resp := serveRequest(t, entries, httptest.NewRequest(http.MethodDelete, "/users", nil))
			require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "Method Not Allowed", body["error"])
		})
	})
}

func noopHandler() route.Handler {
	return route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
		return &route.Response{Payload: map[string]any{}}, nil
	})
}
