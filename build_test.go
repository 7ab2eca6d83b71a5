// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/loamhq/loam/route"
	"github.com/loamhq/loam/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files ...string) {
	t.Helper()

	for _, f := range files {
		dir := filepath.Dir(f)
		require.Nil(t, os.MkdirAll(dir, 0o755))
		require.Nil(t, os.WriteFile(f, nil, 0o644))
	}
}

func noopHandler() route.Handler {
	return route.HandlerFunc(func(ctx context.Context, req *route.Request) (*route.Response, error) {
		return &route.Response{}, nil
	})
}

func testRoutesConfig() RoutesConfig {
	return RoutesConfig{
		Mount:             "/",
		Dirs:              []string{"routes"},
		BuildRoot:         ".",
		Extensions:        []string{".go", ".ts", ".js", ".tsx"},
		Convention:        "sigil",
		ValidateResponses: true,
	}
}

func TestBuild(t *testing.T) {
	t.Run("will return the route table", func(t *testing.T) {
		t.Run("sorted by pattern then method", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t,
				"routes/users.get.ts",
				"routes/users.post.ts",
				"routes/users.$id.get.ts",
			)

			registry := route.NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())
			registry.Handle("routes/users.post.ts", noopHandler())
			registry.Handle("routes/users.$id.get.ts", noopHandler())

			entries, err := Build(context.Background(), testRoutesConfig(), registry)
			require.Nil(t, err)
			require.Len(t, entries, 3)

			assert.Equal(t, "/users", entries[0].Pattern)
			assert.Equal(t, "get", entries[0].Method)
			assert.Equal(t, "/users", entries[1].Pattern)
			assert.Equal(t, "post", entries[1].Method)
			assert.Equal(t, "/users/:id", entries[2].Pattern)
		})

		t.Run("prefixing every pattern with the mount point", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.get.ts")

			registry := route.NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())

			cfg := testRoutesConfig()
			cfg.Mount = "/api/v2"

			entries, err := Build(context.Background(), cfg, registry)
			require.Nil(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "/api/v2/users", entries[0].Pattern)
		})

		t.Run("without validation hooks for schemaless routes", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.get.ts")

			registry := route.NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())

			entries, err := Build(context.Background(), testRoutesConfig(), registry)
			require.Nil(t, err)
			require.Len(t, entries, 1)

			assert.Nil(t, entries[0].Validator)
			assert.Nil(t, entries[0].ResponseValidator)
			assert.NotNil(t, entries[0].Docs)
		})

		t.Run("with validation hooks for declared bundles", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.$id.get.ts")

			registry := route.NewRegistry()
			registry.Register("routes/users.$id.get.ts", &route.Module{
				Handler: noopHandler(),
				Schema: &schema.Bundle{
					Params: schema.B(schema.Object().Require("id", schema.Int())),
					Responses: map[int]schema.Field{
						200: schema.B(schema.Object().Require("id", schema.Int())),
					},
				},
			})

			entries, err := Build(context.Background(), testRoutesConfig(), registry)
			require.Nil(t, err)
			require.Len(t, entries, 1)

			assert.NotNil(t, entries[0].Validator)
			assert.NotNil(t, entries[0].ResponseValidator)
		})

		t.Run("without a response hook when response validation is disabled", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.get.ts")

			registry := route.NewRegistry()
			registry.Register("routes/users.get.ts", &route.Module{
				Handler: noopHandler(),
				Schema: &schema.Bundle{
					Responses: map[int]schema.Field{
						200: schema.B(schema.Object().Require("id", schema.Int())),
					},
				},
			})

			cfg := testRoutesConfig()
			cfg.ValidateResponses = false

			entries, err := Build(context.Background(), cfg, registry)
			require.Nil(t, err)
			require.Len(t, entries, 1)
			assert.Nil(t, entries[0].ResponseValidator)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the mount point is invalid", func(t *testing.T) {
			cfg := testRoutesConfig()
			cfg.Mount = "api"

			_, err := Build(context.Background(), cfg, route.NewRegistry())
			require.ErrorAs(t, err, &route.InvalidMountError{})
		})

		t.Run("if two files compile to the same route", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t,
				"routes/users.$id.get.ts",
				"routes/users/$id.get.ts",
			)

			registry := route.NewRegistry()
			registry.Handle("routes/users.$id.get.ts", noopHandler())
			registry.Handle("routes/users/$id.get.ts", noopHandler())

			_, err := Build(context.Background(), testRoutesConfig(), registry)
			require.ErrorAs(t, err, &DuplicateRouteError{})
		})

		t.Run("if a pattern parameter is missing from the schema", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.$id.get.ts")

			registry := route.NewRegistry()
			registry.Register("routes/users.$id.get.ts", &route.Module{
				Handler: noopHandler(),
				Schema: &schema.Bundle{
					Params: schema.B(schema.Object().Require("userId", schema.Int())),
				},
			})

			_, err := Build(context.Background(), testRoutesConfig(), registry)
			require.Error(t, err)

			var merr ParamMismatchError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, []string{"id"}, merr.MissingFromSchema)
			assert.Equal(t, []string{"userId"}, merr.MissingFromPattern)
		})
	})
}

func TestCheckParamConsistency(t *testing.T) {
	normalize := func(t *testing.T, b *schema.Bundle) *schema.Canonical {
		t.Helper()

		canon, _, err := schema.Normalize(b)
		require.Nil(t, err)
		return canon
	}

	t.Run("will pass", func(t *testing.T) {
		t.Run("if the schema names exactly the pattern parameters", func(t *testing.T) {
			canon := normalize(t, &schema.Bundle{
				Params: schema.B(schema.Object().
					Require("version", schema.String()).
					Require("id", schema.Int())),
			})

			err := checkParamConsistency(route.Descriptor{
				Pattern: "api/:version/users/:id",
			}, canon)
			assert.Nil(t, err)
		})

		t.Run("if no params description is declared", func(t *testing.T) {
			err := checkParamConsistency(route.Descriptor{
				Pattern: "users/:id",
			}, normalize(t, nil))
			assert.Nil(t, err)
		})

		t.Run("for wildcard routes", func(t *testing.T) {
			canon := normalize(t, &schema.Bundle{
				Params: schema.B(schema.Object().Require("rest", schema.String())),
			})

			err := checkParamConsistency(route.Descriptor{
				Pattern:  "files/*",
				Wildcard: true,
			}, canon)
			assert.Nil(t, err)
		})
	})

	t.Run("will report a mismatch", func(t *testing.T) {
		t.Run("naming the parameters missing from each side", func(t *testing.T) {
			canon := normalize(t, &schema.Bundle{
				Params: schema.B(schema.Object().
					Require("id", schema.Int()).
					Require("region", schema.String())),
			})

			err := checkParamConsistency(route.Descriptor{
				File:    "routes/users.$id.$zone.get.ts",
				Pattern: "users/:id/:zone",
			}, canon)
			require.Error(t, err)

			var merr ParamMismatchError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, []string{"zone"}, merr.MissingFromSchema)
			assert.Equal(t, []string{"region"}, merr.MissingFromPattern)
			assert.Contains(t, merr.Error(), "zone")
			assert.Contains(t, merr.Error(), "region")
		})
	})
}
