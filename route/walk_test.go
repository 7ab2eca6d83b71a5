// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

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

func noopHandler() Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{}, nil
	})
}

func TestWalker_Walk(t *testing.T) {
	t.Run("will compile every route file", func(t *testing.T) {
		t.Run("across nested directories", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t,
				"routes/users.get.ts",
				"routes/users/$id.get.ts",
				"routes/users/$id.delete.ts",
			)

			registry := NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())
			registry.Handle("routes/users/$id.get.ts", noopHandler())
			registry.Handle("routes/users/$id.delete.ts", noopHandler())

			w := &Walker{
				BuildRoot:  ".",
				Roots:      []string{"routes"},
				Extensions: testExts,
				Convention: ConventionSigil,
				Loader:     registry,
			}

			ds, err := w.Walk(context.Background())
			require.Nil(t, err)
			require.Len(t, ds, 3)

			sort.Slice(ds, func(i, j int) bool {
				if ds[i].Pattern != ds[j].Pattern {
					return ds[i].Pattern < ds[j].Pattern
				}
				return ds[i].Method < ds[j].Method
			})

			assert.Equal(t, "delete", ds[0].Method)
			assert.Equal(t, "users/:id", ds[0].Pattern)
			assert.Equal(t, []string{"id"}, ds[0].Params)
			assert.Equal(t, "routes/users/$id.delete.ts", ds[0].File)

			assert.Equal(t, "get", ds[1].Method)
			assert.Equal(t, "users/:id", ds[1].Pattern)

			assert.Equal(t, "get", ds[2].Method)
			assert.Equal(t, "users", ds[2].Pattern)
		})

		t.Run("accumulating segments from dot separated directory names", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/api.users/$id.get.ts")

			registry := NewRegistry()
			registry.Handle("routes/api.users/$id.get.ts", noopHandler())

			w := &Walker{
				BuildRoot:  ".",
				Roots:      []string{"routes"},
				Extensions: testExts,
				Convention: ConventionSigil,
				Loader:     registry,
			}

			ds, err := w.Walk(context.Background())
			require.Nil(t, err)
			require.Len(t, ds, 1)
			assert.Equal(t, "api/users/:id", ds[0].Pattern)
		})
	})

	t.Run("will skip", func(t *testing.T) {
		t.Run("excluded entries and foreign extensions", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t,
				"routes/users.get.ts",
				"routes/users.test.ts",
				"routes/notes.md",
				"routes/_private/secret.get.ts",
				"routes/__tests__/helper.get.ts",
			)

			registry := NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())

			w := &Walker{
				BuildRoot:  ".",
				Roots:      []string{"routes"},
				Extensions: testExts,
				Convention: ConventionSigil,
				Loader:     registry,
			}

			ds, err := w.Walk(context.Background())
			require.Nil(t, err)
			require.Len(t, ds, 1)
			assert.Equal(t, "routes/users.get.ts", ds[0].File)
		})

		t.Run("entries matching configured glob rules", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t,
				"routes/users.get.ts",
				"routes/legacy.get.ts",
			)

			registry := NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())

			w := &Walker{
				BuildRoot:  ".",
				Roots:      []string{"routes"},
				Extensions: testExts,
				Convention: ConventionSigil,
				Exclusions: []ExclusionRule{Glob("legacy.*")},
				Loader:     registry,
			}

			ds, err := w.Walk(context.Background())
			require.Nil(t, err)
			require.Len(t, ds, 1)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if no roots are configured", func(t *testing.T) {
			w := &Walker{BuildRoot: "."}

			_, err := w.Walk(context.Background())
			require.ErrorAs(t, err, &NoRootsError{})
		})

		t.Run("if a root does not exist", func(t *testing.T) {
			t.Chdir(t.TempDir())

			w := &Walker{
				BuildRoot: ".",
				Roots:     []string{"missing"},
			}

			_, err := w.Walk(context.Background())
			require.ErrorAs(t, err, &NotADirectoryError{})
		})

		t.Run("if a root is absolute", func(t *testing.T) {
			tmp := t.TempDir()
			t.Chdir(tmp)

			w := &Walker{
				BuildRoot: ".",
				Roots:     []string{tmp},
			}

			_, err := w.Walk(context.Background())
			require.ErrorAs(t, err, &AbsoluteRootError{})
		})

		t.Run("if a route file has no registered module", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.get.ts")

			w := &Walker{
				BuildRoot:  ".",
				Roots:      []string{"routes"},
				Extensions: testExts,
				Convention: ConventionSigil,
				Loader:     NewRegistry(),
			}

			_, err := w.Walk(context.Background())
			require.ErrorAs(t, err, &UnregisteredModuleError{})
		})

		t.Run("if a route file name carries a bad method token", func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeFiles(t, "routes/users.fetch.ts")

			w := &Walker{
				BuildRoot:  ".",
				Roots:      []string{"routes"},
				Extensions: testExts,
				Convention: ConventionSigil,
				Loader:     NewRegistry(),
			}

			_, err := w.Walk(context.Background())
			require.ErrorAs(t, err, &InvalidMethodError{})
		})
	})
}

func TestRegistry(t *testing.T) {
	t.Run("will return the registered module", func(t *testing.T) {
		t.Run("for a known path", func(t *testing.T) {
			registry := NewRegistry()
			registry.Handle("routes/users.get.ts", noopHandler())

			m, err := registry.Load(context.Background(), "routes/users.get.ts")
			require.Nil(t, err)
			assert.NotNil(t, m.Handler)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("for an unknown path", func(t *testing.T) {
			_, err := NewRegistry().Load(context.Background(), "routes/users.get.ts")
			require.ErrorAs(t, err, &UnregisteredModuleError{})
		})

		t.Run("for a module without a handler", func(t *testing.T) {
			registry := NewRegistry()
			registry.Register("routes/users.get.ts", &Module{})

			_, err := registry.Load(context.Background(), "routes/users.get.ts")
			require.ErrorAs(t, err, &MissingHandlerError{})
		})
	})
}
