// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultExclusions(t *testing.T) {
	rules := DefaultExclusions()

	t.Run("will exclude", func(t *testing.T) {
		t.Run("hidden and underscore prefixed entries", func(t *testing.T) {
			assert.True(t, excluded(rules, ".git", true))
			assert.True(t, excluded(rules, ".env.ts", false))
			assert.True(t, excluded(rules, "_helpers", true))
			assert.True(t, excluded(rules, "_middleware.ts", false))
		})

		t.Run("test and spec files", func(t *testing.T) {
			assert.True(t, excluded(rules, "users.test.ts", false))
			assert.True(t, excluded(rules, "users.spec.ts", false))
		})

		t.Run("test directories", func(t *testing.T) {
			assert.True(t, excluded(rules, "__tests__", true))
			assert.True(t, excluded(rules, "__mocks__", true))
		})

		t.Run("type declaration files", func(t *testing.T) {
			assert.True(t, excluded(rules, "routes.d.ts", false))
		})
	})

	t.Run("will not exclude", func(t *testing.T) {
		t.Run("ordinary route files", func(t *testing.T) {
			assert.False(t, excluded(rules, "users.get.ts", false))
			assert.False(t, excluded(rules, "api", true))
		})

		t.Run("directories named like test files", func(t *testing.T) {
			assert.False(t, excluded(rules, "users.test", true))
		})
	})
}

func TestGlob(t *testing.T) {
	t.Run("will exclude entries matching the pattern", func(t *testing.T) {
		t.Run("for files and directories alike", func(t *testing.T) {
			rule := Glob("*.tmp.ts")
			assert.True(t, rule.Excludes("users.tmp.ts", false))
			assert.False(t, rule.Excludes("users.get.ts", false))
		})
	})
}
