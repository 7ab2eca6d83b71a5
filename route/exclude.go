// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"path"
	"strings"
)

// ExclusionRule decides whether a directory entry is skipped by the walker.
// Rules are tested against the entry's name, never its full path. A matched
// directory is skipped together with its whole subtree.
type ExclusionRule interface {
	Excludes(name string, isDir bool) bool
}

// ExclusionRuleFunc is an adapter to allow the use of ordinary functions as
// [ExclusionRule]s.
type ExclusionRuleFunc func(name string, isDir bool) bool

// Excludes implements the [ExclusionRule] interface.
func (f ExclusionRuleFunc) Excludes(name string, isDir bool) bool {
	return f(name, isDir)
}

// Glob returns a rule excluding entries whose name matches the given
// [path.Match] pattern.
func Glob(pattern string) ExclusionRule {
	return ExclusionRuleFunc(func(name string, isDir bool) bool {
		ok, err := path.Match(pattern, name)
		return err == nil && ok
	})
}

var testDirNames = []string{"__test__", "__tests__", "__spec__", "__specs__", "__mocks__"}

// DefaultExclusions returns the rules applied to every walk before any
// configured rules: hidden and underscore prefixed entries, test and spec
// files, test directories, and type declaration files.
func DefaultExclusions() []ExclusionRule {
	return []ExclusionRule{
		// Hidden files and directories, and underscore prefixed entries
		// like _helpers or _middleware.ts.
		ExclusionRuleFunc(func(name string, isDir bool) bool {
			return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
		}),
		// Test and spec files: name ends in ".test" or ".spec" before
		// the extension.
		ExclusionRuleFunc(func(name string, isDir bool) bool {
			if isDir {
				return false
			}
			base := strings.TrimSuffix(name, path.Ext(name))
			return strings.HasSuffix(base, ".test") || strings.HasSuffix(base, ".spec")
		}),
		// Double underscore wrapped test directories.
		ExclusionRuleFunc(func(name string, isDir bool) bool {
			if !isDir {
				return false
			}
			for _, dir := range testDirNames {
				if name == dir {
					return true
				}
			}
			return false
		}),
		// Type declaration files, e.g. routes.d.ts.
		ExclusionRuleFunc(func(name string, isDir bool) bool {
			if isDir {
				return false
			}
			base := strings.TrimSuffix(name, path.Ext(name))
			return strings.HasSuffix(base, ".d")
		}),
	}
}

func excluded(rules []ExclusionRule, name string, isDir bool) bool {
	for _, rule := range rules {
		if rule.Excludes(name, isDir) {
			return true
		}
	}
	return false
}
