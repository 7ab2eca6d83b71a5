// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"fmt"
	"strings"
)

// InvalidMountError is returned for a configured mount point which does not
// begin with "/".
type InvalidMountError struct {
	Mount string
}

func (e InvalidMountError) Error() string {
	return fmt.Sprintf("mount point %q must start with %q", e.Mount, "/")
}

// JoinMount prefixes a compiled pattern with the configured mount point,
// guaranteeing exactly one leading slash and no duplicated separator at the
// mount boundary.
func JoinMount(mount, pattern string) string {
	mount = strings.TrimRight(mount, "/")
	if !strings.HasPrefix(mount, "/") {
		mount = "/" + mount
	}
	if pattern == "" {
		if mount == "/" {
			return "/"
		}
		return mount
	}
	if mount == "/" {
		return "/" + pattern
	}
	return mount + "/" + pattern
}

// PatternParams extracts the named parameters from a compiled URL pattern,
// in path order. It recognizes the same ":name" notation the compilers
// produce, including names closed off by an escaped literal dot.
func PatternParams(pattern string) []string {
	var params []string
	for _, seg := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		if name != "" {
			params = append(params, name)
		}
	}
	return params
}
