// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package validate enforces schema bundles at request time.
//
// A route's bundle is normalized once at startup; this package consumes the
// normalized form together with its provenance to validate each request part
// with the validator matching the language the part was written in, and to
// validate handler responses declared in the parse language.
package validate

import (
	"strings"

	"github.com/loamhq/loam/schema"
)

// ErrorBody is the serialized shape of every validation failure reply.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

func formatIssues(issues []schema.Issue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, ", ")
}
