// Copyright 2025 QueryGate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package policy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Statement shapes permitted under a read-only context. Matching runs
// against the upper-cased, trimmed statement, anchored at the start.
var allowedShapes = []*regexp.Regexp{
	regexp.MustCompile(`^\s*SELECT\s+`),
	regexp.MustCompile(`^\s*WITH\s+`),
	regexp.MustCompile(`^\s*SHOW\s+`),
	regexp.MustCompile(`^\s*DESCRIBE\s+`),
}

const (
	// maxSelectCount is the complexity gate: more SELECT keywords than this
	// and the statement is rejected.
	maxSelectCount = 3

	// maxStatementLength is the length gate, in characters of the raw
	// statement.
	maxStatementLength = 10000
)

// Rejection describes why the validator refused a statement. A nil
// *Rejection means the statement was accepted.
type Rejection struct {
	// Rule names the gate that fired.
	Rule string `json:"rule"`

	// Reason is a human-readable explanation, safe to return to the caller.
	Reason string `json:"reason"`
}

// Validator applies the security policy to raw SQL text. It is stateless
// and safe for concurrent use.
type Validator struct {
	denylist *PatternSet
}

// NewValidator creates a validator with the built-in denylist.
func NewValidator() *Validator {
	return &Validator{denylist: NewPatternSet()}
}

// Validate checks a statement against the security policy. The checks run
// in a fixed order and the first failing gate names the rejection, but no
// gate short-circuits a later legitimate accept. Returns nil when the
// statement is allowed to execute.
func (v *Validator) Validate(sqlText string, sc SecurityContext) *Rejection {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sqlText))

	// Forbidden-construct scan, in denylist order.
	for _, p := range v.denylist.Patterns() {
		if p.Regex.MatchString(sqlUpper) {
			return &Rejection{
				Rule:   p.Name,
				Reason: fmt.Sprintf("Query contains forbidden pattern: %s", p.Regex.String()),
			}
		}
	}

	// Statement-shape gate: read-only contexts only admit SELECT-like text.
	if sc.ReadOnly {
		allowed := false
		for _, shape := range allowedShapes {
			if shape.MatchString(sqlUpper) {
				allowed = true
				break
			}
		}
		if !allowed {
			return &Rejection{
				Rule:   "read_only_shape",
				Reason: "Read-only mode: Only SELECT queries are allowed",
			}
		}
	}

	// Complexity gate: crude proxy for sub-query nesting depth.
	if strings.Count(sqlUpper, "SELECT") > maxSelectCount {
		return &Rejection{
			Rule:   "complexity",
			Reason: "Query too complex: Too many SELECT statements",
		}
	}

	// Length gate, applied to the raw text. Counted in characters, not
	// bytes, so multibyte literals are not penalized.
	if utf8.RuneCountInString(sqlText) > maxStatementLength {
		return &Rejection{
			Rule:   "length",
			Reason: "Query too long: Maximum 10,000 characters allowed",
		}
	}

	return nil
}
