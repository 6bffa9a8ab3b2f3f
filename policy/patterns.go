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

import "regexp"

// Category classifies what a denylist pattern blocks.
type Category string

const (
	// CategoryMutation covers schema and data mutation keywords.
	CategoryMutation Category = "mutation"

	// CategoryStoredProcedure covers stored-procedure invocation markers.
	CategoryStoredProcedure Category = "stored_procedure"

	// CategoryCommentInjection covers SQL comment smuggling.
	CategoryCommentInjection Category = "comment_injection"

	// CategoryStackedQueries covers trailing statement separators.
	CategoryStackedQueries Category = "stacked_queries"

	// CategoryUnionBased covers UNION-based extraction idioms.
	CategoryUnionBased Category = "union_based"

	// CategorySchemaEnumeration covers direct enumeration of system views.
	CategorySchemaEnumeration Category = "schema_enumeration"
)

// Pattern is one entry of the forbidden-construct denylist.
type Pattern struct {
	// Name is a stable, human-readable identifier for the pattern.
	Name string

	// Category classifies what the pattern blocks.
	Category Category

	// Regex is the compiled expression. Matching is case-insensitive and
	// scans the whole statement.
	Regex *regexp.Regexp

	// Description explains what this pattern blocks.
	Description string
}

// PatternSet is the ordered denylist applied by the validator. Order is
// load-bearing: the first matching pattern names the rejection.
type PatternSet struct {
	patterns []*Pattern
}

// NewPatternSet returns the built-in denylist.
func NewPatternSet() *PatternSet {
	return &PatternSet{patterns: defaultPatterns()}
}

// Patterns returns all patterns in evaluation order.
func (ps *PatternSet) Patterns() []*Pattern {
	return ps.patterns
}

// defaultPatterns returns the fixed denylist. The list and its order are
// part of the gateway's observable contract; tests pin them, including
// their known over-blocking quirks. Do not reorder or "improve" entries.
func defaultPatterns() []*Pattern {
	return []*Pattern{
		{
			Name:        "mutation_keywords",
			Category:    CategoryMutation,
			Regex:       regexp.MustCompile(`(?i)\b(DELETE|DROP|TRUNCATE|ALTER|CREATE|INSERT|UPDATE|GRANT|REVOKE)\b`),
			Description: "Blocks schema and data mutation statements",
		},
		{
			Name:        "stored_procedure_markers",
			Category:    CategoryStoredProcedure,
			Regex:       regexp.MustCompile(`(?i)\b(EXEC|EXECUTE|sp_|xp_)\b`),
			Description: "Blocks stored-procedure invocation markers",
		},
		{
			Name:        "line_comment",
			Category:    CategoryCommentInjection,
			Regex:       regexp.MustCompile(`(?im)--.*$`),
			Description: "Blocks single-line SQL comments",
		},
		{
			Name:        "block_comment",
			Category:    CategoryCommentInjection,
			Regex:       regexp.MustCompile(`(?i)/\*.*?\*/`),
			Description: "Blocks block comments",
		},
		{
			Name:        "statement_terminator",
			Category:    CategoryStackedQueries,
			Regex:       regexp.MustCompile(`(?im);\s*$`),
			Description: "Blocks trailing statement separators (stacked statements)",
		},
		{
			Name:        "union_all_select",
			Category:    CategoryUnionBased,
			Regex:       regexp.MustCompile(`(?i)UNION\s+ALL\s+SELECT`),
			Description: "Blocks the UNION ALL SELECT extraction idiom",
		},
		{
			Name:        "schema_enumeration",
			Category:    CategorySchemaEnumeration,
			Regex:       regexp.MustCompile(`(?i)INFORMATION_SCHEMA\.(TABLES|COLUMNS)`),
			Description: "Blocks direct enumeration of system catalog views",
		},
	}
}
