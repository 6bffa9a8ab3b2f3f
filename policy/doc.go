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

/*
Package policy validates LLM-produced SQL text before it is allowed to
reach the database.

The validator is pure and stateless: it holds no mutable state and performs
no I/O. It applies four gates, in order:

 1. Forbidden-construct scan: a fixed, ordered denylist of patterns that
    block schema/data mutation and common injection vectors. First match
    wins for reporting.
 2. Statement-shape gate: under a read-only context the statement must
    start with SELECT, WITH, SHOW, or DESCRIBE.
 3. Complexity gate: more than 3 occurrences of the SELECT keyword are
    rejected as a crude proxy for sub-query nesting depth.
 4. Length gate: statements longer than 10,000 characters are rejected.

Pattern filtering is a defense-in-depth layer, not a substitute for
parameterized queries or a real SQL parser. It deliberately over-blocks
(a literal INFORMATION_SCHEMA.TABLES anywhere in the text is rejected,
even inside an otherwise harmless string) in favor of false positives
over false negatives: the caller is an automated agent, not a human who
can negotiate around a rejection.

# Usage

	v := policy.NewValidator()
	if rej := v.Validate(sql, secCtx); rej != nil {
	    // rej.Rule names the gate, rej.Reason is safe to show the caller
	}

The package also carries the SecurityContext type (the immutable
per-request bundle of identity and execution limits) and a heuristic,
execution-free performance advisor (AnalyzeQuery).
*/
package policy
