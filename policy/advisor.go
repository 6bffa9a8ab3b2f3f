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
	"strings"
	"time"
)

// Complexity and estimated-cost ratings produced by the advisor.
const (
	RatingLow    = "low"
	RatingMedium = "medium"
	RatingHigh   = "high"
)

// Analysis is the advisor's verdict on a statement. It is a pure function
// of the input text (plus a timestamp) and never touches the database.
type Analysis struct {
	SQL           string         `json:"sql"`
	Timestamp     time.Time      `json:"timestamp"`
	Analysis      AnalysisDetail `json:"analysis"`
	ExecutionPlan interface{}    `json:"execution_plan"`
}

// AnalysisDetail carries the complexity rating and recommendations.
type AnalysisDetail struct {
	Complexity      string   `json:"complexity"`
	EstimatedCost   string   `json:"estimated_cost"`
	Recommendations []string `json:"recommendations"`
}

// AnalyzeQuery flags common performance issues in a statement and derives
// a three-level complexity/cost rating from the number of recommendations
// triggered. Deterministic and side-effect-free.
func AnalyzeQuery(sqlText string) *Analysis {
	a := &Analysis{
		SQL:       sqlText,
		Timestamp: time.Now().UTC(),
		Analysis: AnalysisDetail{
			Complexity:      RatingLow,
			EstimatedCost:   RatingLow,
			Recommendations: []string{},
		},
	}

	sqlUpper := strings.ToUpper(sqlText)

	if strings.Contains(sqlUpper, "SELECT *") {
		a.Analysis.Recommendations = append(a.Analysis.Recommendations,
			"Consider specifying only needed columns instead of SELECT *")
		a.Analysis.Complexity = RatingMedium
	}

	if strings.Contains(sqlUpper, "ORDER BY") && !strings.Contains(sqlUpper, "LIMIT") {
		a.Analysis.Recommendations = append(a.Analysis.Recommendations,
			"Add LIMIT clause when using ORDER BY to improve performance")
		a.Analysis.Complexity = RatingMedium
	}

	if strings.Contains(sqlText, "LIKE '%pattern%'") || strings.Contains(sqlText, "LIKE 'pattern%'") {
		a.Analysis.Recommendations = append(a.Analysis.Recommendations,
			"Consider using indexes for LIKE queries with wildcards")
		a.Analysis.Complexity = RatingHigh
	}

	if strings.Contains(sqlUpper, "JOIN") {
		a.Analysis.Recommendations = append(a.Analysis.Recommendations,
			"Ensure proper indexes exist on JOIN columns")
		a.Analysis.Complexity = RatingMedium
	}

	// The recommendation count overrides the per-check ratings.
	if n := len(a.Analysis.Recommendations); n > 3 {
		a.Analysis.Complexity = RatingHigh
	} else if n > 1 {
		a.Analysis.Complexity = RatingMedium
	}

	switch a.Analysis.Complexity {
	case RatingHigh:
		a.Analysis.EstimatedCost = RatingHigh
	case RatingMedium:
		a.Analysis.EstimatedCost = RatingMedium
	}

	return a
}
