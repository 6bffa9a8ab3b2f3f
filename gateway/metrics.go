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

package gateway

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics
var (
	promQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querygate_queries_total",
			Help: "Total number of queries processed by the gateway",
		},
		[]string{"status"},
	)
	promQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querygate_query_duration_seconds",
			Help:    "Query execution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
	promPolicyRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygate_policy_rejections_total",
			Help: "Total number of queries rejected by the security policy",
		},
	)
	promRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygate_rate_limited_total",
			Help: "Total number of requests refused by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(promQueriesTotal)
	prometheus.MustRegister(promQueryDuration)
	prometheus.MustRegister(promPolicyRejections)
	prometheus.MustRegister(promRateLimited)
}
