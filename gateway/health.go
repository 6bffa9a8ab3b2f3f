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

import (
	"context"
	"time"
)

// ConnectionHealth is the connectivity sub-report of a health probe.
type ConnectionHealth struct {
	Status   string    `json:"status"`
	TestedAt time.Time `json:"tested_at"`
	Error    string    `json:"error,omitempty"`
}

// PerformanceHealth carries the probe's timing observations.
type PerformanceHealth struct {
	LastQueryTime    *time.Time `json:"last_query_time"`
	AverageQueryTime float64    `json:"average_query_time"`
	TotalQueries     int        `json:"total_queries"`
}

// ResourceHealth is a placeholder section; the gateway has no direct
// view of the managed database's resource usage.
type ResourceHealth struct {
	CPUUsage     string `json:"cpu_usage"`
	MemoryUsage  string `json:"memory_usage"`
	StorageUsage string `json:"storage_usage"`
}

// HealthInfo is the full health report for the target database.
type HealthInfo struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	ProjectID   string            `json:"project_id"`
	InstanceID  string            `json:"instance_id"`
	DatabaseID  string            `json:"database_id"`
	Connection  ConnectionHealth  `json:"connection"`
	Performance PerformanceHealth `json:"performance"`
	Resources   ResourceHealth    `json:"resources"`
}

// GetDatabaseHealth probes the database with a trivial statement run
// through the governed pipeline under the system identity. It never
// returns an error: a failed probe degrades the report's status instead.
func (s *Service) GetDatabaseHealth(ctx context.Context) *HealthInfo {
	now := time.Now().UTC()
	health := &HealthInfo{
		Status:     "healthy",
		Timestamp:  now,
		ProjectID:  s.cfg.ProjectID,
		InstanceID: s.cfg.InstanceID,
		DatabaseID: s.cfg.DatabaseID,
		Connection: ConnectionHealth{
			Status:   "connected",
			TestedAt: now,
		},
		Resources: ResourceHealth{
			CPUUsage:     "unknown",
			MemoryUsage:  "unknown",
			StorageUsage: "unknown",
		},
	}

	result, err := s.ExecuteQuery(ctx, "SELECT 1 as health_check", "system", "health_check")
	if err != nil {
		health.Status = "unhealthy"
		health.Connection.Status = "disconnected"
		health.Connection.Error = err.Error()
		return health
	}

	health.Performance = PerformanceHealth{
		LastQueryTime:    &result.Timestamp,
		AverageQueryTime: result.ExecutionTime,
		TotalQueries:     1,
	}
	return health
}
