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

// Package main is the entry point for the QueryGate service.
//
// QueryGate is a governance gateway for LLM-produced SQL that:
// - Validates every statement against a layered security policy
// - Executes approved statements against a read-consistent snapshot
// - Bounds result size and materializes rows by column name
// - Audits every decision and outcome
//
// Usage:
//
//	./gateway
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	DATABASE_URL - PostgreSQL connection string
//	QUERYGATE_INSTANCE - target instance identifier (required)
//	QUERYGATE_DATABASE - target database identifier (required)
//	QUERYGATE_READ_ONLY - restrict to SELECT-shaped statements (default: true)
package main

import (
	"querygate/platform/gateway"
)

func main() {
	gateway.Run()
}
