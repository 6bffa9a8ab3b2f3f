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

// Package gateway is the QueryGate service: it accepts SQL produced by an
// LLM on a caller's behalf, validates it against the security policy,
// executes it with bounded resources against a read-consistent database
// snapshot, audits every decision, and exposes the tool operations over
// HTTP.
//
// The execution pipeline for every query is fixed: build a security
// context, validate, audit the verdict, open a snapshot, run the
// statement with timing, materialize at most MaxRows rows keyed by
// result-schema column names, audit the outcome, and return a
// QueryResult. Rejected queries never touch the database.
package gateway
