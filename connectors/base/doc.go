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

// Package base defines the database collaborator contract the gateway
// executes against.
//
// The gateway treats the database as an opaque capability with three
// verbs: open a read-consistent snapshot, execute SQL against it
// returning an ordered row stream plus a column-name schema, and close
// the snapshot. Connection management, retries, and transport belong to
// the concrete connector, not to the gateway.
package base
