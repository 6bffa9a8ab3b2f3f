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

// OperationKind classifies the database operations a context may permit.
type OperationKind string

const (
	// OperationRead permits data queries.
	OperationRead OperationKind = "read"

	// OperationSchema permits schema introspection.
	OperationSchema OperationKind = "schema"

	// OperationMetadata permits metadata lookups.
	OperationMetadata OperationKind = "metadata"

	// OperationMonitoring permits health and performance probes.
	OperationMonitoring OperationKind = "monitoring"

	// OperationAdminRead permits read-only administrative queries.
	OperationAdminRead OperationKind = "admin_read"
)

// DefaultAllowedOperations is the operation set applied when a context is
// created without one.
func DefaultAllowedOperations() []OperationKind {
	return []OperationKind{OperationRead, OperationSchema, OperationMetadata}
}

// SecurityContext is the immutable per-request bundle of identity and
// execution limits. It is created once per invocation and never mutated
// after construction. Identity strings are opaque labels used only for
// audit correlation; they are not validated.
type SecurityContext struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`

	// ReadOnly restricts statements to the SELECT/WITH/SHOW/DESCRIBE shape.
	ReadOnly bool `json:"read_only"`

	// MaxRows caps the number of rows materialized per execution.
	MaxRows int `json:"max_rows"`

	// QueryTimeoutSeconds is the declared per-query timeout. Enforcement is
	// delegated to the underlying database call.
	QueryTimeoutSeconds int `json:"query_timeout_seconds"`

	// AllowedOperations scopes what the context permits. The validator only
	// checks read-only-ness; per-kind enforcement is intentionally absent.
	AllowedOperations []OperationKind `json:"allowed_operations"`
}

// ContextDefaults holds the process-wide limits applied to every request.
type ContextDefaults struct {
	ReadOnly            bool
	MaxRows             int
	QueryTimeoutSeconds int
}

// NewSecurityContext builds a SecurityContext from per-call identity and
// process-wide defaults.
func NewSecurityContext(userID, sessionID string, defaults ContextDefaults) SecurityContext {
	return SecurityContext{
		UserID:              userID,
		SessionID:           sessionID,
		ReadOnly:            defaults.ReadOnly,
		MaxRows:             defaults.MaxRows,
		QueryTimeoutSeconds: defaults.QueryTimeoutSeconds,
		AllowedOperations:   DefaultAllowedOperations(),
	}
}
