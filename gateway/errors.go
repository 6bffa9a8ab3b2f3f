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

import "fmt"

// PolicyRejectionError is returned when the policy engine refuses a
// statement. The message is safe to return to the caller verbatim.
type PolicyRejectionError struct {
	SQL    string
	Rule   string
	Reason string
}

func (e *PolicyRejectionError) Error() string {
	return fmt.Sprintf("Query rejected for security reasons: %s", e.Reason)
}

// ExecutionError wraps a failure that occurred after validation passed,
// carrying the original SQL and the underlying cause.
type ExecutionError struct {
	SQL   string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Query execution failed: %v (sql: %q)", e.Cause, e.SQL)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// IntrospectionError wraps a failure of a derived read-only operation
// (schema info, table statistics).
type IntrospectionError struct {
	Operation string
	Cause     error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Cause
}

// ConfigError reports a missing or malformed configuration value. The
// process must not serve traffic when one is raised at startup.
type ConfigError struct {
	Variable string
	Detail   string
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Variable, e.Detail)
	}
	return fmt.Sprintf("configuration error: required environment variable %s is not set", e.Variable)
}
