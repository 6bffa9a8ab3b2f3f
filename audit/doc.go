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
Package audit records one structured event for every validation and
execution outcome in the gateway.

Entries are append-only and fire-and-forget: a Sink must never block or
fail the operation that emits the event. Retention is an external concern
(the log aggregation system or the audit database).

Two sinks ship with the gateway:

  - LogSink writes each entry as a single-line JSON record through the
    shared structured logger, for log-pipeline consumption.
  - PostgresSink batches entries into an audit_log table via a background
    queue, for compliance queries over longer windows.

NopSink is used when audit logging is disabled by configuration.
*/
package audit
