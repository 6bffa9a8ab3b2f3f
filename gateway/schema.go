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
	"fmt"
	"time"

	"querygate/platform/audit"
)

// Introspection statements run through the same governed pipeline as
// caller queries, under the system identity. They are scoped to the
// default (empty-name) schema.
const (
	schemaColumnsQuery = `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION, COLUMN_DEFAULT
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = ''
ORDER BY TABLE_NAME, ORDINAL_POSITION`

	schemaIndexesQuery = `SELECT TABLE_NAME, INDEX_NAME, INDEX_TYPE, IS_UNIQUE, IS_NULL_FILTERED
FROM INFORMATION_SCHEMA.INDEXES
WHERE TABLE_SCHEMA = ''
ORDER BY TABLE_NAME, INDEX_NAME`
)

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Nullable bool        `json:"nullable"`
	Position int64       `json:"position"`
	Default  interface{} `json:"default"`
}

// TableSchema groups a table's columns with a per-table count.
type TableSchema struct {
	Columns     []ColumnInfo `json:"columns"`
	ColumnCount int          `json:"column_count"`
}

// IndexInfo describes one index of a table.
type IndexInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Unique       bool   `json:"unique"`
	NullFiltered bool   `json:"null_filtered"`
}

// SchemaMetadata carries the summary counts for a schema report.
type SchemaMetadata struct {
	TotalTables  int       `json:"total_tables"`
	TotalColumns int       `json:"total_columns"`
	TotalIndexes int       `json:"total_indexes"`
	LastUpdated  time.Time `json:"last_updated"`
}

// SchemaInfo is the full schema report: tables with their columns,
// indexes grouped by table, and summary metadata.
type SchemaInfo struct {
	Tables   map[string]*TableSchema `json:"tables"`
	Indexes  map[string][]IndexInfo  `json:"indexes"`
	Metadata SchemaMetadata          `json:"metadata"`
}

// TableDetailSection is one facet of a table-statistics report: how many
// entries the introspection returned, plus the raw rows themselves.
type TableDetailSection struct {
	Count   int                      `json:"count"`
	Details []map[string]interface{} `json:"details"`
}

// TableStats is the statistics report for a single table.
type TableStats struct {
	TableName string             `json:"table_name"`
	Columns   TableDetailSection `json:"columns"`
	Indexes   TableDetailSection `json:"indexes"`
	Timestamp time.Time          `json:"timestamp"`
}

// GetSchemaInfo retrieves the schema of the target database by running
// two fixed introspection statements through the governed pipeline under
// the system identity. The operation is atomic: if either statement
// fails, no partial report is returned.
func (s *Service) GetSchemaInfo(ctx context.Context) (*SchemaInfo, error) {
	columns, err := s.ExecuteQuery(ctx, schemaColumnsQuery, "system", "schema_query")
	if err != nil {
		return nil, s.schemaQueryFailed(err)
	}
	indexes, err := s.ExecuteQuery(ctx, schemaIndexesQuery, "system", "schema_query")
	if err != nil {
		return nil, s.schemaQueryFailed(err)
	}

	info := &SchemaInfo{
		Tables:  make(map[string]*TableSchema),
		Indexes: make(map[string][]IndexInfo),
	}

	for _, row := range columns.Data {
		tableName := asString(row["TABLE_NAME"])
		table, ok := info.Tables[tableName]
		if !ok {
			table = &TableSchema{}
			info.Tables[tableName] = table
		}
		table.Columns = append(table.Columns, ColumnInfo{
			Name:     asString(row["COLUMN_NAME"]),
			Type:     asString(row["DATA_TYPE"]),
			Nullable: asString(row["IS_NULLABLE"]) == "YES",
			Position: asInt64(row["ORDINAL_POSITION"]),
			Default:  row["COLUMN_DEFAULT"],
		})
		table.ColumnCount = len(table.Columns)
		info.Metadata.TotalColumns++
	}

	for _, row := range indexes.Data {
		tableName := asString(row["TABLE_NAME"])
		info.Indexes[tableName] = append(info.Indexes[tableName], IndexInfo{
			Name:         asString(row["INDEX_NAME"]),
			Type:         asString(row["INDEX_TYPE"]),
			Unique:       asBool(row["IS_UNIQUE"]),
			NullFiltered: asBool(row["IS_NULL_FILTERED"]),
		})
		info.Metadata.TotalIndexes++
	}

	info.Metadata.TotalTables = len(info.Tables)
	info.Metadata.LastUpdated = time.Now().UTC()

	return info, nil
}

func (s *Service) schemaQueryFailed(cause error) error {
	s.audit(audit.EventSchemaQueryError, "schema_query", "system", "schema_query", cause.Error())
	s.log.ErrorWithCause("system", "schema_query", "Failed to retrieve schema information", cause, nil)
	return &IntrospectionError{Operation: "Failed to retrieve schema information", Cause: cause}
}

// GetTableStatistics runs the same two introspection statements as the
// schema report, filtered to one caller-supplied table. The table name
// is interpolated into the statements as-is; a hostile name is caught by
// the policy scan inside the pipeline, not here. It never issues a data
// query against the named table.
func (s *Service) GetTableStatistics(ctx context.Context, tableName string) (*TableStats, error) {
	columnsQuery := fmt.Sprintf(`SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION, COLUMN_DEFAULT
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = '' AND TABLE_NAME = '%s'
ORDER BY ORDINAL_POSITION`, tableName)
	columns, err := s.ExecuteQuery(ctx, columnsQuery, "system", "table_stats")
	if err != nil {
		return nil, s.tableStatsFailed(tableName, err)
	}

	indexesQuery := fmt.Sprintf(`SELECT INDEX_NAME, INDEX_TYPE, IS_UNIQUE, IS_NULL_FILTERED
FROM INFORMATION_SCHEMA.INDEXES
WHERE TABLE_SCHEMA = '' AND TABLE_NAME = '%s'
ORDER BY INDEX_NAME`, tableName)
	indexes, err := s.ExecuteQuery(ctx, indexesQuery, "system", "table_stats")
	if err != nil {
		return nil, s.tableStatsFailed(tableName, err)
	}

	return &TableStats{
		TableName: tableName,
		Columns: TableDetailSection{
			Count:   columns.RowCount,
			Details: columns.Data,
		},
		Indexes: TableDetailSection{
			Count:   indexes.RowCount,
			Details: indexes.Data,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *Service) tableStatsFailed(tableName string, cause error) error {
	s.log.ErrorWithCause("system", "table_stats", "Failed to retrieve table statistics", cause, map[string]interface{}{
		"table_name": tableName,
	})
	return &IntrospectionError{
		Operation: fmt.Sprintf("Failed to retrieve table statistics for %s", tableName),
		Cause:     cause,
	}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var out int64
		_, _ = fmt.Sscan(n, &out)
		return out
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "YES" || b == "TRUE" || b == "true"
	case int64:
		return b != 0
	default:
		return false
	}
}
