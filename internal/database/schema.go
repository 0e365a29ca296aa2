package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SchemaProgressCallback is called during schema creation to report progress
type SchemaProgressCallback func(current int, total int, description string)

// Column is one column of an export table
type Column struct {
	Name       string
	Type       string
	Constraint string
}

// TableSchema describes an export table
type TableSchema struct {
	Name        string
	Columns     []Column
	Constraints []string
	Indexes     [][]string
}

const (
	SourcesTable     = "sources"
	TextEntriesTable = "text_entries"
	VFEntriesTable   = "vf_entries"
)

// Schemas are the export tables in creation order.
var Schemas = []TableSchema{
	{
		Name: SourcesTable,
		Columns: []Column{
			{Name: "id", Type: "INTEGER", Constraint: "PRIMARY KEY"},
			{Name: "path", Type: "TEXT", Constraint: "NOT NULL UNIQUE"},
			{Name: "format", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "profile", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "entry_count", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "magic", Type: "TEXT"},
			{Name: "manifest_version", Type: "INTEGER"},
			{Name: "header", Type: "BLOB"},
		},
	},
	{
		Name: TextEntriesTable,
		Columns: []Column{
			{Name: "source_id", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "idx", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "key", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "value", Type: "BLOB", Constraint: "NOT NULL"},
			{Name: "key_length", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "key_offset", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "value_length", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "value_offset", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "opaque", Type: "BLOB"},
		},
		Constraints: []string{
			"PRIMARY KEY (source_id, idx)",
			"FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE CASCADE",
		},
		Indexes: [][]string{{"key"}},
	},
	{
		Name: VFEntriesTable,
		Columns: []Column{
			{Name: "source_id", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "idx", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "file_name", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "file_path", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "file_size", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "source_file_number", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "original_crc", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "exported_crc", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "opaque", Type: "BLOB"},
		},
		Constraints: []string{
			"PRIMARY KEY (source_id, idx)",
			"FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE CASCADE",
		},
		Indexes: [][]string{{"file_path"}},
	},
}

// DDLManager handles schema creation
type DDLManager struct {
	db *Database
}

// NewDDLManager creates a new DDL manager
func NewDDLManager(db *Database) *DDLManager {
	return &DDLManager{db: db}
}

// GenerateTableDDL generates CREATE TABLE SQL for a given table schema
func (dm *DDLManager) GenerateTableDDL(table *TableSchema) (string, error) {
	if table == nil {
		return "", fmt.Errorf("table schema cannot be nil")
	}
	if len(table.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", table.Name)
	}

	var defs []string
	for _, col := range table.Columns {
		def := quoteSQLIdentifier(col.Name) + " " + col.Type
		if col.Constraint != "" {
			def += " " + col.Constraint
		}
		defs = append(defs, def)
	}
	defs = append(defs, table.Constraints...)

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		quoteSQLIdentifier(table.Name), strings.Join(defs, ",\n    ")), nil
}

// GenerateIndexDDL generates CREATE INDEX SQL for every index of table
func (dm *DDLManager) GenerateIndexDDL(table *TableSchema) []string {
	var ddl []string
	for _, columns := range table.Indexes {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = quoteSQLIdentifier(c)
		}
		name := fmt.Sprintf("idx_%s_%s", table.Name, strings.Join(columns, "_"))
		ddl = append(ddl, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteSQLIdentifier(name), quoteSQLIdentifier(table.Name), strings.Join(quoted, ", ")))
	}
	return ddl
}

// CreateSchemas creates every export table and its indexes in a single
// transaction. Existing tables are left alone.
func (dm *DDLManager) CreateSchemas(ctx context.Context, progressCallback SchemaProgressCallback) error {
	if dm.db == nil {
		return fmt.Errorf("database cannot be nil")
	}

	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for i := range Schemas {
		table := &Schemas[i]

		tableDDL, err := dm.GenerateTableDDL(table)
		if err != nil {
			return fmt.Errorf("generating table DDL for %s: %w", table.Name, err)
		}
		if _, err := tx.ExecContext(ctx, tableDDL); err != nil {
			return fmt.Errorf("creating table %s: %w", table.Name, err)
		}

		for _, indexDDL := range dm.GenerateIndexDDL(table) {
			if _, err := tx.ExecContext(ctx, indexDDL); err != nil {
				return fmt.Errorf("creating index on %s: %w", table.Name, err)
			}
		}

		slog.Debug("Created table schema", "table", table.Name, "columns", len(table.Columns))

		if progressCallback != nil {
			progressCallback(i+1, len(Schemas), table.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// quoteSQLIdentifier quotes SQL identifiers to prevent conflicts with reserved words
func quoteSQLIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
