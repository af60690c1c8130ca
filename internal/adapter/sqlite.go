package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteAdapter SQLite adapter
type SQLiteAdapter struct {
	db     *sql.DB
	config *SQLiteConfig
}

// SQLiteConfig SQLite connection config
type SQLiteConfig struct {
	FilePath string // DB file path, ":memory:" for in-memory
}

// NewSQLiteAdapter creates SQLite adapter
func NewSQLiteAdapter(config *SQLiteConfig) *SQLiteAdapter {
	return &SQLiteAdapter{
		config: config,
	}
}

// Connect connects to database
func (a *SQLiteAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", a.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	return nil
}

// Close closes connection
func (a *SQLiteAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// ExecuteQuery executes query
func (a *SQLiteAdapter) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows, start)
}

// Schema reads tables, columns and foreign keys via sqlite_master and PRAGMAs.
func (a *SQLiteAdapter) Schema(ctx context.Context) (*Schema, error) {
	tableRows, err := a.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer tableRows.Close()

	var names []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := tableRows.Err(); err != nil {
		return nil, err
	}

	schema := &Schema{Tables: []Table{}}
	for _, name := range names {
		table := Table{Name: name, ForeignKeys: []ForeignKey{}}

		cols, err := a.ExecuteQuery(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
		}
		for _, row := range cols.Rows {
			if col, ok := row["name"].(string); ok {
				table.Columns = append(table.Columns, col)
			}
		}

		fks, err := a.ExecuteQuery(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read foreign keys of %s: %w", name, err)
		}
		for _, row := range fks.Rows {
			from, _ := row["from"].(string)
			refTable, _ := row["table"].(string)
			refCol, _ := row["to"].(string)
			if from == "" || refTable == "" || refCol == "" {
				continue
			}
			table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
				Column:     from,
				References: refTable + "." + refCol,
			})
		}

		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

// Type gets database type
func (a *SQLiteAdapter) Type() string {
	return "SQLite"
}
