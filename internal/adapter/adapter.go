package adapter

import (
	"context"
	"database/sql"
	"time"
)

// DBAdapter is a lightweight database access layer: it connects, runs SQL
// and introspects the live schema. No ORM, no statement caching.
type DBAdapter interface {
	// Connect opens the connection and verifies it with a ping.
	Connect(ctx context.Context) error

	// Close closes the connection.
	Close() error

	// ExecuteQuery runs a SQL string and returns a unified result.
	ExecuteQuery(ctx context.Context, query string) (*QueryResult, error)

	// Schema reads the live table structure, including foreign keys.
	Schema(ctx context.Context) (*Schema, error)

	// Type returns the dialect name: "MySQL", "PostgreSQL" or "SQLite".
	Type() string
}

// QueryResult is the unified query result across dialects.
type QueryResult struct {
	Columns   []string
	Rows      []map[string]interface{}
	RowCount  int
	ElapsedMs int64
}

// Config is the dialect-independent connection config.
type Config struct {
	Type     string // "mysql", "postgresql", "sqlite"
	Host     string
	Port     int
	Database string
	User     string
	Password string
	FilePath string // sqlite only
}

// New creates the adapter matching config.Type.
func New(config *Config) (DBAdapter, error) {
	switch config.Type {
	case "mysql":
		return NewMySQLAdapter(&MySQLConfig{
			Host:     config.Host,
			Port:     config.Port,
			Database: config.Database,
			User:     config.User,
			Password: config.Password,
		}), nil
	case "postgresql":
		return NewPostgreSQLAdapter(&PostgreSQLConfig{
			Host:     config.Host,
			Port:     config.Port,
			Database: config.Database,
			User:     config.User,
			Password: config.Password,
		}), nil
	case "sqlite":
		return NewSQLiteAdapter(&SQLiteConfig{
			FilePath: config.FilePath,
		}), nil
	default:
		return nil, &UnsupportedDatabaseError{Type: config.Type}
	}
}

// UnsupportedDatabaseError is returned for unknown dialect names.
type UnsupportedDatabaseError struct {
	Type string
}

func (e *UnsupportedDatabaseError) Error() string {
	return "unsupported database type: " + e.Type
}

// scanRows reads all rows into maps keyed by column name.
// []byte values are normalized to string so results serialize cleanly.
func scanRows(rows *sql.Rows, start time.Time) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueryResult{
		Columns:   columns,
		Rows:      result,
		RowCount:  len(result),
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}
