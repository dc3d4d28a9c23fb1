package datarecording

import (
	"database/sql"
	"fmt"
	"os"
)

// DataReader reads summaries back from a recording database.
type DataReader interface {
	// ListTables returns the names of the tables in the database.
	ListTables() ([]string, error)

	// CountRows returns the number of rows in a table.
	CountRows(tableName string) (int, error)

	// CountBy groups the rows of a table by a column and counts each group.
	CountBy(tableName, column string) (map[string]int, error)

	// Close closes the database.
	Close() error
}

// NewReader opens an existing recording file for reading.
func NewReader(filename string) (DataReader, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}

	return &sqliteReader{DB: db}, nil
}

// NewReaderWithDB creates a DataReader over an opened database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{DB: db}
}

type sqliteReader struct {
	*sql.DB
}

func (r *sqliteReader) ListTables() ([]string, error) {
	rows, err := r.Query(
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (r *sqliteReader) CountRows(tableName string) (int, error) {
	if err := r.checkTable(tableName); err != nil {
		return 0, err
	}

	var n int
	err := r.QueryRow("SELECT COUNT(*) FROM " + tableName).Scan(&n)

	return n, err
}

func (r *sqliteReader) CountBy(tableName, column string) (map[string]int, error) {
	if err := r.checkTable(tableName); err != nil {
		return nil, err
	}

	rows, err := r.Query(fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM %s GROUP BY %s", column, tableName, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key sql.NullString
			n   int
		)

		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}

		counts[key.String] = n
	}

	return counts, rows.Err()
}

func (r *sqliteReader) checkTable(tableName string) error {
	tables, err := r.ListTables()
	if err != nil {
		return err
	}

	for _, t := range tables {
		if t == tableName {
			return nil
		}
	}

	return fmt.Errorf("table %s does not exist", tableName)
}
