package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFixtures loads SQL fixture files into the database
func LoadFixtures(db *sql.DB, fixturesPath string, files []string) error {
	for _, file := range files {
		path := filepath.Join(fixturesPath, file)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("load fixture %s: %w", file, err)
		}
	}

	return nil
}

// InsertRawRoute inserts a saved route row with an arbitrary (possibly corrupt) polyline
func InsertRawRoute(db *sql.DB, id, userID, name, encoded string) error {
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO saved_routes (id, user_id, name, source, polyline) VALUES ($1, $2, $3, 'polyline', $4)`,
		id, userID, name, encoded)
	if err != nil {
		return fmt.Errorf("insert raw route %s: %w", id, err)
	}
	return nil
}

// CountRows returns the number of rows in a table
func CountRows(db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(context.Background(),
		fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return n, nil
}
