package testhelpers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ApplyMigrations applies all .up.sql migration files from the specified directory
func ApplyMigrations(db *sql.DB, migrationsPath string) error {
	return applyMigrations(db, migrationsPath, ".up.sql", false)
}

// RollbackMigrations applies all .down.sql files in reverse order
func RollbackMigrations(db *sql.DB, migrationsPath string) error {
	return applyMigrations(db, migrationsPath, ".down.sql", true)
}

func applyMigrations(db *sql.DB, migrationsPath, suffix string, reverse bool) error {
	files, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Filter files by suffix and sort them
	var selected []string
	for _, f := range files {
		if strings.HasSuffix(f.Name(), suffix) {
			selected = append(selected, f.Name())
		}
	}
	sort.Strings(selected)
	if reverse {
		slices.Reverse(selected)
	}

	for _, file := range selected {
		content, err := os.ReadFile(filepath.Join(migrationsPath, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
