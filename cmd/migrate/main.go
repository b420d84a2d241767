package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

// ensureVersionTable creates the bookkeeping table that records which
// migration files have already run.
func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func appliedSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		applied[f] = true
	}
	return applied, rows.Err()
}

// applyMigrations runs every pending .sql file in dir in lexical order.
// Each file executes in one transaction together with its
// schema_migrations insert, so a failed migration records nothing and
// reruns next time. Returns how many files were applied and skipped.
func applyMigrations(db *sql.DB, dir string) (int, int, error) {
	applied, err := appliedSet(db)
	if err != nil {
		return 0, 0, fmt.Errorf("read schema_migrations: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var ran, skipped int
	for _, f := range files {
		if applied[f] {
			skipped++
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return ran, skipped, fmt.Errorf("read %s: %w", f, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			skipped++
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return ran, skipped, fmt.Errorf("%s: begin: %w", f, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			tx.Rollback()
			return ran, skipped, fmt.Errorf("%s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, f); err != nil {
			tx.Rollback()
			return ran, skipped, fmt.Errorf("%s: record: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return ran, skipped, fmt.Errorf("%s: commit: %w", f, err)
		}
		log.Printf("  %s ... OK", f)
		ran++
	}
	return ran, skipped, nil
}

func listApplied(db *sql.DB) error {
	rows, err := db.Query(`SELECT filename, applied_at::text FROM schema_migrations ORDER BY filename`)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var f, at string
		if err := rows.Scan(&f, &at); err != nil {
			return err
		}
		fmt.Printf("  %s  (applied %s)\n", f, at)
		n++
	}
	fmt.Printf("Total: %d applied migrations\n", n)
	return rows.Err()
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dir := "migrations"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			dir = a
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	if err := ensureVersionTable(db); err != nil {
		log.Fatalf("init schema_migrations: %v", err)
	}

	if listOnly {
		if err := listApplied(db); err != nil {
			log.Fatal(err)
		}
		return
	}

	ran, skipped, err := applyMigrations(db, dir)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("Done: %d applied, %d skipped", ran, skipped)
}
