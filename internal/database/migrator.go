package database

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrator applies SQL schema migrations in filename order and records
// them in schema_migrations so they run exactly once.
type Migrator struct {
	pool          *pgxpool.Pool
	migrationsFS  fs.FS
	migrationsDir string
}

// NewMigrator creates a migrator that reads .sql files from the given
// directory on disk instead of the embedded copies.
func NewMigrator(pool *pgxpool.Pool, dir string) *Migrator {
	return &Migrator{pool: pool, migrationsDir: dir}
}

// NewMigratorWithFS creates a migrator backed by an embedded filesystem,
// falling back to disk if the embedded directory cannot be read.
func NewMigratorWithFS(pool *pgxpool.Pool, migrationsFS fs.FS, dir string) *Migrator {
	return &Migrator{pool: pool, migrationsFS: migrationsFS, migrationsDir: dir}
}

// Run applies all pending migrations. Files whose name contains "reset"
// are skipped; they exist for manual use only.
func (m *Migrator) Run(ctx context.Context) error {
	log.Println("Running database migrations...")

	if err := m.ensureTrackingTable(ctx); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}

	names, embedded, err := m.listMigrations()
	if err != nil {
		return err
	}

	ran := 0
	for _, name := range names {
		if strings.Contains(name, "reset") {
			log.Printf("  skipping %s (reset script)", name)
			continue
		}
		if applied[name] {
			continue
		}

		var content []byte
		if embedded {
			content, err = fs.ReadFile(m.migrationsFS, name)
		} else {
			content, err = os.ReadFile(m.migrationsDir + "/" + name)
		}
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		log.Printf("  applying %s", name)
		for i, stmt := range splitSQLStatements(string(content)) {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || stmt == ";" {
				continue
			}
			if _, err := m.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s statement %d: %w", name, i+1, err)
			}
		}

		if err := m.recordMigration(ctx, name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		ran++
	}

	if ran > 0 {
		log.Printf("Applied %d new migration(s)", ran)
	} else {
		log.Println("Database schema is up to date")
	}
	return nil
}

func (m *Migrator) listMigrations() ([]string, bool, error) {
	var entries []fs.DirEntry
	var err error
	embedded := false

	if m.migrationsFS != nil {
		entries, err = fs.ReadDir(m.migrationsFS, ".")
		if err == nil {
			embedded = true
		}
	}
	if !embedded {
		entries, err = os.ReadDir(m.migrationsDir)
		if err != nil {
			return nil, false, fmt.Errorf("read migrations directory: %w", err)
		}
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, embedded, nil
}

func (m *Migrator) ensureTrackingTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *Migrator) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, name string) error {
	_, err := m.pool.Exec(ctx,
		"INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING",
		name)
	return err
}

// splitSQLStatements splits a migration into individual statements so
// each can be executed on its own. Semicolons inside $$ quoted blocks
// (trigger functions, DO blocks) do not terminate a statement.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder
	dollarDepth := 0

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		dollarDepth += strings.Count(line, "$$")

		current.WriteString(line)
		current.WriteString("\n")

		if dollarDepth%2 == 0 && strings.HasSuffix(trimmed, ";") {
			if !strings.HasPrefix(trimmed, "--") {
				statements = append(statements, current.String())
				current.Reset()
			}
		}
	}

	if rest := strings.TrimSpace(current.String()); rest != "" && !strings.HasPrefix(rest, "--") {
		statements = append(statements, rest)
	}
	return statements
}
