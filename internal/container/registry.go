package container

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver" // registers the "sqlite3" database/sql driver
	_ "github.com/ncruces/go-sqlite3/embed"  // ships the bundled sqlite3 engine, no cgo required

	"github.com/cloudcode/orchestrator/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Registry is the sqlite-backed worker registry: it lets the
// Provisioner's in-memory pool survive an orchestrator process
// restart by persisting every Worker row as it's provisioned, updated,
// or torn down.
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (creating if absent) the sqlite database at path
// and applies pending migrations.
func OpenRegistry(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open worker registry db: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate worker registry db: %w", err)
	}

	return &Registry{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	if err != nil {
		return fmt.Errorf("sqlite3 migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	log.Info(log.CatDB, "worker registry migrations applied")
	return nil
}

// Close closes the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Upsert persists w, replacing any existing row with the same name.
func (r *Registry) Upsert(ctx context.Context, w *Worker) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workers (name, container_id, agent_type, coding_tool, workspace_path, busy)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			container_id = excluded.container_id,
			agent_type = excluded.agent_type,
			coding_tool = excluded.coding_tool,
			workspace_path = excluded.workspace_path,
			busy = excluded.busy
	`, w.Name, w.ContainerID, w.AgentType, w.CodingTool, w.WorkspacePath, w.Busy)
	return err
}

// Get returns the worker row named name.
func (r *Registry) Get(ctx context.Context, name string) (Worker, error) {
	var w Worker
	row := r.db.QueryRowContext(ctx, `
		SELECT name, container_id, agent_type, coding_tool, workspace_path, busy
		FROM workers WHERE name = ?
	`, name)
	if err := row.Scan(&w.Name, &w.ContainerID, &w.AgentType, &w.CodingTool, &w.WorkspacePath, &w.Busy); err != nil {
		return Worker{}, err
	}
	return w, nil
}

// List returns every persisted worker row.
func (r *Registry) List(ctx context.Context) ([]Worker, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, container_id, agent_type, coding_tool, workspace_path, busy FROM workers
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(&w.Name, &w.ContainerID, &w.AgentType, &w.CodingTool, &w.WorkspacePath, &w.Busy); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// Delete removes the worker row named name. Deleting an absent row is
// a no-op, not an error.
func (r *Registry) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workers WHERE name = ?`, name)
	return err
}
