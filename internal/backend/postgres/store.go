// Package postgres implements the local service.DataSource on a PostgreSQL
// table through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/service"
)

// pingTimeout bounds the connectivity check in Open.
const pingTimeout = 5 * time.Second

// DBTX is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Store implements service.DataSource on the tasks table.
type Store struct {
	db     DBTX
	closer func() error
	log    *logrus.Entry
}

var _ service.DataSource = (*Store)(nil)

// New creates a Store on db. Close closes db when it is a *sql.DB.
func New(db DBTX, log *logrus.Entry) *Store {
	if log == nil {
		log = logging.Discard()
	}
	s := &Store{
		db:  db,
		log: log.WithField("component", "local_store"),
	}
	if sqlDB, ok := db.(*sql.DB); ok {
		s.closer = sqlDB.Close
	}
	return s
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// GetTasks returns all rows in insertion order.
// An empty table is reported as service.ErrLocalNotFound.
func (s *Store) GetTasks(ctx context.Context) ([]service.Task, error) {
	const query = `
		SELECT id, title, description, completed
		FROM tasks
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer rows.Close()

	var tasks []service.Task
	for rows.Next() {
		var t service.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", MapError(err))
	}

	if len(tasks) == 0 {
		return nil, service.ErrLocalNotFound
	}
	return tasks, nil
}

// GetTask returns a single row.
func (s *Store) GetTask(ctx context.Context, id string) (service.Task, error) {
	const query = `
		SELECT id, title, description, completed
		FROM tasks
		WHERE id = $1
	`
	var t service.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.Description, &t.Completed)
	if err != nil {
		return service.Task{}, MapError(err)
	}
	return t, nil
}

// SaveTask inserts the task or replaces the row with the same ID.
// A replaced row keeps its position.
func (s *Store) SaveTask(ctx context.Context, task service.Task) error {
	const query = `
		INSERT INTO tasks (id, title, description, completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			completed = EXCLUDED.completed
	`
	if _, err := s.db.ExecContext(ctx, query, task.ID, task.Title, task.Description, task.Completed); err != nil {
		return fmt.Errorf("failed to save task: %w", MapError(err))
	}
	return nil
}

// CompleteTask sets the completed flag of the task's row.
func (s *Store) CompleteTask(ctx context.Context, task service.Task) error {
	return s.setCompleted(ctx, task.ID, true)
}

// CompleteTaskByID is a no-op: resolving IDs is the repository's job.
func (s *Store) CompleteTaskByID(ctx context.Context, id string) error {
	return nil
}

// ActivateTask clears the completed flag of the task's row.
func (s *Store) ActivateTask(ctx context.Context, task service.Task) error {
	return s.setCompleted(ctx, task.ID, false)
}

// ActivateTaskByID is a no-op: resolving IDs is the repository's job.
func (s *Store) ActivateTaskByID(ctx context.Context, id string) error {
	return nil
}

func (s *Store) setCompleted(ctx context.Context, id string, completed bool) error {
	const query = `UPDATE tasks SET completed = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", MapError(err))
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.log.WithField("task_id", id).Debug("no row to update")
	}
	return nil
}

// ClearCompletedTasks deletes every completed row.
func (s *Store) ClearCompletedTasks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE completed = TRUE`); err != nil {
		return fmt.Errorf("failed to clear completed tasks: %w", MapError(err))
	}
	return nil
}

// RefreshTasks is a no-op: the table is always current.
func (s *Store) RefreshTasks(ctx context.Context) error {
	return nil
}

// DeleteAllTasks deletes every row.
func (s *Store) DeleteAllTasks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", MapError(err))
	}
	return nil
}

// DeleteTask deletes one row. Deleting a missing row is not an error.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", MapError(err))
	}
	return nil
}
