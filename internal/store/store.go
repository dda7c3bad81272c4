// Package store persists projects and captured nodes in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pders01/cascade/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed pragmas.sql
var pragmasSQL string

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNodeNotFound    = errors.New("node not found")
	ErrNotTextNode     = errors.New("node is not a text node")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrDuplicateNode   = errors.New("node listed more than once")
)

// Store is a SQLite-backed project and node store. Writes are serialized so
// order allocation never races.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open opens or creates the database at path and applies pending migrations
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection keeps per-connection pragmas in force and
	// serializes access at the driver level.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for _, line := range strings.Split(pragmasSQL, "\n") {
		pragma := strings.TrimSpace(line)
		if pragma == "" || strings.HasPrefix(pragma, "--") {
			continue
		}
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// withTx runs fn in a write transaction under the store lock
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) nowMs() int64 {
	return s.now().UnixMilli()
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// ----- Projects -----

const projectColumns = `id, name, updated_at, is_inbox, project_type, file_handle`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p       models.Project
		updated int64
		inbox   int
		typ     string
	)
	if err := row.Scan(&p.ID, &p.Name, &updated, &inbox, &typ, &p.FileHandle); err != nil {
		return nil, err
	}
	p.UpdatedAt = fromMs(updated)
	p.IsInbox = inbox == 1
	p.Type = models.ProjectType(typ)
	if !p.Type.Valid() {
		p.Type = models.ProjectCanvas
	}
	return &p, nil
}

// EnsureInbox returns the inbox project, creating it with name if none exists.
// Calling it repeatedly never creates a second inbox.
func (s *Store) EnsureInbox(ctx context.Context, name string) (*models.Project, error) {
	var project *models.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanProject(tx.QueryRowContext(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE is_inbox = 1`))
		if err == nil {
			project = p
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to query inbox: %w", err)
		}

		project, err = insertProject(ctx, tx, name, models.ProjectCanvas, true, s.nowMs())
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CreateProject creates a new project
func (s *Store) CreateProject(ctx context.Context, name string, typ models.ProjectType) (*models.Project, error) {
	if typ == "" {
		typ = models.ProjectCanvas
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("invalid project type %q", typ)
	}

	var project *models.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		project, err = insertProject(ctx, tx, name, typ, false, s.nowMs())
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func insertProject(ctx context.Context, tx *sql.Tx, name string, typ models.ProjectType, inbox bool, now int64) (*models.Project, error) {
	isInbox := 0
	if inbox {
		isInbox = 1
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO projects (name, updated_at, is_inbox, project_type) VALUES (?, ?, ?, ?)`,
		name, now, isInbox, string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read project id: %w", err)
	}
	return &models.Project{
		ID:        id,
		Name:      name,
		UpdatedAt: fromMs(now),
		IsInbox:   inbox,
		Type:      typ,
	}, nil
}

// GetProject returns a project by id
func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return p, nil
}

// Inbox returns the inbox project without creating it
func (s *Store) Inbox(ctx context.Context) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE is_inbox = 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inbox: %w", ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query inbox: %w", err)
	}
	return p, nil
}

// FindProject returns the most recently updated project with the given name
func (s *Store) FindProject(ctx context.Context, name string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name = ? ORDER BY updated_at DESC, id DESC LIMIT 1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", name, ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// DeleteProject deletes a project and, by cascade, all of its nodes
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("project %d: %w", id, ErrProjectNotFound)
		}
		return nil
	})
}

// SetProjectHandle stores the opaque vault reference for a project
func (s *Store) SetProjectHandle(ctx context.Context, id int64, handle string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE projects SET file_handle = ? WHERE id = ?`, handle, id)
		if err != nil {
			return fmt.Errorf("failed to set project handle: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("project %d: %w", id, ErrProjectNotFound)
		}
		return nil
	})
}

func touchProject(ctx context.Context, tx *sql.Tx, id, now int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", id, ErrProjectNotFound)
	}
	return nil
}
