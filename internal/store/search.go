package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pders01/cascade/internal/embeddings"
	"github.com/pders01/cascade/internal/models"
)

// searchColumns omits file_data; search results never need the blob
const searchColumns = `id, project_id, type, ord, created_at, text, original_text,
	edited_text, has_edited, NULL, file_name, url, source_url, source_icon`

// SearchText returns nodes whose text, url, file name or source match every
// word in query, newest first. A zero projectID searches all projects.
func (s *Store) SearchText(ctx context.Context, projectID int64, query string, limit int) ([]models.Node, error) {
	var (
		where []string
		args  []any
	)
	if projectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, projectID)
	}
	for _, word := range strings.Fields(query) {
		pattern := "%" + escapeLike(fold(word)) + "%"
		where = append(where, `(fold(text) LIKE ? ESCAPE '\' OR fold(original_text) LIKE ? ESCAPE '\'
			OR fold(url) LIKE ? ESCAPE '\' OR fold(file_name) LIKE ? ESCAPE '\'
			OR fold(source_url) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	q := `SELECT ` + searchColumns + ` FROM nodes`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	return s.queryNodes(ctx, q, args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]models.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// Stats summarizes the store contents
type Stats struct {
	Projects    int              `json:"projects"`
	Nodes       int              `json:"nodes"`
	ByType      map[string]int   `json:"byType"`
	Edited      int              `json:"edited"`
	FileBytes   int64            `json:"fileBytes"`
	PerProject  []ProjectSummary `json:"perProject"`
	UndoPending bool             `json:"undoPending"`
	Embedded    int              `json:"embedded"`
}

// ProjectSummary is a node count for one project
type ProjectSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
}

// Stats computes counts across all projects
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByType: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&st.Projects); err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(has_edited), 0), COALESCE(SUM(LENGTH(file_data)), 0) FROM nodes`,
	).Scan(&st.Nodes, &st.Edited, &st.FileBytes); err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM node_embeddings`).Scan(&st.Embedded); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}
	var pending int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM undo_buffer`).Scan(&pending); err != nil {
		return nil, fmt.Errorf("failed to read undo buffer: %w", err)
	}
	st.UndoPending = pending > 0

	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM nodes GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to group nodes: %w", err)
	}
	for rows.Next() {
		var (
			typ   string
			count int
		)
		if err := rows.Scan(&typ, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node type: %w", err)
		}
		st.ByType[typ] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT p.id, p.name, COUNT(n.id)
FROM projects p LEFT JOIN nodes n ON n.project_id = p.id
GROUP BY p.id ORDER BY p.updated_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize projects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ps ProjectSummary
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Nodes); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		st.PerProject = append(st.PerProject, ps)
	}
	return st, rows.Err()
}

// ----- Embeddings -----

// PutEmbedding stores or replaces the embedding for a node
func (s *Store) PutEmbedding(ctx context.Context, nodeID int64, model string, vec []float64) error {
	raw, err := embeddings.Encode(vec)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO node_embeddings (node_id, model, vector, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(node_id) DO UPDATE SET model = excluded.model, vector = excluded.vector, updated_at = excluded.updated_at`,
			nodeID, model, raw, s.nowMs())
		if err != nil {
			return fmt.Errorf("failed to store embedding for node %d: %w", nodeID, err)
		}
		return nil
	})
}

// Embeddings returns all stored vectors produced by model, keyed by node id
func (s *Store) Embeddings(ctx context.Context, model string) (map[int64][]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, vector FROM node_embeddings WHERE model = ?`, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]float64)
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		vec, err := embeddings.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		out[id] = vec
	}
	return out, rows.Err()
}

// NodesWithoutEmbedding returns text and link nodes that have no vector for model
func (s *Store) NodesWithoutEmbedding(ctx context.Context, model string) ([]models.Node, error) {
	return s.queryNodes(ctx, `SELECT `+searchColumns+` FROM nodes
WHERE type IN ('text', 'link')
  AND id NOT IN (SELECT node_id FROM node_embeddings WHERE model = ?)
ORDER BY id`, model)
}

// TextNodes returns every text and link node without blobs
func (s *Store) TextNodes(ctx context.Context, projectID int64) ([]models.Node, error) {
	if projectID != 0 {
		return s.queryNodes(ctx, `SELECT `+searchColumns+` FROM nodes
WHERE type IN ('text', 'link') AND project_id = ? ORDER BY id`, projectID)
	}
	return s.queryNodes(ctx, `SELECT `+searchColumns+` FROM nodes
WHERE type IN ('text', 'link') ORDER BY id`)
}
