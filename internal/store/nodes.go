package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pders01/cascade/internal/models"
)

const nodeColumns = `id, project_id, type, ord, created_at, text, original_text,
	edited_text, has_edited, file_data, file_name, url, source_url, source_icon`

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		n       models.Node
		typ     string
		created int64
		edited  sql.NullString
		has     int
	)
	err := row.Scan(&n.ID, &n.ProjectID, &typ, &n.Order, &created, &n.Text, &n.OriginalText,
		&edited, &has, &n.FileData, &n.FileName, &n.URL, &n.SourceURL, &n.SourceIcon)
	if err != nil {
		return nil, err
	}
	n.Type = models.NodeType(typ)
	n.CreatedAt = fromMs(created)
	n.HasEdited = has == 1
	n.EditedText = edited.String
	return &n, nil
}

// AddTextNode appends a text node to a project
func (s *Store) AddTextNode(ctx context.Context, projectID int64, text string, src models.Source) (*models.Node, error) {
	n := &models.Node{
		ProjectID:  projectID,
		Type:       models.NodeText,
		SourceURL:  src.URL,
		SourceIcon: src.Icon,
	}
	n.SetVersion(models.Pristine{Text: text})
	return s.appendNode(ctx, n)
}

// AddImageNode appends a file node holding image bytes
func (s *Store) AddImageNode(ctx context.Context, projectID int64, fileName string, data []byte, src models.Source) (*models.Node, error) {
	return s.appendNode(ctx, &models.Node{
		ProjectID:  projectID,
		Type:       models.NodeFile,
		FileName:   fileName,
		FileData:   data,
		SourceURL:  src.URL,
		SourceIcon: src.Icon,
	})
}

// AddLinkNode appends a link node. title is stored as the node text.
func (s *Store) AddLinkNode(ctx context.Context, projectID int64, url, title string, src models.Source) (*models.Node, error) {
	return s.appendNode(ctx, &models.Node{
		ProjectID:  projectID,
		Type:       models.NodeLink,
		URL:        url,
		Text:       title,
		SourceURL:  src.URL,
		SourceIcon: src.Icon,
	})
}

// appendNode allocates the next order and inserts n in one transaction
func (s *Store) appendNode(ctx context.Context, n *models.Node) (*models.Node, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.nowMs()
		if err := touchProject(ctx, tx, n.ProjectID, now); err != nil {
			return err
		}

		next, err := nextOrder(ctx, tx, n.ProjectID)
		if err != nil {
			return err
		}
		n.Order = next
		n.CreatedAt = fromMs(now)

		return insertNode(ctx, tx, n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func nextOrder(ctx context.Context, tx *sql.Tx, projectID int64) (int, error) {
	var next int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ord), -1) + 1 FROM nodes WHERE project_id = ?`, projectID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate order: %w", err)
	}
	return next, nil
}

// insertNode writes n and sets its id
func insertNode(ctx context.Context, tx *sql.Tx, n *models.Node) error {
	var edited sql.NullString
	if n.HasEdited {
		edited = sql.NullString{String: n.EditedText, Valid: true}
	}
	has := 0
	if n.HasEdited {
		has = 1
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO nodes (
    project_id, type, ord, created_at, text, original_text, edited_text,
    has_edited, file_data, file_name, url, source_url, source_icon
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ProjectID, string(n.Type), n.Order, n.CreatedAt.UnixMilli(), n.Text, n.OriginalText,
		edited, has, n.FileData, n.FileName, n.URL, n.SourceURL, n.SourceIcon,
	)
	if err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read node id: %w", err)
	}
	n.ID = id
	return nil
}

// GetNode returns a node by id
func (s *Store) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	n, err := scanNode(s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query node: %w", err)
	}
	return n, nil
}

func getNodeTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Node, error) {
	n, err := scanNode(tx.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query node: %w", err)
	}
	return n, nil
}

// ListNodes returns a project's nodes in display order
func (s *Store) ListNodes(ctx context.Context, projectID int64) ([]models.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE project_id = ? ORDER BY ord, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
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

// CountNodes returns the number of nodes in a project
func (s *Store) CountNodes(ctx context.Context, projectID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE project_id = ?`, projectID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// UpdateTextNode applies an edit to a text node. changed is false when the
// trimmed content equals the current text, in which case nothing is written.
func (s *Store) UpdateTextNode(ctx context.Context, id int64, content string) (node *models.Node, changed bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := getNodeTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if n.Type != models.NodeText {
			return fmt.Errorf("node %d: %w", id, ErrNotTextNode)
		}

		next, ok := models.ApplyEdit(n.Version(), content)
		node = n
		if !ok {
			return nil
		}
		changed = true
		n.SetVersion(next)

		if _, err := tx.ExecContext(ctx,
			`UPDATE nodes SET text = ?, original_text = ?, edited_text = ?, has_edited = 1 WHERE id = ?`,
			n.Text, n.OriginalText, n.EditedText, id,
		); err != nil {
			return fmt.Errorf("failed to update node: %w", err)
		}
		return touchProject(ctx, tx, n.ProjectID, s.nowMs())
	})
	if err != nil {
		return nil, false, err
	}
	return node, changed, nil
}

// ReorderNodes assigns each listed node the order of its position in ids.
// Either every row is updated or none is.
func (s *Store) ReorderNodes(ctx context.Context, projectID int64, ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("node %d: %w", id, ErrDuplicateNode)
		}
		seen[id] = true
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := tx.ExecContext(ctx,
				`UPDATE nodes SET ord = ? WHERE id = ? AND project_id = ?`, i, id, projectID)
			if err != nil {
				return fmt.Errorf("failed to reorder node %d: %w", id, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("node %d in project %d: %w", id, projectID, ErrNodeNotFound)
			}
		}
		return touchProject(ctx, tx, projectID, s.nowMs())
	})
}
