package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
)

// AssetsDir is the vault folder receiving images of markdown projects
const AssetsDir = "assets"

// Vault is the file-handle capability markdown projects are written through
type Vault interface {
	Write(name, text string) error
	SaveBinary(subfolder, name string, data []byte) (string, error)
	Exists(name string) bool
}

// HandleSetter remembers which vault file a project was synced to
type HandleSetter interface {
	SetProjectHandle(ctx context.Context, id int64, handle string) error
}

// SyncResult describes a markdown sync
type SyncResult struct {
	File   string   `json:"file"`
	Nodes  int      `json:"nodes"`
	Assets []string `json:"assets,omitempty"`
}

// SyncMarkdown renders the project as markdown and writes it into the vault.
// The file is the project's existing handle, or <name>.md on first sync.
func (e *Exporter) SyncMarkdown(ctx context.Context, projectID int64, v Vault, handles HandleSetter) (*SyncResult, error) {
	project, err := e.reader.GetProject(ctx, projectID)
	if err != nil {
		e.observe("markdown", "error")
		return nil, err
	}
	nodes, err := e.reader.ListNodes(ctx, projectID)
	if err != nil {
		e.observe("markdown", "error")
		return nil, err
	}

	file := project.FileHandle
	if file == "" {
		file = baseName(project) + ".md"
	}

	result := &SyncResult{File: file, Nodes: len(nodes)}
	images := make(map[int64]string)
	for _, n := range nodes {
		if n.Type != models.NodeFile {
			continue
		}
		rel, err := saveAsset(v, n)
		if err != nil {
			e.observe("markdown", "error")
			return nil, err
		}
		images[n.ID] = rel
		result.Assets = append(result.Assets, rel)
	}

	if err := v.Write(file, RenderMarkdown(project, nodes, images)); err != nil {
		e.observe("markdown", "error")
		return nil, fmt.Errorf("failed to write %s: %w", file, err)
	}

	if project.FileHandle != file && handles != nil {
		if err := handles.SetProjectHandle(ctx, projectID, file); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("markdown synced",
		zap.Int64("projectId", projectID),
		zap.String("file", file),
		zap.Int("assets", len(result.Assets)))
	e.observe("markdown", "ok")
	return result, nil
}

// saveAsset stores a file node under assets/, reusing an earlier sync's copy
func saveAsset(v Vault, n models.Node) (string, error) {
	name := attachmentName(n)
	existing := AssetsDir + "/" + name
	if v.Exists(existing) {
		return existing, nil
	}
	rel, err := v.SaveBinary(AssetsDir, name, n.FileData)
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	return rel, nil
}

// RenderMarkdown renders nodes in order. images maps file node ids to their
// vault paths.
func RenderMarkdown(p *models.Project, nodes []models.Node, images map[int64]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Name)

	for _, n := range nodes {
		b.WriteString("\n")
		switch n.Type {
		case models.NodeFile:
			rel, ok := images[n.ID]
			if !ok {
				rel = AssetsDir + "/" + attachmentName(n)
			}
			fmt.Fprintf(&b, "![%s](%s)\n", n.FileName, rel)
		case models.NodeLink:
			fmt.Fprintf(&b, "[%s](%s)\n", n.Title(), n.URL)
		default:
			b.WriteString(strings.TrimRight(normalizeNewlines(n.Text), "\n"))
			b.WriteString("\n")
		}
		if n.SourceURL != "" && n.SourceURL != n.URL {
			fmt.Fprintf(&b, "\n<small>Source: %s</small>\n", n.SourceURL)
		}
	}
	return b.String()
}
