package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
)

// ErrEmptyProject is returned instead of exporting a project with no nodes
var ErrEmptyProject = errors.New("this project has no items to export")

// CanvasExt is the file extension of the canvas document
const CanvasExt = ".canvas"

// ProjectReader is the slice of the node store the exporter reads
type ProjectReader interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListNodes(ctx context.Context, projectID int64) ([]models.Node, error)
}

// Result describes a written archive
type Result struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	Nodes       int    `json:"nodes"`
	Attachments int    `json:"attachments"`
}

// Exporter writes canvas archives
type Exporter struct {
	reader  ProjectReader
	newID   IDFunc
	logger  *zap.Logger
	observe func(format, result string)
}

// New creates an exporter
func New(reader ProjectReader, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		reader:  reader,
		logger:  logger,
		observe: func(string, string) {},
	}
}

// WithObserver sets a callback invoked with the format and result of each export
func (e *Exporter) WithObserver(fn func(format, result string)) *Exporter {
	if fn != nil {
		e.observe = fn
	}
	return e
}

// prepared is a project ready to be written
type prepared struct {
	project     *models.Project
	doc         *Document
	attachments []Attachment
}

func (e *Exporter) prepare(ctx context.Context, projectID int64) (*prepared, error) {
	project, err := e.reader.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	nodes, err := e.reader.ListNodes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyProject
	}

	doc, attachments := BuildCanvas(nodes, e.newID)
	return &prepared{project: project, doc: doc, attachments: attachments}, nil
}

// ArchiveName returns the zip file name for a project
func ArchiveName(p *models.Project) string {
	return baseName(p) + ".zip"
}

func baseName(p *models.Project) string {
	name := SafeName(p.Name)
	if name == "" {
		return fmt.Sprintf("project-%d", p.ID)
	}
	return name
}

// WriteArchive writes the project's archive to w. An empty project yields
// ErrEmptyProject before anything is written.
func (e *Exporter) WriteArchive(ctx context.Context, projectID int64, w io.Writer) (*Result, error) {
	prep, err := e.prepare(ctx, projectID)
	if err != nil {
		e.observeErr(err)
		return nil, err
	}

	if err := writeZip(w, prep); err != nil {
		e.observe("canvas", "error")
		return nil, err
	}

	e.observe("canvas", "ok")
	return &Result{
		Name:        ArchiveName(prep.project),
		Nodes:       len(prep.doc.Nodes),
		Attachments: len(prep.attachments),
	}, nil
}

// ExportFile writes the archive into dir and returns its location
func (e *Exporter) ExportFile(ctx context.Context, projectID int64, dir string) (*Result, error) {
	prep, err := e.prepare(ctx, projectID)
	if err != nil {
		e.observeErr(err)
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, ArchiveName(prep.project))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	if err := writeZip(f, prep); err != nil {
		f.Close()
		os.Remove(path)
		e.observe("canvas", "error")
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}

	e.logger.Info("project exported",
		zap.Int64("projectId", projectID),
		zap.String("path", path),
		zap.Int("nodes", len(prep.doc.Nodes)))
	e.observe("canvas", "ok")

	return &Result{
		Name:        ArchiveName(prep.project),
		Path:        path,
		Nodes:       len(prep.doc.Nodes),
		Attachments: len(prep.attachments),
	}, nil
}

func (e *Exporter) observeErr(err error) {
	if errors.Is(err, ErrEmptyProject) {
		e.observe("canvas", "empty")
		return
	}
	e.observe("canvas", "error")
}

func writeZip(w io.Writer, prep *prepared) error {
	raw, err := json.MarshalIndent(prep.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize canvas: %w", err)
	}

	zw := zip.NewWriter(w)
	doc, err := zw.Create(baseName(prep.project) + CanvasExt)
	if err != nil {
		return fmt.Errorf("failed to add canvas to archive: %w", err)
	}
	if _, err := doc.Write(raw); err != nil {
		return fmt.Errorf("failed to write canvas: %w", err)
	}

	for _, a := range prep.attachments {
		// Images are already compressed
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: a.Path, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", a.Path, err)
		}
		if _, err := fw.Write(a.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}
