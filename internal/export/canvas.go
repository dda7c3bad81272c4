// Package export serializes projects into portable documents.
package export

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pders01/cascade/internal/models"
)

// Grid layout
const (
	Columns    = 4
	CardWidth  = 400
	TextHeight = 120
	FileHeight = 200
	LinkHeight = 100
	Gap        = 50
)

// AttachmentDir is the archive folder holding file node bytes
const AttachmentDir = "attachments"

// CanvasNode is one node of a canvas document. Exactly one of Text, File
// or URL is set, matching Type.
type CanvasNode struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Text   *string `json:"text,omitempty"`
	File   *string `json:"file,omitempty"`
	URL    *string `json:"url,omitempty"`
}

// CanvasEdge connects two canvas nodes. Exports never contain edges.
type CanvasEdge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
}

// Document is a canvas file
type Document struct {
	Nodes []CanvasNode `json:"nodes"`
	Edges []CanvasEdge `json:"edges"`
}

// Attachment is a file stored next to the document
type Attachment struct {
	Path string
	Data []byte
}

// IDFunc generates canvas node ids
type IDFunc func() string

// BuildCanvas lays out nodes, already in display order, on the grid
func BuildCanvas(nodes []models.Node, newID IDFunc) (*Document, []Attachment) {
	if newID == nil {
		newID = uuid.NewString
	}

	doc := &Document{
		Nodes: make([]CanvasNode, 0, len(nodes)),
		Edges: []CanvasEdge{},
	}
	var attachments []Attachment
	names := newNameSet()

	for i, n := range nodes {
		height := heightFor(n.Type)
		col, row := i%Columns, i/Columns

		cn := CanvasNode{
			ID:     newID(),
			X:      col * (CardWidth + Gap),
			Y:      row * (height + Gap),
			Width:  CardWidth,
			Height: height,
		}

		switch n.Type {
		case models.NodeFile:
			name := names.claim(attachmentName(n))
			rel := AttachmentDir + "/" + name
			cn.Type = "file"
			cn.File = &rel
			attachments = append(attachments, Attachment{Path: rel, Data: n.FileData})
		case models.NodeLink:
			url := n.URL
			cn.Type = "link"
			cn.URL = &url
		default:
			text := normalizeNewlines(n.Text)
			cn.Type = "text"
			cn.Text = &text
		}
		doc.Nodes = append(doc.Nodes, cn)
	}

	return doc, attachments
}

func heightFor(t models.NodeType) int {
	switch t {
	case models.NodeFile:
		return FileHeight
	case models.NodeLink:
		return LinkHeight
	default:
		return TextHeight
	}
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func attachmentName(n models.Node) string {
	name := SafeName(path.Base(strings.ReplaceAll(n.FileName, "\\", "/")))
	if n.FileName == "" || name == "" || name == "." {
		return fmt.Sprintf("image-%d.png", n.ID)
	}
	return name
}

// nameSet hands out unique file names, suffixing repeats
type nameSet map[string]bool

func newNameSet() nameSet {
	return make(nameSet)
}

func (s nameSet) claim(name string) string {
	if !s[name] {
		s[name] = true
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !s[candidate] {
			s[candidate] = true
			return candidate
		}
	}
}

// SafeName replaces characters that are not allowed in file names
func SafeName(name string) string {
	r := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-",
	)
	return strings.TrimSpace(r.Replace(name))
}
