package models

import "time"

// NodeType is the kind of captured item
type NodeType string

const (
	NodeText NodeType = "text"
	NodeFile NodeType = "file"
	NodeLink NodeType = "link"
)

// Valid reports whether t is a known node type
func (t NodeType) Valid() bool {
	switch t {
	case NodeText, NodeFile, NodeLink:
		return true
	default:
		return false
	}
}

// Node is one captured item belonging to a project.
//
// For text nodes the Text, OriginalText, EditedText and HasEdited fields are
// the flattened form of a TextVersion; use Version and SetVersion rather than
// writing them directly.
type Node struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Type      NodeType  `json:"type"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`

	Text         string `json:"text,omitempty"`
	OriginalText string `json:"originalText,omitempty"`
	EditedText   string `json:"editedText,omitempty"`
	HasEdited    bool   `json:"hasEdited,omitempty"`

	FileData []byte `json:"fileData,omitempty"`
	FileName string `json:"fileName,omitempty"`

	URL string `json:"url,omitempty"`

	SourceURL  string `json:"sourceUrl,omitempty"`
	SourceIcon string `json:"sourceIcon,omitempty"`
}

// Source is where a capture came from
type Source struct {
	URL  string
	Icon string
}

// Version returns the text version state of a text node
func (n *Node) Version() TextVersion {
	if n.HasEdited {
		return Edited{Original: n.OriginalText, Latest: n.EditedText}
	}
	return Pristine{Text: n.Text}
}

// SetVersion flattens v into the node's text fields
func (n *Node) SetVersion(v TextVersion) {
	switch v := v.(type) {
	case Pristine:
		n.Text = v.Text
		n.OriginalText = v.Text
		n.EditedText = ""
		n.HasEdited = false
	case Edited:
		n.Text = v.Latest
		n.OriginalText = v.Original
		n.EditedText = v.Latest
		n.HasEdited = true
	}
}

// Title returns the display title of a node
func (n *Node) Title() string {
	switch n.Type {
	case NodeFile:
		return n.FileName
	case NodeLink:
		if n.Text != "" {
			return n.Text
		}
		return n.URL
	default:
		return n.Text
	}
}
