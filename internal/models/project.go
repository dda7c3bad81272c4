package models

import "time"

// ProjectType selects how a project is presented and exported
type ProjectType string

const (
	ProjectCanvas   ProjectType = "canvas"
	ProjectMarkdown ProjectType = "markdown"
)

// Valid reports whether t is a known project type
func (t ProjectType) Valid() bool {
	switch t {
	case ProjectCanvas, ProjectMarkdown:
		return true
	default:
		return false
	}
}

// Project groups captured nodes
type Project struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	UpdatedAt time.Time   `json:"updatedAt"`
	IsInbox   bool        `json:"isInbox"`
	Type      ProjectType `json:"projectType"`
	// FileHandle is an opaque reference into the vault, owned externally
	FileHandle string `json:"fileHandle,omitempty"`
}
