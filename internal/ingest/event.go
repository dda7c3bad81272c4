// Package ingest turns drop and paste events into node store writes.
package ingest

import (
	"strings"

	"github.com/pders01/cascade/internal/models"
)

// Kind is the gesture that produced an event
type Kind string

const (
	KindDrop  Kind = "drop"
	KindPaste Kind = "paste"
)

// Data transfer formats the resolvers read
const (
	MIMEPlainText = "text/plain"
	MIMEURIList   = "text/uri-list"
)

// File is one entry of an event's file list
type File struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// Event is a drop or paste delivered to a project. A zero ProjectID targets
// the inbox.
type Event struct {
	Kind      Kind              `json:"kind"`
	ProjectID int64             `json:"projectId"`
	Data      map[string]string `json:"data"`
	Files     []File            `json:"files"`
	// TargetEditable is set when the paste landed in an input field
	TargetEditable bool `json:"targetEditable"`
}

// Get returns the data transfer value for format, matched case-insensitively
func (e *Event) Get(format string) string {
	if v, ok := e.Data[format]; ok {
		return v
	}
	for k, v := range e.Data {
		if strings.EqualFold(k, format) {
			return v
		}
	}
	return ""
}

// CaptureKind is what a capture will be written as
type CaptureKind int

const (
	CaptureText CaptureKind = iota
	CaptureLink
	// CaptureImage carries image bytes already in hand
	CaptureImage
	// CaptureRemoteImage is an image URL that must go through the fetch relay
	CaptureRemoteImage
)

func (k CaptureKind) String() string {
	switch k {
	case CaptureText:
		return "text"
	case CaptureLink:
		return "link"
	case CaptureImage:
		return "image"
	case CaptureRemoteImage:
		return "remote-image"
	default:
		return "unknown"
	}
}

// Capture is one item to be written to the store
type Capture struct {
	Kind     CaptureKind
	Text     string
	URL      string
	Title    string
	FileName string
	Data     []byte
	Source   models.Source
}

// Resolution is a resolver's verdict on an event
type Resolution struct {
	Resolver string
	Captures []Capture
	// Halt stops the cascade without writing anything
	Halt bool
}
