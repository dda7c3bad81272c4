package ingest

import (
	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/models"
)

// Notifier is told about successful ingestion
type Notifier interface {
	NodeCreated(node models.Node)
	ImageDownloaded(c fetch.Completion)
}

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) NodeCreated(models.Node)          {}
func (NopNotifier) ImageDownloaded(fetch.Completion) {}
