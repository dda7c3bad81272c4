package server_test

import "github.com/pders01/cascade/internal/ingest"

func ingestText(projectID int64, text string) ingest.Event {
	return ingest.Event{
		Kind:      ingest.KindDrop,
		ProjectID: projectID,
		Data:      map[string]string{ingest.MIMEPlainText: text},
	}
}
