package server

import (
	"net/http"

	"github.com/pders01/cascade/internal/classify"
	"github.com/pders01/cascade/internal/ingest"
	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/relay"
)

type ingestRequest struct {
	Data           map[string]string `json:"data"`
	Files          []ingest.File     `json:"files" validate:"omitempty,dive"`
	TargetEditable bool              `json:"targetEditable"`
}

type classifyResponse struct {
	Payload *models.Payload   `json:"payload"`
	Data    map[string]string `json:"data"`
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	var req relay.Request
	if !s.decode(w, r, &req) {
		return
	}
	resp := s.broker.Handle(r.Context(), req)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var g classify.Gesture
	if !s.decode(w, r, &g) {
		return
	}
	dt := classify.MapTransfer{}
	p := s.classifier.Capture(r.Context(), g, dt)
	s.respondJSON(w, http.StatusOK, classifyResponse{Payload: p, Data: dt})
}

// handleIngest serves drop and paste events. Project id 0 targets the inbox.
func (s *Server) handleIngest(kind ingest.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "projectID")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid project id")
			return
		}
		var req ingestRequest
		if !s.decode(w, r, &req) {
			return
		}
		if id != 0 {
			if _, err := s.store.GetProject(r.Context(), id); err != nil {
				s.respondStoreError(w, err)
				return
			}
		}

		out, err := s.router.Ingest(r.Context(), ingest.Event{
			Kind:           kind,
			ProjectID:      id,
			Data:           req.Data,
			Files:          req.Files,
			TargetEditable: req.TargetEditable,
		})
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		if out.Nodes == nil {
			out.Nodes = []models.Node{}
		}
		s.respondJSON(w, http.StatusOK, out)
	}
}
