package server

import (
	"net/http"
	"strconv"

	"github.com/pders01/cascade/internal/models"
)

type updateNodeRequest struct {
	Text *string `json:"text" validate:"required"`
}

type searchQuery struct {
	Query     string `validate:"required,max=500"`
	ProjectID int64  `validate:"gte=0"`
	Limit     int    `validate:"gte=0,lte=200"`
}

type updateNodeResponse struct {
	Node    *models.Node `json:"node"`
	Changed bool         `json:"changed"`
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "nodeID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	n, err := s.store.GetNode(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, n)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "nodeID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	var req updateNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	n, changed, err := s.store.UpdateTextNode(r.Context(), id, *req.Text)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updateNodeResponse{Node: n, Changed: changed})
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "nodeID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	n, err := s.store.DeleteNode(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, n)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Undo(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.hub.NodeCreated(*n)
	s.respondJSON(w, http.StatusOK, n)
}

// pendingUndo reports the node the next undo would restore
func (s *Server) pendingUndo(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.PendingUndo(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	n.FileData = nil
	s.respondJSON(w, http.StatusOK, n)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := searchQuery{Query: q.Get("q"), Limit: 50}
	if raw := q.Get("projectId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid projectId")
			return
		}
		params.ProjectID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		params.Limit = limit
	}
	if err := validateStruct(&params); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := s.store.SearchText(r.Context(), params.ProjectID, params.Query, params.Limit)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	s.respondJSON(w, http.StatusOK, nodes)
}
