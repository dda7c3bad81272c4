package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/pders01/cascade/internal/models"
)

type createProjectRequest struct {
	Name string             `json:"name" validate:"required,min=1,max=200"`
	Type models.ProjectType `json:"projectType,omitempty" validate:"omitempty,oneof=canvas markdown"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids" validate:"required"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	s.respondJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.store.CreateProject(r.Context(), req.Name, req.Type)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) inbox(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Inbox(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "projectID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "projectID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "projectID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if _, err := s.store.GetProject(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	nodes, err := s.store.ListNodes(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	s.respondJSON(w, http.StatusOK, nodes)
}

func (s *Server) reorderNodes(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "projectID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req reorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.store.ReorderNodes(r.Context(), id, req.IDs); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "projectID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var buf bytes.Buffer
	res, err := s.exporter.WriteArchive(r.Context(), id, &buf)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
