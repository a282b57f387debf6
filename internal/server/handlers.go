package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jonathan/resume-versions/internal/types"
)

var errGenerationDisabled = errors.New("generation is not configured")

// handleListCompanies returns every company meta, most recently updated first
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	metas, err := s.manager.ListMetas(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"companies": metas,
		"total":     len(metas),
	})
}

// handleCreateCompany seeds a company from a supplied snapshot without calling the collaborator
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	version, err := s.manager.CreateCompany(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"companyId": version.CompanyID,
		"version":   version,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	h, err := s.manager.GetHistory(r.Context(), companyID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if h == nil {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "company", ID: companyID})
		return
	}
	s.jsonResponse(w, http.StatusOK, h)
}

func (s *Server) handleUpdateMeta(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	var update types.MetaUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	h, err := s.manager.UpdateMeta(r.Context(), companyID, update)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if h == nil {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "company", ID: companyID})
		return
	}
	s.jsonResponse(w, http.StatusOK, h)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	deleted, err := s.manager.DeleteCompany(r.Context(), companyID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if !deleted {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "company", ID: companyID})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// handleAddVersion appends a user-edited snapshot without calling the collaborator
func (s *Server) handleAddVersion(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	var req types.AddVersionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	version, err := s.manager.AddVersion(r.Context(), companyID, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if version == nil {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "company", ID: companyID})
		return
	}
	s.jsonResponse(w, http.StatusCreated, version)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	versionID := r.PathValue("versionId")
	version, err := s.manager.GetVersion(r.Context(), companyID, versionID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if version == nil {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "version", ID: versionID})
		return
	}
	s.jsonResponse(w, http.StatusOK, version)
}

func (s *Server) handleCurrentVersion(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	version, err := s.manager.CurrentVersion(r.Context(), companyID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if version == nil {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "company", ID: companyID})
		return
	}
	s.jsonResponse(w, http.StatusOK, version)
}

type switchRequest struct {
	VersionID string `json:"versionId"`
}

func (s *Server) handleSwitchVersion(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("companyId")
	var req switchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if strings.TrimSpace(req.VersionID) == "" {
		s.errorResponse(w, r, &types.ValidationError{Field: "versionId", Message: "is required"})
		return
	}

	ok, err := s.manager.SwitchVersion(r.Context(), companyID, req.VersionID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if !ok {
		s.errorResponse(w, r, &types.NotFoundError{Resource: "version", ID: req.VersionID})
		return
	}
	h, err := s.manager.GetHistory(r.Context(), companyID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "history": h})
}

// handleGenerate tailors the supplied resume for a new company and stores it as version 1
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, errorBody{Error: errGenerationDisabled.Error()})
		return
	}
	var req types.TailorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	result, err := s.generator.TailorNew(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleModify revises a stored version and appends the result
func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, errorBody{Error: errGenerationDisabled.Error()})
		return
	}
	var req types.ModifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	req.CompanyID = r.PathValue("companyId")
	result, err := s.generator.Modify(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}
