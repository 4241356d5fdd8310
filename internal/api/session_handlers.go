package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/propdesk/listing-engine/internal/models"
	"github.com/propdesk/listing-engine/internal/preview"
	"github.com/propdesk/listing-engine/internal/session"
)

// maxUploadBytes bounds a whole multipart upload batch
const maxUploadBytes = 32 << 20

// getSession resolves the {id} route param to a live session, writing the
// error response itself on failure.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "session id is required")
		return nil
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "session not found")
		return nil
	}
	return sess
}

// respondSessionError maps session state errors to HTTP responses
func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionClosed):
		respondError(w, http.StatusGone, "session_closed", "session is closed")
	case errors.Is(err, session.ErrSessionNotEditable):
		respondError(w, http.StatusConflict, "session_not_editable", "session is not editable")
	case errors.Is(err, session.ErrPickerNotOpen):
		respondError(w, http.StatusConflict, "picker_not_open", "coordinate picker is not open")
	case errors.Is(err, session.ErrNoStagedCoordinate):
		respondError(w, http.StatusConflict, "no_staged_coordinate", "no staged coordinate to move")
	case errors.Is(err, session.ErrInvalidCoordinate):
		respondError(w, http.StatusBadRequest, "validation_error", "latitude and longitude must be set together as decimal numbers")
	case errors.Is(err, session.ErrInvalidLandmark):
		respondError(w, http.StatusBadRequest, "validation_error", "unknown landmark type")
	default:
		slog.Error("session operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "operation failed")
	}
}

// Session lifecycle

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req models.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProjectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project_id is required")
		return
	}

	sess := s.sessions.Open(req.ProjectID)
	respondJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "session id is required")
		return
	}

	if err := s.sessions.Close(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to close session", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to close session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session closed",
	})
}

// Amenity handlers

func (s *Server) handleToggleAmenity(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	amenityID := chi.URLParam(r, "amenityID")
	if amenityID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "amenity id is required")
		return
	}

	if err := sess.ToggleAmenity(amenityID); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleToggleAllAmenities(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.ToggleAllAmenities(); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// Media handlers

func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart body")
		return
	}

	files := r.MultipartForm.File["files"]
	payloads := make([]models.FilePayload, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "unreadable file part")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "unreadable file part")
			return
		}
		payloads = append(payloads, models.FilePayload{Name: header.Filename, Data: data})
	}

	result, err := sess.AddMedia(r.Context(), payloads)
	if err != nil {
		respondSessionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"media":  sess.Snapshot().Media,
	})
}

func (s *Server) handleRemoveMedia(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	assetID := chi.URLParam(r, "assetID")
	if assetID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "asset id is required")
		return
	}

	if err := sess.RemoveMedia(r.Context(), assetID); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

type mediaDescriptionRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleSetMediaDescription(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	assetID := chi.URLParam(r, "assetID")
	if assetID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "asset id is required")
		return
	}

	var req mediaDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.SetMediaDescription(assetID, req.Description); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

type mediaPrimaryRequest struct {
	Primary bool `json:"primary"`
}

func (s *Server) handleSetMediaPrimary(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	assetID := chi.URLParam(r, "assetID")
	if assetID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "asset id is required")
		return
	}

	var req mediaPrimaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.SetMediaPrimary(assetID, req.Primary); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleMediaPreview streams the preview payload behind an asset's handle.
// This is the one endpoint that bypasses the JSON envelope; it serves the
// binary directly.
func (s *Server) handleMediaPreview(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	assetID := chi.URLParam(r, "assetID")
	if assetID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "asset id is required")
		return
	}

	handle, ok := sess.MediaPreviewHandle(assetID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "no preview for asset")
		return
	}

	contentType, data, err := s.previews.Get(r.Context(), handle)
	if err != nil {
		if errors.Is(err, preview.ErrHandleNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "preview handle released")
			return
		}
		slog.Error("failed to fetch preview", "error", err, "asset_id", assetID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to fetch preview")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Debug("preview write aborted", "error", err)
	}
}

// Picker handlers

func (s *Server) handleOpenPicker(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.OpenPicker(); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handlePickerSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req models.PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.SelectOnMap(req.Latitude, req.Longitude); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handlePickerDrag(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req models.PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.DragMarker(req.Latitude, req.Longitude); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handlePickerConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.ConfirmPick(); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handlePickerCancel(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.CancelPick(); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// Location and extras

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req models.SetLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.SetLocation(req); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleUpdateExtras(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req models.UpdateExtrasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := sess.UpdateExtras(req); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// Draft, save, cancel

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	draft, err := sess.Draft()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.Save(r.Context()); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.CancelEditing(r.Context()); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}
