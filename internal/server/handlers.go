package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studyrot/studyrot/internal/db"
	"github.com/studyrot/studyrot/internal/models"
	"github.com/studyrot/studyrot/internal/threads"
)

// knowledgeBaseResponse is the JSON shape of a knowledge base.
type knowledgeBaseResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Created     time.Time            `json:"created"`
	Files       []fileStatusResponse `json:"files,omitempty"`
}

// fileStatusResponse is the cheap polling projection: no text payload.
type fileStatusResponse struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Status models.FileStatus `json:"status"`
}

type extractedTextResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func kbResponse(kb *models.KnowledgeBase) knowledgeBaseResponse {
	return knowledgeBaseResponse{
		ID:          models.MustRecordIDString(kb.ID),
		Title:       kb.Title,
		Description: kb.Description,
		Created:     kb.Created,
	}
}

func fileResponse(f *models.KnowledgeFile) fileStatusResponse {
	return fileStatusResponse{
		ID:     models.MustRecordIDString(f.ID),
		Name:   f.Name,
		Status: f.Status,
	}
}

func (s *Server) handleCreateKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	var input models.KnowledgeBaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(input.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	kb, err := s.store.QueryCreateKnowledgeBase(r.Context(), input)
	if err != nil {
		s.logger.Error("create knowledge base", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create knowledge base")
		return
	}

	writeJSON(w, http.StatusCreated, kbResponse(kb))
}

func (s *Server) handleListKnowledgeBases(w http.ResponseWriter, r *http.Request) {
	bases, err := s.store.QueryListKnowledgeBases(r.Context())
	if err != nil {
		s.logger.Error("list knowledge bases", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list knowledge bases")
		return
	}

	out := make([]knowledgeBaseResponse, 0, len(bases))
	for i := range bases {
		out = append(out, kbResponse(&bases[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	kb, err := s.store.QueryGetKnowledgeBase(r.Context(), id)
	if err != nil {
		s.logger.Error("get knowledge base", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load knowledge base")
		return
	}
	if kb == nil {
		writeError(w, http.StatusNotFound, "knowledge base not found")
		return
	}

	files, err := s.store.QueryListFiles(r.Context(), id)
	if err != nil {
		s.logger.Error("list files", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load files")
		return
	}

	resp := kbResponse(kb)
	resp.Files = make([]fileStatusResponse, 0, len(files))
	for i := range files {
		resp.Files = append(resp.Files, fileResponse(&files[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input models.KnowledgeBaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	kb, err := s.store.QueryUpdateKnowledgeBase(r.Context(), id, input)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "knowledge base not found")
		return
	}
	if err != nil {
		s.logger.Error("update knowledge base", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update knowledge base")
		return
	}

	writeJSON(w, http.StatusOK, kbResponse(kb))
}

func (s *Server) handleDeleteKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.store.QueryDeleteKnowledgeBase(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "knowledge base not found")
		return
	}
	if err != nil {
		s.logger.Error("delete knowledge base", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete knowledge base")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUpload accepts one multipart file, stages it to disk, creates the
// ingestion record in "pending" state and triggers extraction. It answers
// 202 without waiting for extraction to finish; clients poll the returned
// id for progress.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kbID := chi.URLParam(r, "id")

	kb, err := s.store.QueryGetKnowledgeBase(r.Context(), kbID)
	if err != nil {
		s.logger.Error("get knowledge base", "id", kbID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load knowledge base")
		return
	}
	if kb == nil {
		writeError(w, http.StatusNotFound, "knowledge base not found")
		return
	}

	// Reserve headroom for the multipart framing around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds maximum upload size")
			return
		}
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Size > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds maximum upload size")
		return
	}

	path, err := stageFile(s.uploadDir, file, header.Filename)
	if err != nil {
		s.logger.Error("stage upload", "name", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	record, err := s.store.QueryCreateFile(r.Context(), kbID, header.Filename)
	if err != nil {
		s.logger.Error("create file record", "name", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create file record")
		return
	}

	fileID := models.MustRecordIDString(record.ID)
	s.ingest.Trigger(fileID, path, header.Filename)

	writeJSON(w, http.StatusAccepted, fileResponse(record))
}

func (s *Server) handleGetFileStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, err := s.store.QueryGetFile(r.Context(), id)
	if err != nil {
		s.logger.Error("get file", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load file")
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	writeJSON(w, http.StatusOK, fileResponse(file))
}

func (s *Server) handleGetExtractedTexts(w http.ResponseWriter, r *http.Request) {
	kbID := chi.URLParam(r, "id")

	kb, err := s.store.QueryGetKnowledgeBase(r.Context(), kbID)
	if err != nil {
		s.logger.Error("get knowledge base", "id", kbID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load knowledge base")
		return
	}
	if kb == nil {
		writeError(w, http.StatusNotFound, "knowledge base not found")
		return
	}

	files, err := s.store.QueryListCompletedFiles(r.Context(), kbID)
	if err != nil {
		s.logger.Error("list completed files", "id", kbID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load extracted texts")
		return
	}

	out := make([]extractedTextResponse, 0, len(files))
	for _, f := range files {
		out = append(out, extractedTextResponse{
			ID:   models.MustRecordIDString(f.ID),
			Name: f.Name,
			Text: f.Text,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerateThread(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "thread generation is not configured")
		return
	}

	kbID := chi.URLParam(r, "id")

	kb, err := s.store.QueryGetKnowledgeBase(r.Context(), kbID)
	if err != nil {
		s.logger.Error("get knowledge base", "id", kbID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load knowledge base")
		return
	}
	if kb == nil {
		writeError(w, http.StatusNotFound, "knowledge base not found")
		return
	}

	posts, err := s.generator.Generate(r.Context(), kbID)
	if errors.Is(err, threads.ErrNoContent) {
		writeError(w, http.StatusConflict, "no completed extractions to generate a thread from")
		return
	}
	if err != nil {
		s.logger.Error("generate thread", "id", kbID, "error", err)
		writeError(w, http.StatusBadGateway, "thread generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": posts})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics are not enabled")
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}
