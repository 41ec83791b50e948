package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
)

type ingestFile struct {
	Path  string `json:"path"`
	Label string `json:"label,omitempty"`
}

type ingestRequest struct {
	Files []ingestFile `json:"files"`
}

type fileResult struct {
	Path   string   `json:"path"`
	Label  string   `json:"label"`
	Kind   string   `json:"kind"`
	Status string   `json:"status"`
	Units  int      `json:"units"`
	Errors []string `json:"errors,omitempty"`
}

type ingestResponse struct {
	Status string       `json:"status"`
	Chunks int          `json:"chunks,omitempty"`
	Files  []fileResult `json:"files"`
	Error  string       `json:"error,omitempty"`
}

func fileResults(results []*models.ExtractionResult) []fileResult {
	out := make([]fileResult, 0, len(results))
	for _, r := range results {
		out = append(out, fileResult{
			Path:   r.Source.Path,
			Label:  r.Source.Label,
			Kind:   string(r.Source.Kind),
			Status: r.Status(),
			Units:  len(r.Units),
			Errors: r.FailureMessages(),
		})
	}
	return out
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		s.respondError(w, http.StatusBadRequest, "files is required")
		return
	}
	files := make([]models.SourceFile, len(req.Files))
	for i, f := range req.Files {
		files[i] = models.NewSourceFile(f.Path, f.Label)
	}
	s.logger.Debug("ingest request", zap.Int("files", len(files)))

	results, err := s.Ingest(r.Context(), files)
	resp := ingestResponse{Status: "indexed", Files: fileResults(results)}
	switch {
	case errors.Is(err, indexer.ErrEmptyIndex):
		resp.Status = "empty"
		resp.Error = err.Error()
		s.respondJSON(w, http.StatusUnprocessableEntity, resp)
		return
	case err != nil:
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess, err := s.currentSession(); err == nil {
		if st, err := sess.Status(r.Context()); err == nil {
			resp.Chunks = st.Chunks
		}
	}
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := q.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ask request", zap.String("question", q.Text))

	ans, err := s.ask(r, q.Text)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSession):
		s.respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, answer.ErrNoContext):
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, models.ErrEmptyQuestion):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	default:
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if !q.IncludeSources {
		ans.Sources = nil
	}
	s.respondJSON(w, http.StatusOK, ans)
}

// ask retries once when the session was swapped out mid-request.
func (s *Server) ask(r *http.Request, question string) (*models.Answer, error) {
	for attempt := 0; ; attempt++ {
		sess, err := s.currentSession()
		if err != nil {
			return nil, err
		}
		ans, err := sess.Ask(r.Context(), question)
		if errors.Is(err, pipeline.ErrSessionClosed) && attempt == 0 {
			continue
		}
		return ans, err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"ready": false, "chunks": 0}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	sess, err := s.currentSession()
	if err != nil {
		s.respondJSON(w, http.StatusOK, resp)
		return
	}
	st, err := sess.Status(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrSessionClosed) {
			s.respondJSON(w, http.StatusOK, resp)
			return
		}
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp["ready"] = true
	resp["chunks"] = st.Chunks
	resp["built_at"] = st.BuiltAt
	resp["sources"] = st.Sources
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs))
	if err := s.watch.AddDirectory(abs); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	s.watchConfig.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.watchConfig)
	s.watchConfigMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
