// Package server exposes the pipeline over HTTP as a small JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"videoreach/service"
	"videoreach/store"
	"videoreach/types"
)

// Server routes HTTP requests to the service layer.
type Server struct {
	svc        *service.Service
	uploadsDir string
	logger     *slog.Logger
	mux        *http.ServeMux
}

// New creates the Server and registers its routes.
func New(svc *service.Service, uploadsDir string, logger *slog.Logger) *Server {
	s := &Server{
		svc:        svc,
		uploadsDir: uploadsDir,
		logger:     logger,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/videos/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/videos/status/{jobID}", s.handleStatus)
	s.mux.HandleFunc("GET /api/videos", s.handleListPublished)
	s.mux.HandleFunc("GET /api/videos/{videoID}", s.handleGetVideo)
	s.mux.HandleFunc("POST /api/videos/{videoID}/publish", s.handlePublish)
	s.mux.HandleFunc("POST /api/answers", s.handleAnswer)
	s.mux.HandleFunc("POST /api/tts", s.handleTTS)
	s.mux.HandleFunc("POST /api/posts/generate", s.handleGeneratePosts)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleGenerate accepts a multipart form with either a "file" part or a
// "text" field, plus "video_preference" and "language", and starts a job.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}

	req := service.CreateJobRequest{
		Text:       r.FormValue("text"),
		Preference: r.FormValue("video_preference"),
		Language:   r.FormValue("language"),
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		savedPath, err := s.saveUpload(file, header.Filename)
		if err != nil {
			s.logger.Error("save upload", "error", err)
			s.writeError(w, http.StatusInternalServerError, "could not store the uploaded document")
			return
		}
		req.FilePath = savedPath
	}

	job, err := s.svc.CreateJob(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "success",
		"message": "Document uploaded successfully. Processing started.",
		"job_id":  job.ID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.pathUUID(w, r, "jobID")
	if !ok {
		return
	}

	status, err := s.svc.Status(r.Context(), jobID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	video, err := s.svc.Video(r.Context(), videoID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"video": video})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := s.svc.Publish(r.Context(), videoID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Video published successfully.",
	})
}

func (s *Server) handleListPublished(w http.ResponseWriter, r *http.Request) {
	videos, err := s.svc.ListPublished(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if videos == nil {
		videos = []*types.Video{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"videos": videos})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
		Speech   string `json:"speech"`
	}
	if !s.readJSON(w, r, &body) {
		return
	}

	answer, err := s.svc.Answer(r.Context(), body.Question, body.Speech)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"answer": answer})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if !s.readJSON(w, r, &body) {
		return
	}

	audio, visemes, err := s.svc.Synthesize(r.Context(), body.Text, body.Language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	visemeJSON, _ := json.Marshal(visemes)
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", "inline; filename=tts.wav")
	w.Header().Set("X-Visemes", string(visemeJSON))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleGeneratePosts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JobID uuid.UUID `json:"job_id"`
	}
	if !s.readJSON(w, r, &body) {
		return
	}

	posts, err := s.svc.GeneratePosts(r.Context(), body.JobID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// saveUpload stores an uploaded document under a timestamped unique name.
func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	unique := fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102150405"), filepath.Ext(filename))
	path := filepath.Join(s.uploadsDir, unique)

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrJobNotFound):
		s.writeError(w, http.StatusNotFound, "Job not found.")
	case errors.Is(err, store.ErrVideoNotFound):
		s.writeError(w, http.StatusNotFound, "Video not found for the job.")
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "An internal error occurred.")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]any{"status": "error", "message": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
