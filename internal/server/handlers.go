package server

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/devjibs/cvagent/internal/pipeline"
	"github.com/devjibs/cvagent/internal/types"
)

// maxResumeUpload bounds the multipart form size for /runs.
const maxResumeUpload = 10 << 20 // 10 MiB

// RunRequest represents the form fields of POST /runs.
type RunRequest struct {
	JobURL string `validate:"required,url"`
	Wait   bool
}

// CreateRunResponse is returned for asynchronous run starts.
type CreateRunResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Status    string `json:"status"`
}

// CancelResponse reports whether a cancellation request took effect.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

var validate = validator.New()

// handleCreateRun starts a pipeline run from a multipart form: a "resume"
// file and a "job_url" field. With "wait=true" the run executes synchronously
// and the full result is returned; otherwise the session token is returned
// immediately for polling.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxResumeUpload); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	req := RunRequest{
		JobURL: r.FormValue("job_url"),
		Wait:   r.FormValue("wait") == "true",
	}
	if err := validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "job_url must be a valid URL")
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read resume upload: "+err.Error())
		return
	}

	runReq := &pipeline.Request{
		ResumeFileName: header.Filename,
		ResumeMIME:     header.Header.Get("Content-Type"),
		ResumeData:     data,
		JobURL:         req.JobURL,
	}

	if req.Wait {
		result, err := s.orchestrator.Run(r.Context(), runReq)
		if err != nil {
			log.Printf("run aborted: %v", err)
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		s.jsonResponse(w, http.StatusOK, result)
		return
	}

	sess, err := s.orchestrator.StartAsync(r.Context(), runReq)
	if err != nil {
		log.Printf("failed to start run: %v", err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, CreateRunResponse{
		SessionID: sess.ID.String(),
		Token:     sess.Token,
		Status:    string(sess.Status),
	})
}

// handleStatus returns the committed status view for a session token.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	view, err := s.orchestrator.Status(r.Context(), token)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if view == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, view)
}

// handleCancel requests cancellation of an in-flight run.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	ok, err := s.orchestrator.Cancel(r.Context(), token)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, CancelResponse{Cancelled: ok})
}

// handleDocument streams a generated document for a completed session.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	kind := types.DocumentKind(r.PathValue("kind"))
	if !kind.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "Unknown document kind")
		return
	}

	sess, err := s.sessions.Find(r.Context(), token)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if sess == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	var doc *types.GeneratedDocument
	for i := range sess.Documents {
		if sess.Documents[i].Kind == kind {
			doc = &sess.Documents[i]
			break
		}
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not generated")
		return
	}

	data, err := s.blobs.Download(r.Context(), doc.BlobRef)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Error streaming document: %v", err)
	}
}
