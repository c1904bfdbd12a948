package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/baharkarakas/resumeforge/internal/api/httpx"
	"github.com/baharkarakas/resumeforge/internal/resume"
)

const maxResumeUpload = 5 << 20

type ResumeHandler struct{}

func NewResumeHandler() *ResumeHandler { return &ResumeHandler{} }

// Extract returns the plain text of an uploaded resume. It is free and
// never touches the ledger.
func (h *ResumeHandler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeUpload+(64<<10))
	if err := r.ParseMultipartForm(maxResumeUpload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "expected multipart form with a file under 5MB", nil)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "file is required", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "could not read file", nil)
		return
	}

	text, err := resume.Extract(hdr.Filename, data)
	switch {
	case errors.Is(err, resume.ErrUnsupported):
		httpx.WriteError(w, http.StatusUnsupportedMediaType, "unsupported_file", err.Error(), nil)
		return
	case err != nil:
		httpx.WriteError(w, http.StatusUnprocessableEntity, "unreadable_file", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}
