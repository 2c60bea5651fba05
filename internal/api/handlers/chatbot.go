package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cloo-solutions/askbase/internal/api"
	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/cloo-solutions/askbase/internal/service"
	"github.com/go-chi/chi/v5"
)

type ResolutionService interface {
	Resolve(ctx context.Context, input service.ResolveInput) (*service.Resolution, error)
	ResolveUpload(ctx context.Context, input service.ResolveUploadInput) (*service.Resolution, error)
}

type HistoryService interface {
	BySession(ctx context.Context, sessionID string) ([]*domain.KnowledgeBaseEntry, error)
}

// UploadSaver persists incoming multipart files before resolution runs.
type UploadSaver interface {
	Save(originalName string, r io.Reader) (string, error)
}

type ChatbotHandler struct {
	resolution ResolutionService
	history    HistoryService
	uploads    UploadSaver
}

func NewChatbotHandler(resolution ResolutionService, history HistoryService, uploads UploadSaver) *ChatbotHandler {
	return &ChatbotHandler{resolution: resolution, history: history, uploads: uploads}
}

type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

type QueryResponse struct {
	Response string `json:"response"`
}

type EntryResponse struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Response  string `json:"response"`
	MediaPath string `json:"mediaPath,omitempty"`
	MediaKind string `json:"mediaKind,omitempty"`
	SessionID string `json:"sessionId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func entryToResponse(e *domain.KnowledgeBaseEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:        e.ID,
		Question:  e.NormalizedQuery,
		Response:  e.Response,
		SessionID: e.SessionID,
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: e.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if e.Media != nil {
		resp.MediaPath = e.Media.Path
		resp.MediaKind = string(e.Media.Kind)
	}
	return resp
}

// Query resolves a plain text query.
func (h *ChatbotHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.resolution.Resolve(r.Context(), service.ResolveInput{
		QueryText: req.Query,
		SessionID: req.SessionID,
	})
	if err != nil {
		handleResolveError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, QueryResponse{Response: res.Annotated()})
}

// Upload resolves a multipart query with an optional media file. The file is
// written to the upload store under its original name before resolution.
func (h *ChatbotHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	input := service.ResolveUploadInput{
		QueryText: r.FormValue("query"),
		SessionID: r.FormValue("sessionId"),
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()

		path, saveErr := h.uploads.Save(header.Filename, file)
		if saveErr != nil {
			api.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		input.Media = &service.StoredMedia{
			Path:         path,
			OriginalName: header.Filename,
			MIMEType:     header.Header.Get("Content-Type"),
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		api.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	res, err := h.resolution.ResolveUpload(r.Context(), input)
	if err != nil {
		handleResolveError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, QueryResponse{Response: res.Annotated()})
}

// History lists every knowledge base entry recorded for a session.
func (h *ChatbotHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	entries, err := h.history.BySession(r.Context(), sessionID)
	if err != nil {
		handleResolveError(w, err)
		return
	}

	responses := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = entryToResponse(e)
	}

	api.JSON(w, http.StatusOK, responses)
}

// handleResolveError writes the chatbot error contract: validation failures
// carry their message, everything else collapses to a generic 500.
func handleResolveError(w http.ResponseWriter, err error) {
	status := api.DomainErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		api.Error(w, status, "Internal server error")
		return
	}
	api.Error(w, status, domainMessage(err))
}

func domainMessage(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
