package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/askbase/internal/api"
	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/cloo-solutions/askbase/internal/service"
)

type ReviewService interface {
	ListPending(ctx context.Context) ([]*domain.UnansweredQuestion, error)
	ResolveAnswer(ctx context.Context, input service.ResolveAnswerInput) (*domain.KnowledgeBaseEntry, error)
}

type ReviewHandler struct {
	svc ReviewService
}

func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type QuestionResponse struct {
	ID               string `json:"id"`
	Question         string `json:"question"`
	SessionID        string `json:"sessionId"`
	MediaPath        string `json:"mediaPath,omitempty"`
	MediaKind        string `json:"mediaKind,omitempty"`
	CreatedAt        string `json:"createdAt"`
	KnowledgeBaseRef string `json:"knowledgeBaseRef,omitempty"`
}

func questionToResponse(q *domain.UnansweredQuestion) *QuestionResponse {
	resp := &QuestionResponse{
		ID:               q.ID,
		Question:         q.QuestionText,
		SessionID:        q.SessionID,
		CreatedAt:        q.CreatedAt.Format("2006-01-02T15:04:05Z"),
		KnowledgeBaseRef: q.KnowledgeBaseRef,
	}
	if q.Media != nil {
		resp.MediaPath = q.Media.Path
		resp.MediaKind = string(q.Media.Kind)
	}
	return resp
}

type QuestionListResponse struct {
	Msg  string              `json:"msg"`
	Data []*QuestionResponse `json:"data"`
}

type UpdateEntryRequest struct {
	KnowledgeBaseRef string `json:"knowledgeBaseRef"`
	Response         string `json:"response"`
}

type UpdateEntryResponse struct {
	Success      bool           `json:"success"`
	Msg          string         `json:"msg"`
	UpdatedEntry *EntryResponse `json:"updatedEntry"`
}

type UpdateEntryErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// List returns every pending unanswered question.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.svc.ListPending(r.Context())
	if err != nil {
		handleResolveError(w, err)
		return
	}

	responses := make([]*QuestionResponse, len(questions))
	for i, q := range questions {
		responses[i] = questionToResponse(q)
	}

	api.JSON(w, http.StatusOK, QuestionListResponse{Msg: "Question list", Data: responses})
}

// Update writes a curator-supplied answer into the referenced entry and
// purges the questions that pointed at it.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.JSON(w, http.StatusBadRequest, UpdateEntryErrorResponse{Message: "invalid request body"})
		return
	}

	entry, err := h.svc.ResolveAnswer(r.Context(), service.ResolveAnswerInput{
		KnowledgeBaseRef: req.KnowledgeBaseRef,
		Response:         req.Response,
	})
	if err != nil {
		status := api.DomainErrorToHTTP(err)
		message := domainMessage(err)
		if status >= http.StatusInternalServerError {
			message = "Internal server error"
		}
		api.JSON(w, status, UpdateEntryErrorResponse{Message: message})
		return
	}

	api.JSON(w, http.StatusOK, UpdateEntryResponse{
		Success:      true,
		Msg:          "Updated successfully.",
		UpdatedEntry: entryToResponse(entry),
	})
}
