package handler

import (
	"context"
	"net/http"

	"github.com/AnTengye/projectbrief/middleware"
	"github.com/AnTengye/projectbrief/model"
	"github.com/AnTengye/projectbrief/service"
	"github.com/gin-gonic/gin"
)

type DraftHandler struct {
	pipeline *service.Pipeline
	drafts   *service.DraftCache
}

func NewDraftHandler(pipeline *service.Pipeline, drafts *service.DraftCache) *DraftHandler {
	return &DraftHandler{pipeline: pipeline, drafts: drafts}
}

type enrichFunc func(ctx context.Context, draft model.DraftState, in model.SubmissionInput) (model.DraftState, error)

// mergeFunc copies the one field an enrichment produced into the cached draft.
type mergeFunc func(cached, drafted model.DraftState) model.DraftState

// EnrichSummary drafts the summary of the posted form
func (h *DraftHandler) EnrichSummary(c *gin.Context) {
	h.enrich(c, h.pipeline.EnrichSummary, func(cached, drafted model.DraftState) model.DraftState {
		return cached.WithSummary(*drafted.Summary)
	}, "Summary drafted.")
}

// EnrichUseCases drafts the use cases of the posted form
func (h *DraftHandler) EnrichUseCases(c *gin.Context) {
	h.enrich(c, h.pipeline.EnrichUseCases, func(cached, drafted model.DraftState) model.DraftState {
		return cached.WithUseCases(*drafted.UseCases)
	}, "Use cases drafted.")
}

func (h *DraftHandler) enrich(c *gin.Context, fn enrichFunc, merge mergeFunc, okMessage string) {
	var in model.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, bannerBody(model.ErrorBanner("Invalid request")))
		return
	}

	sessionID := middleware.GetSessionID(c)
	current := h.drafts.Get(sessionID)

	draft, err := fn(c.Request.Context(), current, in)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"draft":  current,
			"banner": model.ErrorBanner(err.Error()),
		})
		return
	}

	// the LLM call may overlap another enrichment of this session
	stored := h.drafts.Update(sessionID, func(cached model.DraftState) model.DraftState {
		return merge(cached, draft)
	})
	c.JSON(http.StatusOK, gin.H{
		"draft":  stored,
		"banner": model.SuccessBanner(okMessage),
	})
}

// Get returns the session's cached draft
func (h *DraftHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"draft": h.drafts.Get(middleware.GetSessionID(c))})
}

// Clear drops the session's cached draft
func (h *DraftHandler) Clear(c *gin.Context) {
	h.drafts.Clear(middleware.GetSessionID(c))
	c.JSON(http.StatusOK, gin.H{"banner": model.SuccessBanner("Draft cleared.")})
}
