package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/AnTengye/projectbrief/middleware"
	"github.com/AnTengye/projectbrief/model"
	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/AnTengye/projectbrief/service"
	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	pipeline *service.Pipeline
	drafts   *service.DraftCache
}

func NewSubmissionHandler(pipeline *service.Pipeline, drafts *service.DraftCache) *SubmissionHandler {
	return &SubmissionHandler{pipeline: pipeline, drafts: drafts}
}

// SubmissionResponse is the outcome of POST /api/submissions
type SubmissionResponse struct {
	State     service.State       `json:"state"`
	Banner    model.Banner        `json:"banner"`
	Row       *model.PersistedRow `json:"row,omitempty"`
	FileName  string              `json:"file_name,omitempty"`
	PDFURL    string              `json:"pdf_url"`
	PDFBase64 string              `json:"pdf_base64,omitempty"`
}

// Submit runs the whole pipeline for the posted form
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var in model.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, bannerBody(model.ErrorBanner("Invalid request")))
		return
	}

	sessionID := middleware.GetSessionID(c)
	res, err := h.pipeline.Submit(c.Request.Context(), in, h.drafts.Get(sessionID))

	resp := SubmissionResponse{
		State:    res.State,
		Banner:   res.Banner,
		Row:      res.Row,
		FileName: res.Artifact.FileName,
		PDFURL:   res.Artifact.StorageReference,
	}
	if len(res.Artifact.Bytes) > 0 {
		resp.PDFBase64 = base64.StdEncoding.EncodeToString(res.Artifact.Bytes)
	}

	switch {
	case err == nil:
		h.drafts.Clear(sessionID)
		c.JSON(http.StatusOK, resp)
	case res.State == service.StateRejectedInput:
		c.JSON(http.StatusBadRequest, resp)
	default:
		c.JSON(http.StatusBadGateway, resp)
	}
}

// Preview renders the form as a PDF download without saving it
func (h *SubmissionHandler) Preview(c *gin.Context) {
	var in model.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, bannerBody(model.ErrorBanner("Invalid request")))
		return
	}

	art, err := h.pipeline.Preview(in, h.drafts.Get(middleware.GetSessionID(c)))
	if err != nil {
		h.renderError(c, err)
		return
	}
	sendPDF(c, art)
}

// Report asks the model for a prose report and returns it as a PDF download
func (h *SubmissionHandler) Report(c *gin.Context) {
	var in model.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, bannerBody(model.ErrorBanner("Invalid request")))
		return
	}

	art, err := h.pipeline.Report(c.Request.Context(), in, h.drafts.Get(middleware.GetSessionID(c)))
	if err != nil {
		h.renderError(c, err)
		return
	}
	sendPDF(c, art)
}

func (h *SubmissionHandler) renderError(c *gin.Context, err error) {
	var ve *model.ValidationError
	var ee *model.EnrichmentError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, bannerBody(model.ErrorBanner(ve.Error())))
	case errors.As(err, &ee):
		c.JSON(http.StatusBadGateway, bannerBody(model.ErrorBanner("Report generation failed: "+ee.Err.Error())))
	default:
		logger.Error(c.Request.Context(), "failed to render PDF", "error", err)
		c.JSON(http.StatusInternalServerError, bannerBody(model.ErrorBanner("Failed to render PDF: "+err.Error())))
	}
}

func sendPDF(c *gin.Context, art model.Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	c.Data(http.StatusOK, "application/pdf", art.Bytes)
}

func bannerBody(b model.Banner) gin.H {
	return gin.H{"banner": b}
}
