package handler

import (
	"net/http"

	"github.com/AnTengye/projectbrief/model"
	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/AnTengye/projectbrief/service"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	gate     *service.AdminGate
	queryKey string
}

func NewAdminHandler(gate *service.AdminGate, queryKey string) *AdminHandler {
	return &AdminHandler{gate: gate, queryKey: queryKey}
}

// List returns every submission, newest first. Without the admin token the
// route does not exist as far as the caller can tell.
func (h *AdminHandler) List(c *gin.Context) {
	rows, ok, err := h.gate.List(c.Request.Context(), c.Query(h.queryKey))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list submissions", "error", err)
		c.JSON(http.StatusInternalServerError, bannerBody(model.ErrorBanner(err.Error())))
		return
	}

	if rows == nil {
		rows = []model.PersistedRow{}
	}
	c.JSON(http.StatusOK, gin.H{
		"submissions": rows,
		"count":       len(rows),
	})
}
