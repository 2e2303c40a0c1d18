package handlers

import (
	"github.com/gin-gonic/gin"

	"pricedesk/internal/domain/history"
	"pricedesk/internal/infrastructure/http/v1/dto"
)

const defaultHistoryLimit = 50

// HistoryHandler serves the caller's operation history.
type HistoryHandler struct {
	*BaseHandler
	history *history.Service
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(historyService *history.Service) *HistoryHandler {
	return &HistoryHandler{
		BaseHandler: NewBaseHandler(),
		history:     historyService,
	}
}

// List returns the caller's most recent history entries.
// GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	var query dto.HistoryListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultHistoryLimit
	}

	entries, err := h.history.List(c.Request.Context(), h.GetAccount(c), query.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"entries": entries})
}
