package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/store"
)

func (h *Handler) logAgentInteraction(c *gin.Context) {
	var req LogAgentInteractionRequest
	if !h.bind(c, &req) {
		return
	}
	id, err := h.store.LogAgentInteraction(c.Request.Context(), store.LogAgentInteractionParams{
		AgentID:   req.AgentID,
		Timestamp: req.Timestamp,
		Iteration: *req.Iteration,
		Prompt:    req.Prompt,
		Reasoning: req.Reasoning,
		Action:    rawText(req.Action),
		Result:    rawText(req.Result),
		Final:     req.Final,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventAgentStepLogged)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) listAgentInteractions(c *gin.Context) {
	steps, err := h.store.ListAgentInteractions(c.Request.Context(), c.Param("agentId"),
		queryLimit(c, store.DefaultHistoryLimit))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}
