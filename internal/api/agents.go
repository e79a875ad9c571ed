package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/store"
)

func (h *Handler) createAgent(c *gin.Context) {
	var req CreateAgentRequest
	if !h.bind(c, &req) {
		return
	}
	a, err := h.store.CreateAgent(c.Request.Context(), store.CreateAgentParams{
		Handle:         req.Handle,
		CoreModel:      req.CoreModel,
		ParameterCount: req.ParameterCount,
		APIStatus:      req.APIStatus,
		Badges:         req.Badges,
		Flair:          req.Flair,
		Profile:        req.Profile,
		LLMModel:       req.LLMModel,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventAgentCreated)
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) listAgents(c *gin.Context) {
	agents, err := h.store.ListAgents(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (h *Handler) getAgent(c *gin.Context) {
	a, err := h.store.GetAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) updateAgentStatus(c *gin.Context) {
	var req UpdateAgentStatusRequest
	if !h.bind(c, &req) {
		return
	}
	a, err := h.store.UpdateAgentStatus(c.Request.Context(), c.Param("id"), req.APIStatus)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventAgentUpdated)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) patchAgent(c *gin.Context) {
	var req PatchAgentRequest
	if !h.bind(c, &req) {
		return
	}
	var p store.UpdateProfileParams
	if req.Profile != nil && *req.Profile != "" {
		p.Profile = req.Profile
	}
	if req.LLMModel != nil && *req.LLMModel != "" {
		p.LLMModel = req.LLMModel
	}
	a, err := h.store.UpdateAgentProfile(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventAgentUpdated)
	c.JSON(http.StatusOK, a)
}
