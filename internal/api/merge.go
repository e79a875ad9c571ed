package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

func (h *Handler) listMerges(c *gin.Context) {
	merges, err := h.store.ListMerges(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, merges)
}

func (h *Handler) getMerge(c *gin.Context) {
	m, err := h.store.GetMerge(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) proposeMerge(c *gin.Context) {
	var req ProposeMergeRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.store.ProposeMerge(c.Request.Context(), store.ProposeMergeParams{
		AgentAID: req.AgentAID,
		AgentBID: req.AgentBID,
		Pitch:    req.Pitch,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventMergeProposed)
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) acceptMerge(c *gin.Context) {
	var req AcceptMergeRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.store.AcceptMerge(c.Request.Context(), c.Param("id"))
	h.writeTransition(c, m, err)
}

func (h *Handler) rejectMerge(c *gin.Context) {
	var req RejectMergeRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.store.RejectMerge(c.Request.Context(), c.Param("id"), req.Reason)
	h.writeTransition(c, m, err)
}

func (h *Handler) simulateSandbox(c *gin.Context) {
	var req SimulateSandboxRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.store.SimulateSandbox(c.Request.Context(), c.Param("id"), req.Resources())
	h.writeTransition(c, m, err)
}

func (h *Handler) closeMerge(c *gin.Context) {
	var req CloseMergeRequest
	if !h.bind(c, &req) {
		return
	}
	m, err := h.store.CloseMerge(c.Request.Context(), c.Param("id"), store.CloseMergeParams{
		SharedArtifact: req.SharedArtifact,
		CreditSplit:    req.Split(),
	})
	h.writeTransition(c, m, err)
}

func (h *Handler) writeTransition(c *gin.Context, m *model.MergeSession, err error) {
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventMergeTransition)
	c.JSON(http.StatusOK, m)
}
