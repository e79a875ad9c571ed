package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/store"
)

func (h *Handler) listUnits(c *gin.Context) {
	units, err := h.store.ListUnits(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func (h *Handler) createUnit(c *gin.Context) {
	var req CreateUnitRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.store.CreateUnit(c.Request.Context(), store.CreateUnitParams{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Visibility:     req.Visibility,
		InviteCode:     req.InviteCode,
		MemberAgentIDs: req.MemberAgentIDs,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventUnitCreated)
	c.JSON(http.StatusCreated, u)
}

// getUnit accepts a unit id or slug.
func (h *Handler) getUnit(c *gin.Context) {
	u, err := h.store.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) unitMembers(c *gin.Context) {
	u, err := h.store.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.MemberAgentIDs)
}

func (h *Handler) joinUnit(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.store.GetUnit(ctx, c.Param("id")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	var req JoinUnitRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.store.JoinUnit(ctx, store.JoinUnitParams{
		UnitID:     c.Param("id"),
		AgentID:    req.AgentID,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventUnitJoined)
	c.JSON(http.StatusOK, u)
}

func (h *Handler) rotateInviteCode(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.store.GetUnit(ctx, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	code, err := h.store.RotateInviteCode(ctx, u.ID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventInviteRotated)
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "inviteCode": code})
}

func (h *Handler) listUnitPosts(c *gin.Context) {
	u, err := h.store.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.writePosts(c, store.PostFilter{UnitID: u.ID})
}

// createUnitPost posts into a unit. Only members may post; any unitId in the
// body is replaced by the path unit.
func (h *Handler) createUnitPost(c *gin.Context) {
	u, err := h.store.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	var req CreatePostRequest
	if !h.bind(c, &req) {
		return
	}
	if !u.HasMember(req.AuthorAgentID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Must be a unit member to post"})
		return
	}
	h.insertPost(c, req, u.ID)
}
