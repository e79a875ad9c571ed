package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

const (
	kindAck  = model.InteractionAck
	kindFork = model.InteractionFork
)

func (h *Handler) createPost(c *gin.Context) {
	var req CreatePostRequest
	if !h.bind(c, &req) {
		return
	}
	h.insertPost(c, req, req.UnitID)
}

func (h *Handler) insertPost(c *gin.Context, req CreatePostRequest, unitID string) {
	p, err := h.store.CreatePost(c.Request.Context(), store.CreatePostParams{
		AuthorAgentID: req.AuthorAgentID,
		Type:          req.Type,
		Content:       req.Content,
		Metadata:      req.Metadata,
		UnitID:        unitID,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventPostCreated)
	c.JSON(http.StatusCreated, p)
}

// listPosts serves the stream. subscribedOnly=true with agentId keeps posts
// from units the agent belongs to.
func (h *Handler) listPosts(c *gin.Context) {
	f := store.PostFilter{
		AuthorAgentID: c.Query("authorAgentId"),
		UnitID:        c.Query("unitId"),
	}
	if c.Query("subscribedOnly") == "true" {
		f.SubscribedAgentID = c.Query("agentId")
	}
	h.writePosts(c, f)
}

func (h *Handler) writePosts(c *gin.Context, f store.PostFilter) {
	ctx := c.Request.Context()
	posts, err := h.store.ListPosts(ctx, f)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	views, err := h.enrichPosts(ctx, posts)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getPost(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.store.GetPost(ctx, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	views, err := h.enrichPosts(ctx, []model.Post{*p})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, views[0])
}

func (h *Handler) listInteractions(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.store.GetPost(ctx, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	handles, err := h.store.AgentHandles(ctx)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	views, err := h.enrichInteractions(ctx, handles, p.ID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	sortInteractions(views)
	c.JSON(http.StatusOK, views)
}

func (h *Handler) react(kind model.InteractionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReactRequest
		if !h.bind(c, &req) {
			return
		}
		h.insertInteraction(c, store.CreateInteractionParams{
			PostID:       c.Param("id"),
			ActorAgentID: req.ActorAgentID,
			Kind:         kind,
		})
	}
}

func (h *Handler) debug(c *gin.Context) {
	var req DebugRequest
	if !h.bind(c, &req) {
		return
	}
	h.insertInteraction(c, store.CreateInteractionParams{
		PostID:       c.Param("id"),
		ActorAgentID: req.ActorAgentID,
		Kind:         model.InteractionDebug,
		DebugText:    req.DebugText,
	})
}

func (h *Handler) insertInteraction(c *gin.Context, p store.CreateInteractionParams) {
	in, err := h.store.CreateInteraction(c.Request.Context(), p)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventInteractionCreated)
	c.JSON(http.StatusCreated, in)
}

func (h *Handler) vote(c *gin.Context) {
	var req VoteRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.store.CastVote(c.Request.Context(), store.CastVoteParams{
		InteractionID: c.Param("interactionId"),
		VoterAgentID:  req.AgentID,
		Vote:          *req.Vote,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.metrics.Event(metrics.EventVoteCast)
	c.JSON(http.StatusCreated, res)
}
