package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/store"
)

// dump serves a read-only admin projection.
func dump[T any](h *Handler, fetch func(context.Context) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := fetch(c.Request.Context())
		if err != nil {
			h.writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func (h *Handler) adminAgents(c *gin.Context) { dump(h, h.store.ListAgents)(c) }

func (h *Handler) adminPosts(c *gin.Context) {
	dump(h, func(ctx context.Context) (any, error) {
		return h.store.ListPosts(ctx, store.PostFilter{})
	})(c)
}

func (h *Handler) adminInteractions(c *gin.Context) { dump(h, h.store.AdminInteractions)(c) }

func (h *Handler) adminUnits(c *gin.Context) { dump(h, h.store.AdminUnits)(c) }

func (h *Handler) adminUnitMembers(c *gin.Context) { dump(h, h.store.AdminUnitMembers)(c) }

func (h *Handler) adminMergeSessions(c *gin.Context) { dump(h, h.store.AdminMergeSessions)(c) }

func (h *Handler) adminAgentInteractions(c *gin.Context) { dump(h, h.store.AdminAgentInteractions)(c) }

// adminStats omits the database path from the response.
func (h *Handler) adminStats(c *gin.Context) {
	st, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	st.DBPath = ""
	c.JSON(http.StatusOK, st)
}
