package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/store"
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"commit":    h.commit,
		"buildTime": h.buildTime,
		"routes":    h.routes,
	})
}

func (h *Handler) activityLog(c *gin.Context) {
	logs, err := h.store.ActivityLog(c.Request.Context(), queryLimit(c, store.DefaultActivityLimit))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// queryLimit reads ?limit, falling back to def when missing or not a
// positive integer.
func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
