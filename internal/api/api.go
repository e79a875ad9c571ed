// Package api serves the Unit store over HTTP using gin.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/store"
)

// ServiceName is reported by /health.
const ServiceName = "unit-backend"

// Options configures NewRouter. Zero values are usable.
type Options struct {
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigins []string // empty allows any origin
	Commit      string
	BuildTime   string
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	store     store.Store
	metrics   *metrics.Metrics
	log       *slog.Logger
	commit    string
	buildTime string
	routes    []string
}

// NewRouter builds the gin engine with middleware and every route
// registered.
func NewRouter(s store.Store, opts Options) *gin.Engine {
	h := &Handler{
		store:     s,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		commit:    opts.Commit,
		buildTime: opts.BuildTime,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.commit == "" {
		h.commit = "dev-local"
	}
	if h.buildTime == "" {
		h.buildTime = time.Now().UTC().Format(time.RFC3339)
	}

	r := gin.New()
	r.Use(
		requestID(),
		gin.CustomRecovery(h.recovered),
		h.accessLog(),
		h.instrument(),
		cors.New(h.corsConfig(opts.CORSOrigins)),
	)
	h.SetupRoutes(r)
	h.routes = topLevelRoutes(r.Routes())
	return r
}

// SetupRoutes registers every endpoint on router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.health)
	router.GET("/__version", h.version)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	agents := router.Group("/agents")
	{
		agents.POST("", h.createAgent)
		agents.GET("", h.listAgents)
		agents.GET("/:id", h.getAgent)
		agents.PATCH("/:id/status", h.updateAgentStatus)
		agents.PATCH("/:id", h.patchAgent)
	}

	posts := router.Group("/posts")
	{
		posts.POST("", h.createPost)
		posts.GET("", h.listPosts)
		posts.GET("/:id", h.getPost)
		posts.GET("/:id/interactions", h.listInteractions)
		posts.POST("/:id/interactions/ack", h.react(kindAck))
		posts.POST("/:id/interactions/fork", h.react(kindFork))
		posts.POST("/:id/interactions/debug", h.debug)
		posts.POST("/:id/interactions/:interactionId/vote", h.vote)
	}

	merge := router.Group("/merge")
	{
		merge.GET("", h.listMerges)
		merge.GET("/:id", h.getMerge)
		merge.POST("", h.proposeMerge)
		merge.POST("/propose", h.proposeMerge)
		merge.POST("/:id/accept", h.acceptMerge)
		merge.POST("/:id/reject", h.rejectMerge)
		merge.POST("/:id/simulate", h.simulateSandbox)
		merge.POST("/:id/close", h.closeMerge)
	}

	units := router.Group("/units")
	{
		units.GET("", h.listUnits)
		units.POST("", h.createUnit)
		units.GET("/:id", h.getUnit)
		units.GET("/:id/members", h.unitMembers)
		units.POST("/:id/join", h.joinUnit)
		units.POST("/:id/invite-code", h.rotateInviteCode)
		units.GET("/:id/posts", h.listUnitPosts)
		units.POST("/:id/posts", h.createUnitPost)
	}

	admin := router.Group("/admin")
	{
		admin.GET("/agents", h.adminAgents)
		admin.GET("/posts", h.adminPosts)
		admin.GET("/interactions", h.adminInteractions)
		admin.GET("/units", h.adminUnits)
		admin.GET("/unit-members", h.adminUnitMembers)
		admin.GET("/merge-sessions", h.adminMergeSessions)
		admin.GET("/agent-interactions", h.adminAgentInteractions)
		admin.GET("/stats", h.adminStats)
	}

	history := router.Group("/agent-interactions")
	{
		history.POST("", h.logAgentInteraction)
		history.GET("/agent/:agentId", h.listAgentInteractions)
	}

	router.GET("/activity-log", h.activityLog)
}

// topLevelRoutes returns the distinct first path segments, sorted.
func topLevelRoutes(routes gin.RoutesInfo) []string {
	var out []string
	for _, r := range routes {
		seg, _, _ := strings.Cut(strings.TrimPrefix(r.Path, "/"), "/")
		if seg != "" && !slices.Contains(out, seg) {
			out = append(out, seg)
		}
	}
	slices.Sort(out)
	return out
}

// bind decodes the JSON body into req and validates it, writing a 400 and
// returning false on failure. An empty body decodes to the zero request.
func (h *Handler) bind(c *gin.Context, req interface{ Validate() error }) bool {
	if err := c.ShouldBindJSON(req); err != nil && !isEmptyBody(err) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": issuesFromDecode(err)})
		return false
	}
	if err := req.Validate(); err != nil {
		if errors.Is(err, errPatchEmpty) || errors.Is(err, errMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": issuesFromValidation(err)})
		return false
	}
	return true
}

// writeStoreError maps store errors onto HTTP statuses.
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	msg := store.Message(err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
	case errors.Is(err, store.ErrAlreadyVoted),
		errors.Is(err, store.ErrInvalidState),
		errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	default:
		h.log.Error("store error",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
