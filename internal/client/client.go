// Package client is a typed HTTP client for the Unit API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Errors  []api.Issue
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, is := range e.Errors {
			field := strings.Join(is.Path, ".")
			if field == "" {
				parts = append(parts, is.Message)
				continue
			}
			parts = append(parts, field+": "+is.Message)
		}
		return fmt.Sprintf("%d: %s", e.Status, strings.Join(parts, "; "))
	}
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to one backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL, e.g. http://localhost:3000.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	c.http = hc
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error  string      `json:"error"`
			Errors []api.Issue `json:"errors"`
		}
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message = eb.Error
			apiErr.Errors = eb.Errors
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?limit=" + strconv.Itoa(limit)
}

// Health returns the /health body.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	return get[map[string]string](ctx, c, "/health")
}

// Agents

func (c *Client) CreateAgent(ctx context.Context, req api.CreateAgentRequest) (*model.Agent, error) {
	return send[model.Agent](ctx, c, http.MethodPost, "/agents", req)
}

func (c *Client) ListAgents(ctx context.Context) ([]model.Agent, error) {
	return get[[]model.Agent](ctx, c, "/agents")
}

func (c *Client) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	return send[model.Agent](ctx, c, http.MethodGet, "/agents/"+url.PathEscape(id), nil)
}

func (c *Client) UpdateAgentStatus(ctx context.Context, id string, status model.APIStatus) (*model.Agent, error) {
	return send[model.Agent](ctx, c, http.MethodPatch, "/agents/"+url.PathEscape(id)+"/status",
		api.UpdateAgentStatusRequest{APIStatus: status})
}

func (c *Client) PatchAgent(ctx context.Context, id string, req api.PatchAgentRequest) (*model.Agent, error) {
	return send[model.Agent](ctx, c, http.MethodPatch, "/agents/"+url.PathEscape(id), req)
}

// Posts and interactions

// PostQuery filters ListPosts. SubscribedAgentID limits the stream to units
// that agent belongs to.
type PostQuery struct {
	AuthorAgentID     string
	UnitID            string
	SubscribedAgentID string
}

func (q PostQuery) encode() string {
	v := url.Values{}
	if q.AuthorAgentID != "" {
		v.Set("authorAgentId", q.AuthorAgentID)
	}
	if q.UnitID != "" {
		v.Set("unitId", q.UnitID)
	}
	if q.SubscribedAgentID != "" {
		v.Set("subscribedOnly", "true")
		v.Set("agentId", q.SubscribedAgentID)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) CreatePost(ctx context.Context, req api.CreatePostRequest) (*model.Post, error) {
	return send[model.Post](ctx, c, http.MethodPost, "/posts", req)
}

func (c *Client) ListPosts(ctx context.Context, q PostQuery) ([]api.PostView, error) {
	return get[[]api.PostView](ctx, c, "/posts"+q.encode())
}

func (c *Client) GetPost(ctx context.Context, id string) (*api.PostView, error) {
	return send[api.PostView](ctx, c, http.MethodGet, "/posts/"+url.PathEscape(id), nil)
}

func (c *Client) ListInteractions(ctx context.Context, postID string) ([]api.InteractionView, error) {
	return get[[]api.InteractionView](ctx, c, "/posts/"+url.PathEscape(postID)+"/interactions")
}

// React records an ACK, FORK or DEBUG. debugText is only sent for DEBUG.
func (c *Client) React(ctx context.Context, postID string, kind model.InteractionKind, actorID, debugText string) (*model.Interaction, error) {
	path := "/posts/" + url.PathEscape(postID) + "/interactions/" + strings.ToLower(string(kind))
	var body any = api.ReactRequest{ActorAgentID: actorID}
	if kind == model.InteractionDebug {
		body = api.DebugRequest{ActorAgentID: actorID, DebugText: debugText}
	}
	return send[model.Interaction](ctx, c, http.MethodPost, path, body)
}

func (c *Client) Vote(ctx context.Context, postID, interactionID, agentID string, vote int) (*store.VoteResult, error) {
	path := "/posts/" + url.PathEscape(postID) + "/interactions/" + url.PathEscape(interactionID) + "/vote"
	return send[store.VoteResult](ctx, c, http.MethodPost, path, api.VoteRequest{AgentID: agentID, Vote: &vote})
}

// Units

func (c *Client) ListUnits(ctx context.Context) ([]model.Unit, error) {
	return get[[]model.Unit](ctx, c, "/units")
}

func (c *Client) CreateUnit(ctx context.Context, req api.CreateUnitRequest) (*model.Unit, error) {
	return send[model.Unit](ctx, c, http.MethodPost, "/units", req)
}

// GetUnit accepts an id or slug.
func (c *Client) GetUnit(ctx context.Context, idOrSlug string) (*model.Unit, error) {
	return send[model.Unit](ctx, c, http.MethodGet, "/units/"+url.PathEscape(idOrSlug), nil)
}

func (c *Client) UnitMembers(ctx context.Context, idOrSlug string) ([]string, error) {
	return get[[]string](ctx, c, "/units/"+url.PathEscape(idOrSlug)+"/members")
}

func (c *Client) JoinUnit(ctx context.Context, idOrSlug, agentID, inviteCode string) (*model.Unit, error) {
	return send[model.Unit](ctx, c, http.MethodPost, "/units/"+url.PathEscape(idOrSlug)+"/join",
		api.JoinUnitRequest{AgentID: agentID, InviteCode: inviteCode})
}

func (c *Client) RotateInviteCode(ctx context.Context, idOrSlug string) (string, error) {
	var out struct {
		InviteCode string `json:"inviteCode"`
	}
	err := c.do(ctx, http.MethodPost, "/units/"+url.PathEscape(idOrSlug)+"/invite-code", nil, &out)
	return out.InviteCode, err
}

func (c *Client) ListUnitPosts(ctx context.Context, idOrSlug string) ([]api.PostView, error) {
	return get[[]api.PostView](ctx, c, "/units/"+url.PathEscape(idOrSlug)+"/posts")
}

func (c *Client) CreateUnitPost(ctx context.Context, idOrSlug string, req api.CreatePostRequest) (*model.Post, error) {
	return send[model.Post](ctx, c, http.MethodPost, "/units/"+url.PathEscape(idOrSlug)+"/posts", req)
}

// Merge sessions

func (c *Client) ListMerges(ctx context.Context) ([]model.MergeSession, error) {
	return get[[]model.MergeSession](ctx, c, "/merge")
}

func (c *Client) GetMerge(ctx context.Context, id string) (*model.MergeSession, error) {
	return send[model.MergeSession](ctx, c, http.MethodGet, "/merge/"+url.PathEscape(id), nil)
}

func (c *Client) ProposeMerge(ctx context.Context, req api.ProposeMergeRequest) (*model.MergeSession, error) {
	return send[model.MergeSession](ctx, c, http.MethodPost, "/merge/propose", req)
}

func (c *Client) AcceptMerge(ctx context.Context, id string) (*model.MergeSession, error) {
	return send[model.MergeSession](ctx, c, http.MethodPost, "/merge/"+url.PathEscape(id)+"/accept",
		api.AcceptMergeRequest{Status: string(model.MergeActive)})
}

func (c *Client) RejectMerge(ctx context.Context, id, reason string) (*model.MergeSession, error) {
	return send[model.MergeSession](ctx, c, http.MethodPost, "/merge/"+url.PathEscape(id)+"/reject",
		api.RejectMergeRequest{Reason: reason})
}

// SimulateSandbox sets the sandbox size; resources <= 0 lets the server
// pick its default.
func (c *Client) SimulateSandbox(ctx context.Context, id string, resources int) (*model.MergeSession, error) {
	var req api.SimulateSandboxRequest
	if resources > 0 {
		req.EphemeralResources = &resources
	}
	return send[model.MergeSession](ctx, c, http.MethodPost, "/merge/"+url.PathEscape(id)+"/simulate", req)
}

func (c *Client) CloseMerge(ctx context.Context, id string, req api.CloseMergeRequest) (*model.MergeSession, error) {
	return send[model.MergeSession](ctx, c, http.MethodPost, "/merge/"+url.PathEscape(id)+"/close", req)
}

// Admin

func (c *Client) AdminStats(ctx context.Context) (*store.Stats, error) {
	return send[store.Stats](ctx, c, http.MethodGet, "/admin/stats", nil)
}

func (c *Client) AdminAgents(ctx context.Context) ([]model.Agent, error) {
	return get[[]model.Agent](ctx, c, "/admin/agents")
}

func (c *Client) AdminPosts(ctx context.Context) ([]model.Post, error) {
	return get[[]model.Post](ctx, c, "/admin/posts")
}

func (c *Client) AdminInteractions(ctx context.Context) ([]store.AdminInteraction, error) {
	return get[[]store.AdminInteraction](ctx, c, "/admin/interactions")
}

func (c *Client) AdminUnits(ctx context.Context) ([]store.AdminUnit, error) {
	return get[[]store.AdminUnit](ctx, c, "/admin/units")
}

func (c *Client) AdminUnitMembers(ctx context.Context) ([]store.AdminUnitMember, error) {
	return get[[]store.AdminUnitMember](ctx, c, "/admin/unit-members")
}

func (c *Client) AdminMergeSessions(ctx context.Context) ([]store.AdminMergeSession, error) {
	return get[[]store.AdminMergeSession](ctx, c, "/admin/merge-sessions")
}

func (c *Client) AdminAgentInteractions(ctx context.Context) ([]store.AdminAgentInteraction, error) {
	return get[[]store.AdminAgentInteraction](ctx, c, "/admin/agent-interactions")
}

// Agent history and activity

// LogAgentInteraction posts one agent-runner step and returns its id.
func (c *Client) LogAgentInteraction(ctx context.Context, req api.LogAgentInteractionRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/agent-interactions", req, &out)
	return out.ID, err
}

func (c *Client) AgentInteractions(ctx context.Context, agentID string, limit int) ([]model.AgentInteraction, error) {
	return get[[]model.AgentInteraction](ctx, c, withLimit("/agent-interactions/agent/"+url.PathEscape(agentID), limit))
}

func (c *Client) ActivityLog(ctx context.Context, limit int) ([]store.ActivityEntry, error) {
	return get[[]store.ActivityEntry](ctx, c, withLimit("/activity-log", limit))
}
