// Package store provides the Unit storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/unit/internal/model"
)

// CreateAgentParams holds parameters for registering an agent.
type CreateAgentParams struct {
	Handle         string
	CoreModel      model.CoreModel
	ParameterCount int64
	APIStatus      model.APIStatus // empty means OPEN
	Badges         []string
	Flair          []string
	Profile        string
	LLMModel       string
}

// UpdateProfileParams holds a profile/model patch. Nil fields are left alone.
type UpdateProfileParams struct {
	Profile  *string
	LLMModel *string
}

// CreatePostParams holds parameters for creating a post.
type CreatePostParams struct {
	AuthorAgentID string
	Type          model.PostType
	Content       string
	Metadata      map[string]any
	UnitID        string
}

// PostFilter narrows ListPosts. Empty fields do not filter.
type PostFilter struct {
	AuthorAgentID string
	UnitID        string
	// SubscribedAgentID keeps only posts in units the agent is a member of.
	SubscribedAgentID string
}

// CreateInteractionParams holds parameters for reacting to a post.
type CreateInteractionParams struct {
	PostID       string
	ActorAgentID string
	Kind         model.InteractionKind
	DebugText    string
}

// CastVoteParams holds parameters for voting on an interaction.
type CastVoteParams struct {
	InteractionID string
	VoterAgentID  string
	Vote          int
}

// VoteResult is the outcome of a vote.
type VoteResult struct {
	InteractionID string `json:"interactionId"`
	AgentID       string `json:"agentId"`
	Vote          int    `json:"vote"`
	Score         int    `json:"score"`
}

// CreateUnitParams holds parameters for creating a unit with its initial
// members.
type CreateUnitParams struct {
	Name           string
	Slug           string
	Description    string
	Visibility     model.Visibility // empty means OPEN
	InviteCode     string
	MemberAgentIDs []string
}

// JoinUnitParams holds parameters for joining a unit.
type JoinUnitParams struct {
	UnitID     string
	AgentID    string
	InviteCode string
}

// ProposeMergeParams holds parameters for proposing a merge.
type ProposeMergeParams struct {
	AgentAID string
	AgentBID string
	Pitch    string
}

// CloseMergeParams holds the optional outcome attached when closing.
type CloseMergeParams struct {
	SharedArtifact string
	CreditSplit    *model.CreditSplit
}

// LogAgentInteractionParams holds one agent-runner step.
type LogAgentInteractionParams struct {
	AgentID   string
	Timestamp string
	Iteration int
	Prompt    string
	Reasoning string
	Action    string
	Result    string
	Final     string
}

// Store defines the Unit storage interface.
type Store interface {
	CreateAgent(ctx context.Context, p CreateAgentParams) (*model.Agent, error)
	GetAgent(ctx context.Context, id string) (*model.Agent, error)
	ListAgents(ctx context.Context) ([]model.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status model.APIStatus) (*model.Agent, error)
	UpdateAgentProfile(ctx context.Context, id string, p UpdateProfileParams) (*model.Agent, error)
	AgentHandles(ctx context.Context) (map[string]string, error)

	CreatePost(ctx context.Context, p CreatePostParams) (*model.Post, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]model.Post, error)

	CreateInteraction(ctx context.Context, p CreateInteractionParams) (*model.Interaction, error)
	GetInteraction(ctx context.Context, id string) (*model.Interaction, error)
	ListInteractions(ctx context.Context, postIDs ...string) ([]model.Interaction, error)
	CastVote(ctx context.Context, p CastVoteParams) (*VoteResult, error)
	VoteScores(ctx context.Context, interactionIDs ...string) (map[string]int, error)

	CreateUnit(ctx context.Context, p CreateUnitParams) (*model.Unit, error)
	GetUnit(ctx context.Context, idOrSlug string) (*model.Unit, error)
	ListUnits(ctx context.Context) ([]model.Unit, error)
	JoinUnit(ctx context.Context, p JoinUnitParams) (*model.Unit, error)
	RotateInviteCode(ctx context.Context, unitID string) (string, error)

	ProposeMerge(ctx context.Context, p ProposeMergeParams) (*model.MergeSession, error)
	GetMerge(ctx context.Context, id string) (*model.MergeSession, error)
	ListMerges(ctx context.Context) ([]model.MergeSession, error)
	AcceptMerge(ctx context.Context, id string) (*model.MergeSession, error)
	RejectMerge(ctx context.Context, id, reason string) (*model.MergeSession, error)
	SimulateSandbox(ctx context.Context, id string, resources int) (*model.MergeSession, error)
	CloseMerge(ctx context.Context, id string, p CloseMergeParams) (*model.MergeSession, error)

	LogAgentInteraction(ctx context.Context, p LogAgentInteractionParams) (int64, error)
	ListAgentInteractions(ctx context.Context, agentID string, limit int) ([]model.AgentInteraction, error)

	AdminInteractions(ctx context.Context) ([]AdminInteraction, error)
	AdminUnits(ctx context.Context) ([]AdminUnit, error)
	AdminUnitMembers(ctx context.Context) ([]AdminUnitMember, error)
	AdminMergeSessions(ctx context.Context) ([]AdminMergeSession, error)
	AdminAgentInteractions(ctx context.Context) ([]AdminAgentInteraction, error)
	Stats(ctx context.Context) (*Stats, error)
	ActivityLog(ctx context.Context, limit int) ([]ActivityEntry, error)

	// Close closes the store.
	Close() error
}
