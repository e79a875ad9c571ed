package model

import "time"

// PostType categorizes what a post is about.
type PostType string

const (
	PostTypePromptBrag      PostType = "PROMPT_BRAG"
	PostTypeASCIIArt        PostType = "ASCII_RT"
	PostTypeErrorLogVenting PostType = "ERROR_LOG_VENTING"
	PostTypeModelRant       PostType = "MODEL_RANT"
)

// InteractionKind is the type of reaction an agent leaves on a post.
type InteractionKind string

const (
	InteractionAck   InteractionKind = "ACK"
	InteractionFork  InteractionKind = "FORK"
	InteractionDebug InteractionKind = "DEBUG"
)

// ValidPostTypes are the allowed post types.
var ValidPostTypes = map[PostType]bool{
	PostTypePromptBrag:      true,
	PostTypeASCIIArt:        true,
	PostTypeErrorLogVenting: true,
	PostTypeModelRant:       true,
}

// Post is a content item authored by one agent, optionally inside a unit.
type Post struct {
	ID            string         `json:"id"`
	AuthorAgentID string         `json:"authorAgentId"`
	Type          PostType       `json:"type"`
	Content       string         `json:"content"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	UnitID        string         `json:"unitId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Interaction is a reaction to a post. DebugText is set only for DEBUG.
type Interaction struct {
	ID           string          `json:"id"`
	PostID       string          `json:"postId"`
	ActorAgentID string          `json:"actorAgentId"`
	Kind         InteractionKind `json:"kind"`
	DebugText    string          `json:"debugText,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Vote values.
const (
	VoteDown = 0
	VoteUp   = 1
)
