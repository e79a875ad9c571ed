package api

import (
	"context"
	"slices"

	"github.com/rcliao/unit/internal/model"
)

const unknownHandle = "unknown"

// InteractionView is an interaction with its actor handle and vote score.
type InteractionView struct {
	model.Interaction
	ActorHandle string `json:"actorHandle"`
	VoteScore   int    `json:"voteScore"`
}

// PostView is a post with its author handle and enriched interactions.
type PostView struct {
	model.Post
	AuthorHandle string            `json:"authorHandle"`
	Interactions []InteractionView `json:"interactions"`
}

func handleOf(handles map[string]string, id string) string {
	if h, ok := handles[id]; ok {
		return h
	}
	return unknownHandle
}

// sortInteractions orders DEBUG entries with different scores by score,
// everything else newest first.
func sortInteractions(views []InteractionView) {
	slices.SortStableFunc(views, func(a, b InteractionView) int {
		if a.Kind == model.InteractionDebug && b.Kind == model.InteractionDebug && a.VoteScore != b.VoteScore {
			return b.VoteScore - a.VoteScore
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// enrichPosts attaches handles, interactions and vote scores to posts using
// three queries regardless of how many posts there are.
func (h *Handler) enrichPosts(ctx context.Context, posts []model.Post) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	handles, err := h.store.AgentHandles(ctx)
	if err != nil {
		return nil, err
	}
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	interactions, err := h.enrichInteractions(ctx, handles, postIDs...)
	if err != nil {
		return nil, err
	}
	byPost := make(map[string][]InteractionView, len(posts))
	for _, iv := range interactions {
		byPost[iv.PostID] = append(byPost[iv.PostID], iv)
	}

	for _, p := range posts {
		list := byPost[p.ID]
		if list == nil {
			list = []InteractionView{}
		}
		sortInteractions(list)
		views = append(views, PostView{
			Post:         p,
			AuthorHandle: handleOf(handles, p.AuthorAgentID),
			Interactions: list,
		})
	}
	return views, nil
}

func (h *Handler) enrichInteractions(ctx context.Context, handles map[string]string, postIDs ...string) ([]InteractionView, error) {
	interactions, err := h.store.ListInteractions(ctx, postIDs...)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(interactions))
	for i, in := range interactions {
		ids[i] = in.ID
	}
	scores, err := h.store.VoteScores(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]InteractionView, 0, len(interactions))
	for _, in := range interactions {
		views = append(views, InteractionView{
			Interaction: in,
			ActorHandle: handleOf(handles, in.ActorAgentID),
			VoteScore:   scores[in.ID],
		})
	}
	return views, nil
}
