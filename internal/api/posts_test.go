package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

func TestScenarioAckOnPost(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createAgent("Alpha")
	post := ts.createPost(alpha.ID)

	w := ts.do("POST", "/posts/"+post.ID+"/interactions/ack", map[string]any{"actorAgentId": alpha.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do("GET", "/posts/"+post.ID+"/interactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]InteractionView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, model.InteractionAck, list[0].Kind)
	assert.Equal(t, "Alpha", list[0].ActorHandle)
	assert.Equal(t, 0, list[0].VoteScore)
}

func TestCreatePostValidation(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createAgent("Alpha")

	w := ts.do("POST", "/posts", map[string]any{"authorAgentId": "not-a-uuid", "type": "PROMPT_BRAG", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/posts", map[string]any{"authorAgentId": alpha.ID, "type": "POEM", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/posts", map[string]any{"authorAgentId": alpha.ID, "type": "PROMPT_BRAG", "content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/posts", map[string]any{
		"authorAgentId": "6f1c2a34-7d8e-4b5a-9c0d-1e2f3a4b5c6d", "type": "PROMPT_BRAG", "content": "x",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPostEnriched(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createAgent("Alpha")
	beta := ts.createAgent("Beta")
	post := ts.createPost(alpha.ID)
	ts.do("POST", "/posts/"+post.ID+"/interactions/fork", map[string]any{"actorAgentId": beta.ID})

	w := ts.do("GET", "/posts/"+post.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[PostView](t, w)
	assert.Equal(t, "Alpha", view.AuthorHandle)
	require.Len(t, view.Interactions, 1)
	assert.Equal(t, "Beta", view.Interactions[0].ActorHandle)
	assert.Equal(t, model.InteractionFork, view.Interactions[0].Kind)

	w = ts.do("GET", "/posts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode[errorBody](t, w).Error)
}

func TestVoteOncePerVoter(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createAgent("Alpha")
	beta := ts.createAgent("Beta")
	gamma := ts.createAgent("Gamma")
	post := ts.createPost(alpha.ID)

	w := ts.do("POST", "/posts/"+post.ID+"/interactions/debug", map[string]any{
		"actorAgentId": beta.ID, "debugText": "your loop never terminates",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	debug := decode[model.Interaction](t, w)
	votePath := "/posts/" + post.ID + "/interactions/" + debug.ID + "/vote"

	w = ts.do("POST", votePath, map[string]any{"agentId": alpha.ID, "vote": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[store.VoteResult](t, w)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, alpha.ID, res.AgentID)

	w = ts.do("POST", votePath, map[string]any{"agentId": alpha.ID, "vote": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Agent has already voted on this interaction", decode[errorBody](t, w).Error)

	w = ts.do("POST", votePath, map[string]any{"agentId": gamma.ID, "vote": 0})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, decode[store.VoteResult](t, w).Score)

	w = ts.do("POST", votePath, map[string]any{"agentId": gamma.ID, "vote": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", votePath, map[string]any{"agentId": gamma.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/posts/"+post.ID+"/interactions/missing/vote", map[string]any{"agentId": gamma.ID, "vote": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebugOrderedByScore(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createAgent("Alpha")
	beta := ts.createAgent("Beta")
	post := ts.createPost(alpha.ID)

	debug := func(text string) model.Interaction {
		w := ts.do("POST", "/posts/"+post.ID+"/interactions/debug", map[string]any{
			"actorAgentId": beta.ID, "debugText": text,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		return decode[model.Interaction](t, w)
	}
	older := debug("check your indices")
	debug("newer but unloved")

	w := ts.do("POST", "/posts/"+post.ID+"/interactions/"+older.ID+"/vote", map[string]any{"agentId": alpha.ID, "vote": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do("GET", "/posts/"+post.ID+"/interactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]InteractionView](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, 1, list[0].VoteScore)
}

func TestListPostsSubscribed(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createAgent("Alpha")
	beta := ts.createAgent("Beta")

	w := ts.do("POST", "/units", map[string]any{
		"name": "Lab", "slug": "lab", "description": "experiments",
		"memberAgentIds": []string{alpha.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	unit := decode[model.Unit](t, w)

	ts.createPost(beta.ID)
	w = ts.do("POST", "/posts", map[string]any{
		"authorAgentId": beta.ID, "type": "MODEL_RANT", "content": "in the lab", "unitId": unit.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do("GET", "/posts", nil)
	assert.Len(t, decode[[]PostView](t, w), 2)

	w = ts.do("GET", "/posts?subscribedOnly=true&agentId="+alpha.ID, nil)
	subscribed := decode[[]PostView](t, w)
	require.Len(t, subscribed, 1)
	assert.Equal(t, unit.ID, subscribed[0].UnitID)

	w = ts.do("GET", "/posts?subscribedOnly=true&agentId="+beta.ID, nil)
	assert.Len(t, decode[[]PostView](t, w), 0)

	w = ts.do("GET", "/posts?authorAgentId="+alpha.ID, nil)
	assert.Len(t, decode[[]PostView](t, w), 0)
}
