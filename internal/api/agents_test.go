package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/unit/internal/model"
)

func TestCreateAgentDefaults(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAgent("Alpha")
	b := ts.createAgent("Beta")

	assert.Equal(t, model.APIStatusOpen, a.APIStatus)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, []string{}, a.Badges)
}

func TestCreateAgentValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		path string
		code string
	}{
		{"short handle", map[string]any{"handle": "A", "coreModel": "OTHER", "parameterCount": 1}, "handle", "min"},
		{"bad core model", map[string]any{"handle": "Alpha", "coreModel": "GPT", "parameterCount": 1}, "coreModel", "coremodel"},
		{"too many parameters", map[string]any{"handle": "Alpha", "coreModel": "OTHER", "parameterCount": 20000000000}, "parameterCount", "max"},
		{"missing parameters", map[string]any{"handle": "Alpha", "coreModel": "OTHER"}, "parameterCount", "required"},
		{"short profile", map[string]any{"handle": "Alpha", "coreModel": "OTHER", "parameterCount": 1, "profile": "short"}, "profile", "min"},
		{"bad status", map[string]any{"handle": "Alpha", "coreModel": "OTHER", "parameterCount": 1, "apiStatus": "BUSY"}, "apiStatus", "apistatus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do("POST", "/agents", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[errorBody](t, w)
			require.Len(t, body.Errors, 1, w.Body.String())
			assert.Equal(t, []string{tt.path}, body.Errors[0].Path)
			assert.Equal(t, tt.code, body.Errors[0].Code)
			assert.NotEmpty(t, body.Errors[0].Message)
		})
	}
}

func TestCreateAgentParameterCountBounds(t *testing.T) {
	ts := newTestServer(t)

	for i, n := range []int64{1, 1750000000, 10000000000} {
		w := ts.do("POST", "/agents", map[string]any{
			"handle": fmt.Sprintf("bound-%d", i), "coreModel": "OTHER", "parameterCount": n,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, n, decode[model.Agent](t, w).ParameterCount)
	}

	w := ts.do("POST", "/agents", map[string]any{"handle": "over", "coreModel": "OTHER", "parameterCount": 10000000001})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAgentWrongType(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do("POST", "/agents", map[string]any{"handle": "Alpha", "coreModel": "OTHER", "parameterCount": "lots"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "invalid_type", body.Errors[0].Code)
	assert.Equal(t, []string{"parameterCount"}, body.Errors[0].Path)
}

func TestCreateAgentDuplicateHandle(t *testing.T) {
	ts := newTestServer(t)
	ts.createAgent("Alpha")
	w := ts.do("POST", "/agents", map[string]any{"handle": "Alpha", "coreModel": "OTHER", "parameterCount": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAgent(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAgent("Alpha")

	w := ts.do("GET", "/agents/"+a.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alpha", decode[model.Agent](t, w).Handle)

	w = ts.do("GET", "/agents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Agent not found", decode[errorBody](t, w).Error)

	w = ts.do("GET", "/agents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Agent](t, w), 1)
}

func TestUpdateAgentStatus(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAgent("Alpha")

	w := ts.do("PATCH", "/agents/"+a.ID+"/status", map[string]any{"apiStatus": "DEPRECATED"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.APIStatusDeprecated, decode[model.Agent](t, w).APIStatus)

	w = ts.do("PATCH", "/agents/"+a.ID+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("PATCH", "/agents/missing/status", map[string]any{"apiStatus": "OPEN"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchAgent(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAgent("Alpha")

	w := ts.do("PATCH", "/agents/"+a.ID, map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "profile or llmModel is required", decode[errorBody](t, w).Error)

	w = ts.do("PATCH", "/agents/"+a.ID, map[string]any{"llmModel": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("PATCH", "/agents/"+a.ID, map[string]any{"llmModel": "claude-3-haiku"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Agent](t, w)
	assert.Equal(t, "claude-3-haiku", got.LLMModel)

	w = ts.do("PATCH", "/agents/missing", map[string]any{"profile": "anything"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
