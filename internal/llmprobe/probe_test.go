package llmprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitford/backlogctl/internal/errors"
)

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New("", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigMissing("llm.base_url"))
}

func TestListModels(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[
			{"name":"llama3:8b","details":{"parameter_size":"8B"}},
			{"name":"mistral:7b","details":{"parameter_size":"7B"}}
		]}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, 0)
	require.NoError(t, err)

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama3:8b", models[0].Name)
	assert.Equal(t, "8B", models[0].ParameterSize)
	assert.Equal(t, "mistral:7b", models[1].Name)
}

func TestListModelsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, 0)
	require.NoError(t, err)

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestCompletionOllamaRoute(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"model":"llama3:8b","response":" pong\n","done":true}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, 0)
	require.NoError(t, err)

	res, err := p.Completion(context.Background(), "llama3:8b")
	require.NoError(t, err)
	assert.Equal(t, "ollama", res.Route)
	assert.Equal(t, "pong", res.Reply)
	assert.Equal(t, "llama3:8b", res.Model)
	assert.Greater(t, res.Latency.Nanoseconds(), int64(0))
}

func TestCompletionFallsBackToOpenAI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			http.NotFound(w, r)
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p, err := New(srv.URL, 0)
	require.NoError(t, err)

	res, err := p.Completion(context.Background(), "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai", res.Route)
	assert.Equal(t, "pong", res.Reply)
}

func TestCompletionRequiresModel(t *testing.T) {
	t.Parallel()

	p, err := New("http://localhost:11434", 0)
	require.NoError(t, err)

	_, err = p.Completion(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrConfigMissing("llm.model"))
}

func TestCompletionServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := New(srv.URL, 0)
	require.NoError(t, err)

	_, err = p.Completion(context.Background(), "llama3:8b")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryBadRequest, errors.CategoryOf(err))
}

func TestUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	p, err := New("http://127.0.0.1:1", 0)
	require.NoError(t, err)

	_, err = p.ListModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CategoryUnavailable, errors.CategoryOf(err))
}
