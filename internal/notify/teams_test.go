package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mwhitford/backlogctl/internal/errors"
)

func TestNewWebhookRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewWebhook("", 0)
	assert.ErrorIs(t, err, errors.ErrConfigMissing("webhook.url"))
}

func TestSend(t *testing.T) {
	t.Parallel()

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("1"))
	}))
	defer srv.Close()

	wh, err := NewWebhook(srv.URL, 0)
	require.NoError(t, err)

	require.NoError(t, wh.Send(context.Background(), "connectivity check"))
	assert.Equal(t, "connectivity check", gjson.Get(gotBody, "text").String())
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	wh, err := NewWebhook("http://example.invalid/hook", 0)
	require.NoError(t, err)

	err = wh.Send(context.Background(), "   ")
	assert.Equal(t, errors.CategoryBadRequest, errors.CategoryOf(err))
}

func TestSendRejectedByEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	wh, err := NewWebhook(srv.URL, 0)
	require.NoError(t, err)

	err = wh.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryBadRequest, errors.CategoryOf(err))
}

func TestSendUnreachable(t *testing.T) {
	t.Parallel()

	wh, err := NewWebhook("http://127.0.0.1:1/hook", 0)
	require.NoError(t, err)

	err = wh.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryUnavailable, errors.CategoryOf(err))
}
