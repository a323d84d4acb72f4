package commentary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/pkg/logger"
)

func TestChatSendsExpectedPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "测试点评"}},
			},
		})
	}))
	defer srv.Close()

	c := New(logger.Nop(),
		WithEndpoint(srv.URL),
		WithModel("test-model"),
		WithAPIKey("test-key"),
	)

	text, err := c.Chat(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "测试点评", text)

	assert.Equal(t, "test-model", got["model"])
	assert.Equal(t, false, got["stream"])
	thinking, ok := got["thinking"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disabled", thinking["type"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
}

func TestCommentaryFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(logger.Nop(),
		WithEndpoint(srv.URL),
		WithModel("test-model"),
		WithAPIKey("test-key"),
		WithTimeout(2*time.Second),
	)

	rc := models.NewRunContext(time.Now())
	assert.Equal(t, Fallback, c.Commentary(context.Background(), rc))
}

func TestCommentaryDisabledWithoutKey(t *testing.T) {
	c := New(logger.Nop(), WithModel("test-model"))
	assert.False(t, c.Enabled())

	rc := models.NewRunContext(time.Now())
	assert.Equal(t, Fallback, c.Commentary(context.Background(), rc))
}
