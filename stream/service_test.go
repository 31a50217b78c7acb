package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrehbiel/activitysift/stream/twitter"
)

// stubFetcher serves canned bodies by URL, standing in for the real API.
type stubFetcher map[string]string

func (f stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := f[url]; ok {
		return []byte(body), nil
	}
	return nil, fmt.Errorf("unexpected fetch of %s", url)
}

func TestService_Home(t *testing.T) {
	svc := NewService(Config{})

	w := httptest.NewRecorder()
	svc.router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestService_ActorEndpoint(t *testing.T) {
	svc := NewService(Config{})
	svc.source = twitter.NewSourceWith(stubFetcher{
		"https://api.twitter.com/1.1/users/lookup.json?screen_name=alice": `[{"screen_name": "alice", "name": "Alice"}]`,
	})

	w := httptest.NewRecorder()
	svc.router.ServeHTTP(w, httptest.NewRequest("GET", "/users/alice/actor", nil))

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var actor map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actor))
	assert.Equal(t, "tag:twitter.com:alice", actor["id"])
	assert.Equal(t, "Alice", actor["displayName"])
}

func TestService_ActorEndpoint_Unknown(t *testing.T) {
	svc := NewService(Config{})
	svc.source = twitter.NewSourceWith(stubFetcher{
		"https://api.twitter.com/1.1/users/lookup.json?screen_name=ghost": `[]`,
	})

	w := httptest.NewRecorder()
	svc.router.ServeHTTP(w, httptest.NewRequest("GET", "/users/ghost/actor", nil))
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}
