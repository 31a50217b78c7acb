package twitter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(url)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestGetActivities_Timeline(t *testing.T) {
	timeline := `[
		{"id_str": "1", "user": {"screen_name": "alice"}, "text": "first"},
		{"id_str": "2", "user": {"screen_name": "alice"}, "text": "second"}
	]`

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/home_timeline.json?include_entities=true&count=2").
		Return([]byte(timeline), nil).Once()

	source := NewSourceWith(fetcher)
	activities, err := source.GetActivities(context.Background(), ActivityQuery{Count: 2})
	require.NoError(t, err)
	require.Len(t, activities, 2)

	// source order is preserved
	assert.Equal(t, "tag:twitter.com:1", activities[0]["id"])
	assert.Equal(t, "tag:twitter.com:2", activities[1]["id"])
	assert.Equal(t, "post", activities[0]["verb"])

	fetcher.AssertExpectations(t)
}

func TestGetActivities_SelfTimelineStartIndex(t *testing.T) {
	timeline := `[
		{"id_str": "1", "user": {"screen_name": "alice"}, "text": "skipped"},
		{"id_str": "2", "user": {"screen_name": "alice"}, "text": "kept"}
	]`

	fetcher := &mockFetcher{}
	// the page is over-fetched by the start index, then sliced
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/user_timeline.json?include_entities=true&count=2").
		Return([]byte(timeline), nil).Once()

	source := NewSourceWith(fetcher)
	activities, err := source.GetActivities(context.Background(), ActivityQuery{
		GroupID:    GroupSelf,
		StartIndex: 1,
		Count:      1,
	})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "tag:twitter.com:2", activities[0]["id"])

	fetcher.AssertExpectations(t)
}

func TestGetActivities_SingleStatus(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/show.json?id=42&include_entities=true").
		Return([]byte(`{"id_str": "42", "user": {"screen_name": "alice"}, "text": "hi"}`), nil).Once()

	source := NewSourceWith(fetcher)
	activities, err := source.GetActivities(context.Background(), ActivityQuery{ActivityID: "42"})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "http://twitter.com/alice/status/42", activities[0]["url"])

	fetcher.AssertExpectations(t)
}

func TestGetActivities_FetchShares(t *testing.T) {
	timeline := `[
		{"id_str": "1", "user": {"screen_name": "alice"}, "text": "popular", "retweet_count": 3},
		{"id_str": "2", "user": {"screen_name": "alice"}, "text": "ignored", "retweet_count": 0},
		{"id_str": "3", "user": {"screen_name": "alice"}, "text": "rt", "retweet_count": 1, "retweeted": true}
	]`
	retweets := `[
		{"id_str": "9", "user": {"screen_name": "bob"},
		 "retweeted_status": {"id_str": "1", "user": {"screen_name": "alice"}}}
	]`

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/home_timeline.json?include_entities=true&count=0").
		Return([]byte(timeline), nil).Once()
	// only the original tweet with retweets gets the extra fetch
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/retweets.json?id=1").
		Return([]byte(retweets), nil).Once()

	source := NewSourceWith(fetcher)
	activities, err := source.GetActivities(context.Background(), ActivityQuery{FetchShares: true})
	require.NoError(t, err)
	require.Len(t, activities, 3)

	tags := activities[0]["object"].(map[string]any)["tags"].([]any)
	require.Len(t, tags, 1)
	share := tags[0].(map[string]any)
	assert.Equal(t, "share", share["verb"])
	assert.Equal(t, map[string]any{"url": "http://twitter.com/alice/status/1"}, share["object"])

	fetcher.AssertExpectations(t)
}

func TestGetActivities_FetchError(t *testing.T) {
	boom := errors.New("rate limited")
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything).Return(nil, boom)

	source := NewSourceWith(fetcher)
	_, err := source.GetActivities(context.Background(), ActivityQuery{})
	// fetch failures propagate untranslated
	assert.ErrorIs(t, err, boom)
}

func TestGetActor_Current(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/account/verify_credentials.json").
		Return([]byte(`{"screen_name": "me", "name": "Current User"}`), nil).Once()

	source := NewSourceWith(fetcher)
	actor, err := source.GetActor(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "tag:twitter.com:me", actor["id"])

	fetcher.AssertExpectations(t)
}

func TestGetActor_Lookup(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/users/lookup.json?screen_name=alice").
		Return([]byte(`[{"screen_name": "alice", "name": "Alice"}]`), nil).Once()

	source := NewSourceWith(fetcher)
	actor, err := source.GetActor(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "http://twitter.com/alice", actor["url"])

	fetcher.AssertExpectations(t)
}

func TestGetShare(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/show.json?id=9&include_entities=true").
		Return([]byte(retweetJSON), nil).Once()

	source := NewSourceWith(fetcher)
	share, err := source.GetShare(context.Background(), "9")
	require.NoError(t, err)
	require.NotNil(t, share)
	assert.Equal(t, "retweeted this.", share["content"])

	fetcher.AssertExpectations(t)
}

func TestGetComment(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/statuses/show.json?id=7&include_entities=true").
		Return([]byte(`{"id_str": "7", "user": {"screen_name": "carol"}, "text": "a reply"}`), nil).Once()

	source := NewSourceWith(fetcher)
	obj, err := source.GetComment(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "note", obj["objectType"])
	assert.Equal(t, "a reply", obj["content"])

	fetcher.AssertExpectations(t)
}

func TestSearch(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://api.twitter.com/1.1/search/tweets.json?q=indie+web&include_entities=true&result_type=recent&count=100").
		Return([]byte(`{"statuses": [{"id_str": "5", "user": {"screen_name": "dave"}, "text": "found"}]}`), nil).Once()

	source := NewSourceWith(fetcher)
	activities, err := source.Search(context.Background(), "indie web")
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "tag:twitter.com:5", activities[0]["id"])

	fetcher.AssertExpectations(t)
}

func TestGetActivities_MalformedRecordInBatch(t *testing.T) {
	// one record without an id never fails the batch
	timeline := `[
		{"text": "no id at all"},
		{"id_str": "2", "user": {"screen_name": "alice"}, "text": "fine"}
	]`
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything).Return([]byte(timeline), nil).Once()

	source := NewSourceWith(fetcher)
	activities, err := source.GetActivities(context.Background(), ActivityQuery{})
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Empty(t, activities[0])
	assert.Equal(t, "tag:twitter.com:2", activities[1]["id"])
}
