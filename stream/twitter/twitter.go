// Package twitter translates the Twitter v1.1 REST API into Activity
// Streams 1.0 documents: tweets become post activities, users become
// actors, retweets become share activities.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tkrehbiel/activitysift/stream/activity"
	"github.com/tkrehbiel/activitysift/stream/telemetry"
)

// v1.1 endpoint templates. Entity lists are requested everywhere the
// converter consumes them.
const (
	apiTimelineURL     = "https://api.twitter.com/1.1/statuses/home_timeline.json?include_entities=true&count=%d"
	apiSelfTimelineURL = "https://api.twitter.com/1.1/statuses/user_timeline.json?include_entities=true&count=%d"
	apiStatusURL       = "https://api.twitter.com/1.1/statuses/show.json?id=%s&include_entities=true"
	apiRetweetsURL     = "https://api.twitter.com/1.1/statuses/retweets.json?id=%s"
	apiUserURL         = "https://api.twitter.com/1.1/users/lookup.json?screen_name=%s"
	apiCurrentUserURL  = "https://api.twitter.com/1.1/account/verify_credentials.json"
	apiSearchURL       = "https://api.twitter.com/1.1/search/tweets.json?q=%s&include_entities=true&result_type=recent&count=100"
)

// GroupSelf selects the authenticated user's own timeline instead of the
// home timeline.
const GroupSelf = "@self"

// Source reads from the Twitter REST API and normalizes what comes back.
// All reads go through the injected Fetcher; Source itself holds no state
// between calls.
type Source struct {
	fetcher Fetcher
}

// NewSource returns a Source authenticated with OAuth 1.0a credentials.
func NewSource(consumerKey, consumerSecret, accessToken, accessSecret string) *Source {
	return NewSourceWith(NewOAuthFetcher(consumerKey, consumerSecret, accessToken, accessSecret))
}

// NewSourceWith returns a Source reading through the given Fetcher.
func NewSourceWith(fetcher Fetcher) *Source {
	return &Source{fetcher: fetcher}
}

// ActivityQuery selects which activities to fetch and convert.
type ActivityQuery struct {
	ActivityID  string // a single tweet by id, overrides the timeline
	GroupID     string // GroupSelf for the user's own timeline
	StartIndex  int
	Count       int
	FetchShares bool // resolve each tweet's retweets with extra fetches
}

// GetActivities fetches a page of tweets and converts each one to a post
// activity. Output order follows the source's returned order.
//
// With FetchShares set, every original tweet with a nonzero retweet count
// costs one extra sequential fetch to attach its retweet list before
// conversion. That is unbounded in request count and the retweet endpoint
// is tightly rate-limited; wrap the Fetcher in a CachedFetcher or supply
// your own policy if that matters to the caller.
func (s *Source) GetActivities(ctx context.Context, q ActivityQuery) ([]activity.Object, error) {
	var tweets []activity.Object

	if q.ActivityID != "" {
		tweet, err := s.fetchMap(ctx, fmt.Sprintf(apiStatusURL, q.ActivityID))
		if err != nil {
			return nil, err
		}
		tweets = []activity.Object{tweet}
	} else {
		timeline := apiTimelineURL
		if q.GroupID == GroupSelf {
			timeline = apiSelfTimelineURL
		}
		page, err := s.fetchList(ctx, fmt.Sprintf(timeline, q.Count+q.StartIndex))
		if err != nil {
			return nil, err
		}
		if q.StartIndex < len(page) {
			page = page[q.StartIndex:]
		} else {
			page = nil
		}
		tweets = page
	}

	if q.FetchShares {
		if err := s.fetchShares(ctx, tweets); err != nil {
			return nil, err
		}
	}

	activities := make([]activity.Object, 0, len(tweets))
	for _, tweet := range tweets {
		activities = append(activities, TweetToActivity(tweet))
	}
	return activities, nil
}

// fetchShares attaches each original tweet's retweet list under its
// retweets key, one extra fetch per tweet, in source order.
func (s *Source) fetchShares(ctx context.Context, tweets []activity.Object) error {
	for _, tweet := range tweets {
		if isRetweet, _ := tweet["retweeted"].(bool); isRetweet {
			continue // shares of a retweet belong to the original
		}
		if n, ok := intValue(tweet["retweet_count"]); !ok || n < 1 {
			continue
		}
		retweets, err := s.fetchList(ctx, fmt.Sprintf(apiRetweetsURL, stringProp(tweet, "id_str")))
		if err != nil {
			return err
		}
		list := make([]any, 0, len(retweets))
		for _, r := range retweets {
			list = append(list, map[string]any(r))
		}
		tweet["retweets"] = list
	}
	return nil
}

// GetActor fetches a user and converts it to an actor. An empty screen name
// selects the current authenticated user.
func (s *Source) GetActor(ctx context.Context, screenName string) (activity.Object, error) {
	if screenName == "" {
		user, err := s.fetchMap(ctx, apiCurrentUserURL)
		if err != nil {
			return nil, err
		}
		return UserToActor(user), nil
	}
	// users/lookup returns a list even for a single name
	users, err := s.fetchList(ctx, fmt.Sprintf(apiUserURL, url.QueryEscape(screenName)))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return activity.Object{}, nil
	}
	return UserToActor(users[0]), nil
}

// GetComment fetches a single tweet and converts it to a bare object, for
// callers treating replies as comments on their parent.
func (s *Source) GetComment(ctx context.Context, id string) (activity.Object, error) {
	tweet, err := s.fetchMap(ctx, fmt.Sprintf(apiStatusURL, id))
	if err != nil {
		return nil, err
	}
	return TweetToObject(tweet), nil
}

// GetShare fetches a single retweet and converts it to a share activity
// object. Returns nil when the record turns out not to be a retweet.
func (s *Source) GetShare(ctx context.Context, id string) (activity.Object, error) {
	tweet, err := s.fetchMap(ctx, fmt.Sprintf(apiStatusURL, id))
	if err != nil {
		return nil, err
	}
	return RetweetToObject(tweet), nil
}

// Search runs a recent-tweet keyword search and converts each hit to a post
// activity.
func (s *Source) Search(ctx context.Context, query string) ([]activity.Object, error) {
	result, err := s.fetchMap(ctx, fmt.Sprintf(apiSearchURL, url.QueryEscape(query)))
	if err != nil {
		return nil, err
	}
	statuses := listProp(result, "statuses")
	activities := make([]activity.Object, 0, len(statuses))
	for _, status := range statuses {
		activities = append(activities, TweetToActivity(asMap(status)))
	}
	return activities, nil
}

func (s *Source) fetchMap(ctx context.Context, url string) (activity.Object, error) {
	v, err := s.fetchJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object from %s", url)
	}
	return m, nil
}

func (s *Source) fetchList(ctx context.Context, url string) ([]activity.Object, error) {
	v, err := s.fetchJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON list from %s", url)
	}
	list := make([]activity.Object, 0, len(l))
	for _, e := range l {
		if m := asMap(e); m != nil {
			list = append(list, m)
		}
	}
	return list, nil
}

func (s *Source) fetchJSON(ctx context.Context, url string) (any, error) {
	telemetry.Trace("fetching %s", url)
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	// id values can exceed float64 precision; keep numbers textual
	decoder.UseNumber()
	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return v, nil
}
