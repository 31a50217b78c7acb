package twitter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/karlseguin/ccache/v3"
	"github.com/tkrehbiel/activitysift/stream/telemetry"
)

// fetchTimeout is the fixed per-request timeout. Deliberately very long;
// there is no retry, so a slow response is better than a failed one.
const fetchTimeout = 999 * time.Second

// Fetcher performs one authenticated read against the API and returns the
// raw response body. Transport, auth and rate-limit failures all surface
// here as errors, untranslated. Injected into Source so callers can impose
// their own retry, concurrency or caching policy.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// oauthFetcher signs requests with OAuth 1.0a, which the v1.1 API requires
// on every endpoint.
type oauthFetcher struct {
	client *http.Client
}

// NewOAuthFetcher returns a Fetcher that signs every request with the given
// consumer and access token credentials.
func NewOAuthFetcher(consumerKey, consumerSecret, accessToken, accessSecret string) Fetcher {
	config := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	client := config.Client(oauth1.NoContext, token)
	client.Timeout = fetchTimeout
	return &oauthFetcher{client: client}
}

func (f *oauthFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	telemetry.Increment("api_fetches", 1)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		// Rate limiting shows up here as a plain 429, there is no special
		// handling for it.
		return nil, fmt.Errorf("response code %d from %s", resp.StatusCode, url)
	}
	return body, nil
}

// CachedFetcher is a read-through cache around another Fetcher, keyed by
// URL. The share fetch policy can hit the retweet endpoint once per tweet
// per page, and that endpoint is rate-limited to one call per minute, so
// callers that poll want this wrapper.
type CachedFetcher struct {
	inner Fetcher
	cache *ccache.Cache[[]byte]
	ttl   time.Duration
}

func NewCachedFetcher(inner Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner: inner,
		cache: ccache.New(ccache.Configure[[]byte]()),
		ttl:   ttl,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if item := c.cache.Get(url); item != nil && !item.Expired() {
		telemetry.Increment("cache_hits", 1)
		return item.Value(), nil
	}
	body, err := c.inner.Fetch(ctx, url)
	if err != nil {
		// Errors are not cached; the next caller pays the full cost again.
		return nil, err
	}
	c.cache.Set(url, body, c.ttl)
	return body, nil
}
