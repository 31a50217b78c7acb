package stream

import (
	"encoding/json"
	"net/url"
)

type apiConfig struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	AccessToken    string `json:"access_token"`
	AccessSecret   string `json:"access_secret"`
}

type serverConfig struct {
	Port         int `json:"port"`
	CacheMinutes int `json:"cache_minutes"` // 0 disables the fetch cache
	PollMinutes  int `json:"poll_minutes"`  // 0 means the default period
}

type userConfig struct {
	// ScreenName labels the mirrored account. Timelines are always read
	// as the authenticated user, so this should match the credentials.
	ScreenName  string `json:"screen_name"`
	FetchShares bool   `json:"fetch_shares"`
	Count       int    `json:"count,omitempty"` // timeline page size
}

type Config struct {
	URL    string       `json:"url"` // public-facing URL
	API    apiConfig    `json:"api"`
	Server serverConfig `json:"server"`
	Users  []userConfig `json:"users"`
}

func (c Config) PublicHost() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

func ReadConfig(b []byte) (config Config, err error) {
	if uErr := json.Unmarshal(b, &config); uErr != nil {
		return config, uErr
	}
	return config, nil
}
