// Package stream assembles the translation service: a Twitter source, a
// per-user document store, and an HTTP surface the aggregation layer pulls
// normalized activities from.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/gorilla/mux"
	"github.com/tkrehbiel/activitysift/stream/data"
	"github.com/tkrehbiel/activitysift/stream/telemetry"
	"github.com/tkrehbiel/activitysift/stream/twitter"
)

const defaultPollPeriod = 5 * time.Minute

type SiftService struct {
	Config Config
	Server http.Server
	router *mux.Router
	source *twitter.Source
	users  []*Outbox
}

func (s *SiftService) addHandlers() {
	s.router.HandleFunc("/", homeHandler).Methods("GET")
	s.router.HandleFunc("/users/{name}/actor", s.actorHandler).Methods("GET")
	for _, user := range s.users {
		s.router.HandleFunc(fmt.Sprintf("/users/%s/outbox", user.username), user.ServeHTTP).Methods("GET")
	}
}

// actorHandler serves a live normalized actor for any screen name, not
// just the mirrored ones.
func (s *SiftService) actorHandler(w http.ResponseWriter, r *http.Request) {
	telemetry.Request(r, "SiftService.actorHandler")
	telemetry.Increment("actor_requests", 1)

	name := mux.Vars(r)["name"]
	actor, err := s.source.GetActor(r.Context(), name)
	if err != nil {
		telemetry.Error(err, "fetching actor [%s]", name)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if len(actor) == 0 {
		http.NotFound(w, r)
		return
	}
	jsonBytes, err := json.Marshal(actor)
	if err != nil {
		telemetry.Error(err, "marshaling actor")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonBytes)
}

// Close anything related to the service before exiting
func (s *SiftService) Close() {
	for _, user := range s.users {
		user.store.Close()
	}
	telemetry.LogCounters()
}

func (s *SiftService) ListenAndServe(ctx context.Context) error {
	period := defaultPollPeriod
	if s.Config.Server.PollMinutes > 0 {
		period = time.Duration(s.Config.Server.PollMinutes) * time.Minute
	}
	for _, user := range s.users {
		go user.Watch(ctx, period)
	}
	telemetry.Log("http listener starting on port %d", s.Config.Server.Port)
	return s.Server.ListenAndServe()
}

func (s *SiftService) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

// NewService creates an http service that mirrors configured user timelines
// as normalized activity collections.
func NewService(cfg Config) *SiftService {
	svc := &SiftService{
		Config: cfg,
		router: mux.NewRouter(),
		users:  make([]*Outbox, 0),
	}

	fetcher := twitter.NewOAuthFetcher(
		cfg.API.ConsumerKey, cfg.API.ConsumerSecret,
		cfg.API.AccessToken, cfg.API.AccessSecret)
	if cfg.Server.CacheMinutes > 0 {
		// blunts the unbounded retweet fan-out against the rate limit
		fetcher = twitter.NewCachedFetcher(fetcher, time.Duration(cfg.Server.CacheMinutes)*time.Minute)
	}
	svc.source = twitter.NewSourceWith(fetcher)

	for _, usercfg := range cfg.Users {
		dbName := fmt.Sprintf("user_%s.db", usercfg.ScreenName)
		store := data.NewSQLiteStore(usercfg.ScreenName, dbName)
		if err := store.Open(); err != nil {
			telemetry.Error(err, "opening sqlite database [%s]", dbName)
			continue
		}
		svc.users = append(svc.users, &Outbox{
			username: usercfg.ScreenName,
			id:       path.Join(cfg.URL, fmt.Sprintf("users/%s/outbox", usercfg.ScreenName)),
			source:   svc.source,
			store:    store,
			query: twitter.ActivityQuery{
				GroupID:     twitter.GroupSelf,
				Count:       usercfg.Count,
				FetchShares: usercfg.FetchShares,
			},
		})
	}

	svc.addHandlers()

	svc.Server = http.Server{
		Handler:      svc.router,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
	return svc
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	telemetry.Request(r, "homeHandler")
	telemetry.Increment("home_requests", 1)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<html><title>activitysift</title>
<body>
<p>This is <a href="https://github.com/tkrehbiel/activitysift/">activitysift</a>,
a small service that translates Twitter timelines into Activity Streams
collections. There's nothing to see here.</p>
</body>
</html>`)
}
