package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tkrehbiel/activitysift/stream/activity"
	"github.com/tkrehbiel/activitysift/stream/data"
	"github.com/tkrehbiel/activitysift/stream/telemetry"
	"github.com/tkrehbiel/activitysift/stream/twitter"
)

// timelineSource is the slice of twitter.Source the outbox needs, so tests
// can substitute their own.
type timelineSource interface {
	GetActivities(ctx context.Context, q twitter.ActivityQuery) ([]activity.Object, error)
}

// Outbox mirrors one user's timeline: it periodically fetches the timeline,
// normalizes it, stores the documents, and serves the stored collection
// over HTTP for the aggregation layer to pull.
type Outbox struct {
	username string
	id       string
	query    twitter.ActivityQuery
	source   timelineSource
	store    data.Store
}

// Refresh fetches the user timeline once and upserts the converted
// activities. Records that convert to nothing are dropped, not stored.
func (o *Outbox) Refresh(ctx context.Context) error {
	activities, err := o.source.GetActivities(ctx, o.query)
	if err != nil {
		return err
	}
	for _, act := range activities {
		if len(act) == 0 {
			telemetry.Increment("skipped_records", 1)
			continue
		}
		doc, err := data.FromObject(act)
		if err != nil {
			return err
		}
		if err := o.store.Upsert(ctx, doc); err != nil {
			return err
		}
		telemetry.Increment("stored_activities", 1)
	}
	return nil
}

// Watch polls the timeline until the context ends.
func (o *Outbox) Watch(ctx context.Context, period time.Duration) {
	telemetry.Log("watching timeline of %s", o.username)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	if err := o.Refresh(ctx); err != nil {
		telemetry.Error(err, "refreshing timeline of %s", o.username)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.Refresh(ctx); err != nil {
				// transient API failures just wait for the next tick
				telemetry.Error(err, "refreshing timeline of %s", o.username)
			}
		}
	}
}

// GetLatestActivities returns up to n stored activities, newest first.
func (o *Outbox) GetLatestActivities(ctx context.Context, n int) []activity.Object {
	documents, err := o.store.SelectAll(ctx)
	if err != nil {
		telemetry.Error(err, "selecting from store of %s", o.username)
		return nil
	}
	activities := make([]activity.Object, 0, n)
	for i := len(documents) - 1; i >= 0 && len(activities) < n; i-- {
		var act activity.Object
		if err := json.Unmarshal(documents[i].JSON(), &act); err != nil {
			telemetry.Error(err, "unmarshaling stored document [%s]", documents[i].ID())
			continue
		}
		activities = append(activities, act)
	}
	return activities
}

func (o *Outbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	telemetry.Request(r, "Outbox.ServeHTTP %s", o.username)
	telemetry.Increment("outbox_requests", 1)

	activities := o.GetLatestActivities(r.Context(), 20)

	collection := activity.Collection{
		Items:        activities,
		TotalResults: len(activities),
		ItemsPerPage: len(activities),
	}

	jsonBytes, err := json.Marshal(&collection)
	if err != nil {
		telemetry.Error(err, "marshaling collection")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", activity.ContentType)
	w.Write(jsonBytes)
}
