package twitter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tkrehbiel/activitysift/stream/activity"
)

// Conversions from decoded Twitter v1.1 REST API documents to Activity
// Streams 1.0 documents. All of these are pure: map in, map out, no I/O.
// A record without a stable id converts to an empty map rather than an
// error, so one malformed record never fails a whole batch.

const Domain = "twitter.com"

// TagURI returns the stable opaque identifier for a Twitter id or handle.
func TagURI(name string) string {
	return fmt.Sprintf("tag:%s:%s", Domain, name)
}

// UserURL returns the canonical profile URL for a screen name.
func UserURL(username string) string {
	return fmt.Sprintf("http://%s/%s", Domain, username)
}

// StatusURL returns the canonical URL of a tweet by a given user.
func StatusURL(username, id string) string {
	return fmt.Sprintf("%s/status/%s", UserURL(username), id)
}

// UserToActor converts a Twitter user to an actor.
// A user without a screen name has no derivable identity and converts to an
// empty map.
func UserToActor(user activity.Object) activity.Object {
	username := stringProp(user, "screen_name")
	if username == "" {
		return activity.Object{}
	}
	return activity.TrimNulls(activity.Object{
		"id":          TagURI(username),
		"url":         UserURL(username),
		"username":    username,
		"displayName": stringProp(user, "name"),
		"image":       activity.Object{"url": stringProp(user, "profile_image_url")},
		"published":   rfc2822ToISO8601(stringProp(user, "created_at")),
		"location":    activity.Object{"displayName": stringProp(user, "location")},
		"description": stringProp(user, "description"),
	})
}

// TweetToObject converts a tweet to an object.
// Only the string id is authoritative; a tweet carrying no id_str converts
// to an empty map.
func TweetToObject(tweet activity.Object) activity.Object {
	id := stringProp(tweet, "id_str")
	if id == "" {
		return activity.Object{}
	}

	obj := activity.Object{
		"objectType": activity.NoteType,
		"published":  rfc2822ToISO8601(stringProp(tweet, "created_at")),
		// Deliberately not linkified: embedded URLs in the text are all
		// shortened redirects. The real targets only appear in the url
		// entities below.
		"content":     stringProp(tweet, "text"),
		"attachments": []any{},
	}

	author := UserToActor(mapProp(tweet, "user"))
	if len(author) > 0 {
		obj["author"] = author
		if username := stringProp(author, "username"); username != "" {
			obj["id"] = TagURI(id)
			obj["url"] = StatusURL(username, id)
		}
	}

	entities := mapProp(tweet, "entities")

	// The media list only carries photos today. If that ever changes this
	// needs to become conditional on media type.
	if media := listProp(entities, "media"); len(media) > 0 {
		if url := stringProp(asMap(media[0]), "media_url"); url != "" {
			obj["image"] = activity.Object{"url": url}
			obj["attachments"] = append(obj["attachments"].([]any), activity.Object{
				"objectType": activity.ImageType,
				"image":      activity.Object{"url": url},
			})
		}
	}

	tags := make([]any, 0)
	for _, m := range listProp(entities, "user_mentions") {
		mention := asMap(m)
		name := stringProp(mention, "screen_name")
		tags = append(tags, spanTag(activity.Object{
			"objectType":  activity.PersonType,
			"id":          TagURI(name),
			"url":         UserURL(name),
			"displayName": stringProp(mention, "name"),
		}, mention))
	}
	for _, h := range listProp(entities, "hashtags") {
		hashtag := asMap(h)
		tags = append(tags, spanTag(activity.Object{
			"objectType": activity.HashtagType,
			"url":        "https://" + Domain + "/search?q=%23" + stringProp(hashtag, "text"),
		}, hashtag))
	}
	for _, u := range listProp(entities, "urls") {
		link := asMap(u)
		tags = append(tags, spanTag(activity.Object{
			"objectType": activity.ArticleType,
			"url":        stringProp(link, "expanded_url"),
		}, link))
	}

	// Retweets previously attached by the share fetch policy become
	// nested share activities on the tag list.
	for _, r := range listProp(tweet, "retweets") {
		if share := RetweetToObject(asMap(r)); share != nil {
			tags = append(tags, share)
		}
	}
	obj["tags"] = tags

	if place := mapProp(tweet, "place"); len(place) > 0 {
		location := activity.Object{
			"displayName": stringProp(place, "full_name"),
			"id":          stringProp(place, "id"),
		}
		// The place url is a JSON API url, useless to readers. Build a map
		// link from the raw coordinates instead, lat first.
		if coords := listProp(mapProp(tweet, "geo"), "coordinates"); len(coords) == 2 {
			location["url"] = fmt.Sprintf("https://maps.google.com/maps?q=%s,%s",
				numberString(coords[0]), numberString(coords[1]))
		}
		obj["location"] = location
	}

	return activity.TrimNulls(obj)
}

// sourcePattern matches the embedded HTML anchor in a tweet's source field.
// Yes, the field really has HTML in it.
var sourcePattern = regexp.MustCompile(`<a href="([^"]+)".*>(.+)</a>`)

// TweetToActivity converts a tweet to a post activity wrapping the object
// conversion. An unconvertible tweet yields an empty map.
func TweetToActivity(tweet activity.Object) activity.Object {
	obj := TweetToObject(tweet)
	if len(obj) == 0 {
		return activity.Object{}
	}

	act := activity.Object{
		"verb":      activity.PostVerb,
		"published": obj["published"],
		"id":        obj["id"],
		"url":       obj["url"],
		"actor":     obj["author"],
		"object":    obj,
	}

	// A reply reference is only emitted when both halves are present.
	// A parent id without a screen name can't produce a canonical URL,
	// and partial references aren't worth emitting.
	replyName := stringProp(tweet, "in_reply_to_screen_name")
	replyID := numberString(tweet["in_reply_to_status_id"])
	if replyName != "" && replyID != "" {
		act["context"] = activity.Object{
			"inReplyTo": []any{activity.Object{
				"objectType": activity.NoteType,
				"id":         TagURI(replyID),
				"url":        StatusURL(replyName, replyID),
			}},
		}
	}

	if parsed := sourcePattern.FindStringSubmatch(stringProp(tweet, "source")); parsed != nil {
		act["generator"] = activity.Object{
			"displayName": parsed[2],
			"url":         parsed[1],
		}
	}

	return activity.TrimNulls(act)
}

// RetweetToObject converts a retweet to a share activity object.
// Returns nil when the record carries no nested original status, since it is
// then indistinguishable from an ordinary tweet.
func RetweetToObject(retweet activity.Object) activity.Object {
	orig := mapProp(retweet, "retweeted_status")
	if len(orig) == 0 {
		return nil
	}

	// The share inherits the retweeter's own author, timestamp and id; the
	// original is referenced by URL only, not embedded.
	share := TweetToObject(retweet)
	share["objectType"] = activity.ActivityType
	share["verb"] = activity.ShareVerb
	share["content"] = "retweeted this."
	share["object"] = activity.Object{
		"url": StatusURL(
			stringProp(mapProp(orig, "user"), "screen_name"),
			stringProp(orig, "id_str")),
	}
	return activity.TrimNulls(share)
}

// offsetPattern matches the numeric UTC offset token embedded in the fixed
// source timestamp format, e.g. " +0000 ".
var offsetPattern = regexp.MustCompile(` [+-][0-9]{4} `)

// rfc2822Layout is the source timestamp layout once the offset is removed,
// e.g. "Wed May 23 06:01:13 2007".
const rfc2822Layout = "Mon Jan 2 15:04:05 2006"

// rfc2822ToISO8601 converts a timestamp like "Wed May 23 06:01:13 +0000 2007"
// to "2007-05-23T06:01:13". The offset is stripped, not applied, so the
// result is naive local time exactly as the source reported it. Absent or
// unparseable input converts to absent output.
func rfc2822ToISO8601(timeStr string) string {
	if timeStr == "" {
		return ""
	}
	withoutZone := offsetPattern.ReplaceAllString(timeStr, " ")
	t, err := time.Parse(rfc2822Layout, withoutZone)
	if err != nil {
		return ""
	}
	return t.Format(activity.TimeFormat)
}

// spanTag rewrites a source character span onto a tag: the two-element
// half-open indices pair becomes startIndex and length, and the raw field
// does not survive.
func spanTag(tag activity.Object, entity activity.Object) activity.Object {
	indices := listProp(entity, "indices")
	if len(indices) == 2 {
		start, ok1 := intValue(indices[0])
		end, ok2 := intValue(indices[1])
		if ok1 && ok2 {
			tag["startIndex"] = start
			tag["length"] = end - start
		}
	}
	return tag
}

func stringProp(m activity.Object, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func mapProp(m activity.Object, key string) activity.Object {
	if m == nil {
		return nil
	}
	return asMap(m[key])
}

func listProp(m activity.Object, key string) []any {
	if m == nil {
		return nil
	}
	l, _ := m[key].([]any)
	return l
}

func asMap(v any) activity.Object {
	m, _ := v.(map[string]any)
	return m
}

// numberString renders a decoded JSON value as a plain decimal string.
// Documents decoded with UseNumber keep 64-bit ids exact; anything that
// went through a float is rendered without an exponent.
func numberString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
	case float64:
		return int(t), true
	case int:
		return t, true
	}
	return 0, false
}
