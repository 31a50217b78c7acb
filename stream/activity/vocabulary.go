package activity

// Activity Streams 1.0 vocabulary used by the normalized documents.

// Object types
const (
	NoteType     = "note"
	ArticleType  = "article"
	ImageType    = "image"
	PersonType   = "person"
	HashtagType  = "hashtag"
	ActivityType = "activity"
)

// Verbs
const (
	PostVerb  = "post"
	ShareVerb = "share"
)

// Common property names
const (
	IDProperty        = "id"
	URLProperty       = "url"
	VerbProperty      = "verb"
	ObjectProperty    = "object"
	ActorProperty     = "actor"
	AuthorProperty    = "author"
	ContentProperty   = "content"
	PublishedProperty = "published"
)

const (
	ContentType = "application/json"

	// TimeFormat is the naive ISO 8601 layout carried on normalized
	// documents. There is deliberately no zone suffix: the source offset
	// is stripped during conversion, not applied.
	TimeFormat = "2006-01-02T15:04:05"
)
