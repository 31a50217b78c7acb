// Package activity holds the normalized Activity Streams 1.0 document
// model: vocabulary constants, the trim rule applied to every converted
// document, and the collection envelope served over HTTP.
package activity

// Object is a decoded Activity Streams document, ready to be JSON-encoded.
// Conversions build these as plain maps rather than structs because the
// shape is ragged: nearly every property is optional and absent properties
// must not appear in the output at all.
type Object = map[string]any

// Collection is the Activity Streams 1.0 envelope for a list of activities.
type Collection struct {
	Items        []Object `json:"items"`
	TotalResults int      `json:"totalResults"`
	StartIndex   int      `json:"startIndex"`
	ItemsPerPage int      `json:"itemsPerPage"`
	Updated      string   `json:"updated,omitempty"`
}

// TrimNulls returns a copy of obj with every entry whose value is nil, an
// empty string, an empty list, or an empty map removed, recursively. This
// is the final step of every conversion: a normalized document never
// carries an explicit null.
func TrimNulls(obj Object) Object {
	v, ok := trimValue(obj)
	if !ok {
		return Object{}
	}
	return v.(Object)
}

// trimValue reports whether v survives trimming, and if so its trimmed form.
// Zero numbers and false survive; only null-ish values are dropped.
func trimValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		return t, t != ""
	case Object:
		trimmed := make(Object, len(t))
		for k, val := range t {
			if tv, ok := trimValue(val); ok {
				trimmed[k] = tv
			}
		}
		return trimmed, len(trimmed) > 0
	case []any:
		trimmed := make([]any, 0, len(t))
		for _, val := range t {
			if tv, ok := trimValue(val); ok {
				trimmed = append(trimmed, tv)
			}
		}
		return trimmed, len(trimmed) > 0
	}
	return v, true
}
