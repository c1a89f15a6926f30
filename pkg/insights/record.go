// Package insights defines the canonical row model for the warehouse tables
// and the tolerant extraction layer that maps raw Statusbrew records onto it.
package insights

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// PlatformInstagram is the only platform the pipeline currently ingests.
const PlatformInstagram = "instagram"

// Record is a raw, untyped record as returned by the insights API.
type Record map[string]any

// nestedKeys are the sub-objects a field may live under, checked in order
// after the top level. First present key wins.
var nestedKeys = [...]string{"metrics", "dimensions", "post", "profile"}

// Get looks a field up at the top level first, then inside each known
// sub-object. Returns nil when the key is absent everywhere.
func (r Record) Get(key string) any {
	if v, ok := r[key]; ok {
		return v
	}
	for _, nested := range nestedKeys {
		sub, ok := r[nested].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := sub[key]; ok {
			return v
		}
	}
	return nil
}

// First returns the value of the first key present in the record, trying
// each in turn with the usual lookup precedence.
func (r Record) First(keys ...string) any {
	for _, key := range keys {
		if v := r.Get(key); v != nil {
			return v
		}
	}
	return nil
}

// AsInt coerces an arbitrary upstream value to an integer. Unparseable
// input yields nil, never an error.
func AsInt(v any) *int64 {
	switch t := v.(type) {
	case int64:
		return &t
	case int:
		n := int64(t)
		return &n
	case int32:
		n := int64(t)
		return &n
	case float64:
		n := int64(t)
		return &n
	case float32:
		n := int64(t)
		return &n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// AsTime coerces an arbitrary upstream value to a timestamp using a tolerant
// general parse. Unparseable or absent input yields nil.
func AsTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case string:
		if t == "" {
			return nil
		}
		parsed, err := dateparse.ParseAny(t)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// AsString coerces a scalar upstream value to a string. nil and non-scalar
// values yield "" so identifier-like columns are never absent in a row.
func AsString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Profile descriptor fields arrive under varying key names depending on the
// space's API version.

// ProfilePlatform returns the platform of a profile descriptor.
func ProfilePlatform(p Record) string {
	return AsString(p.First("platform", "platform_type"))
}

// ProfileID returns the profile identifier of a profile descriptor, or ""
// when the descriptor carries none.
func ProfileID(p Record) string {
	return AsString(p.First("id", "profile_id", "uid"))
}

// ProfileUsername returns the display handle of a profile descriptor.
func ProfileUsername(p Record) string {
	return AsString(p.First("username", "handle", "name"))
}
