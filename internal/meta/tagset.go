package meta

import (
	"strconv"

	"satgas-data/internal/domain"
)

// TagSet ordered tag list of one account. Order is preserved but never matters for
// matching. Functions returning a TagSet always return a new slice.
type TagSet []Tag

// Decode parses a stored meta list.
func Decode(stored []string) TagSet {
	ts := make(TagSet, 0, len(stored))
	for _, s := range stored {
		ts = append(ts, Parse(s))
	}
	return ts
}

// Encode returns the stored form, in order.
func (ts TagSet) Encode() []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.raw)
	}
	return out
}

// Of builds a TagSet from already encoded tags.
func Of(tags ...Tag) TagSet {
	return append(TagSet{}, tags...)
}

// HasMarker reports whether ts holds ":name:".
func HasMarker(ts TagSet, name string) bool {
	for _, t := range ts {
		if t.IsMarker(name) {
			return true
		}
	}
	return false
}

// GetAttribute returns the value of the first key=... tag in stored order.
// Duplicate keys are tolerated; later entries are ignored.
func GetAttribute(ts TagSet, key string) (string, bool) {
	for _, t := range ts {
		if t.kind == KindAttribute && t.name == key {
			return t.value, true
		}
	}
	return "", false
}

// GetIntAttribute is GetAttribute parsed as a base 10 integer. A value that does not
// parse reads as absent.
func GetIntAttribute(ts TagSet, key string) (int64, bool) {
	v, ok := GetAttribute(ts, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasAccess reports whether ts grants capability. The super admin account holds
// every capability.
func HasAccess(ts TagSet, accountID int64, capability string) bool {
	if accountID == domain.SuperAdminID {
		return true
	}
	for _, t := range ts {
		if t.IsAccess(capability) {
			return true
		}
	}
	return false
}

// AccessGrants lists granted capabilities in stored order.
func AccessGrants(ts TagSet) []string {
	var caps []string
	for _, t := range ts {
		if t.kind == KindAccess {
			caps = append(caps, t.name)
		}
	}
	return caps
}

// ReplaceAccessGrants drops every access.* tag and appends one grant per capability
// in the given order. Other tags keep their relative order.
func ReplaceAccessGrants(ts TagSet, capabilities []string) TagSet {
	out := make(TagSet, 0, len(ts)+len(capabilities))
	for _, t := range ts {
		if t.kind != KindAccess {
			out = append(out, t)
		}
	}
	for _, c := range capabilities {
		out = append(out, Access(c))
	}
	return out
}

// WithMarker returns ts with ":name:" appended unless already present.
func WithMarker(ts TagSet, name string) TagSet {
	out := append(TagSet{}, ts...)
	if HasMarker(ts, name) {
		return out
	}
	return append(out, Marker(name))
}

// WithoutMarker returns ts with every ":name:" removed.
func WithoutMarker(ts TagSet, name string) TagSet {
	out := make(TagSet, 0, len(ts))
	for _, t := range ts {
		if !t.IsMarker(name) {
			out = append(out, t)
		}
	}
	return out
}

// ContainsAny reports whether ts holds at least one of candidates.
func ContainsAny(ts TagSet, candidates []Tag) bool {
	for _, c := range candidates {
		for _, t := range ts {
			if t.raw == c.raw {
				return true
			}
		}
	}
	return false
}

// ContainsAll reports whether ts holds every one of required.
func ContainsAll(ts TagSet, required []Tag) bool {
	for _, r := range required {
		if !ContainsAny(ts, []Tag{r}) {
			return false
		}
	}
	return true
}

// ContainsNone reports whether ts holds none of excluded.
func ContainsNone(ts TagSet, excluded []Tag) bool {
	return !ContainsAny(ts, excluded)
}

// Strings encodes a plain tag slice, e.g. the required set of a search.
func Strings(tags []Tag) []string {
	return TagSet(tags).Encode()
}
