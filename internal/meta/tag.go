// Package meta implements the tag encoding stored in an account's meta column.
//
// A tag is one string in one of three shapes:
//
//	:name:              marker, a presence-only fact (":satgas:", ":deleted:")
//	key=value           attribute ("city_id=7"), split at the first '='
//	access.<capability> access grant
//
// Any other string is kept as a raw tag so that decoding and re-encoding a stored
// list reproduces it byte for byte.
package meta

import "strings"

// Kind tag shape.
type Kind int

const (
	KindRaw Kind = iota
	KindMarker
	KindAttribute
	KindAccess
)

const accessPrefix = "access."

// Well-known marker names.
const (
	MarkerSatgas  = "satgas"
	MarkerMedic   = "medic"
	MarkerDeleted = "deleted"
	MarkerBlocked = "blocked"
)

// Well-known attribute keys.
const (
	AttrVillage           = "village"
	AttrVillageID         = "village_id"
	AttrDistrict          = "district"
	AttrDistrictID        = "district_id"
	AttrAreaCode          = "area_code"
	AttrCityName          = "city_name"
	AttrCityID            = "city_id"
	AttrProvinceName      = "province_name"
	AttrAddressByAreaCode = "address_by_area_code"
	AttrAddress           = "address"
)

// Tag decoded meta entry. The zero value is an empty raw tag.
type Tag struct {
	kind  Kind
	name  string // marker name, attribute key or capability
	value string // attribute value
	raw   string
}

// Marker encodes a presence-only fact as ":name:".
func Marker(name string) Tag {
	return Tag{kind: KindMarker, name: name, raw: ":" + name + ":"}
}

// Attribute encodes a key=value fact.
func Attribute(key, value string) Tag {
	return Tag{kind: KindAttribute, name: key, value: value, raw: key + "=" + value}
}

// Access encodes an access grant as "access.<capability>".
func Access(capability string) Tag {
	return Tag{kind: KindAccess, name: capability, raw: accessPrefix + capability}
}

// Parse decodes a single stored string.
func Parse(s string) Tag {
	switch {
	case len(s) >= 2 && s[0] == ':' && s[len(s)-1] == ':':
		return Tag{kind: KindMarker, name: s[1 : len(s)-1], raw: s}
	case strings.HasPrefix(s, accessPrefix):
		return Tag{kind: KindAccess, name: s[len(accessPrefix):], raw: s}
	}
	if i := strings.IndexByte(s, '='); i >= 0 {
		return Tag{kind: KindAttribute, name: s[:i], value: s[i+1:], raw: s}
	}
	return Tag{kind: KindRaw, raw: s}
}

func (t Tag) Kind() Kind { return t.kind }

// Name marker name, attribute key or capability; empty for raw tags.
func (t Tag) Name() string { return t.name }

// Value attribute value; empty for other kinds.
func (t Tag) Value() string { return t.value }

// String returns the stored encoding.
func (t Tag) String() string { return t.raw }

// IsMarker reports whether t is the marker ":name:".
func (t Tag) IsMarker(name string) bool {
	return t.kind == KindMarker && t.name == name
}

// IsAccess reports whether t grants capability.
func (t Tag) IsAccess(capability string) bool {
	return t.kind == KindAccess && t.name == capability
}
