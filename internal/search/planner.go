// Package search turns a raw admin query plus caller scope into a storage-agnostic
// search request. It performs no I/O.
package search

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
	"satgas-data/internal/query"
)

// PlanParams caller input of Plan.
type PlanParams struct {
	RawQuery string
	Required []meta.Tag // role/scope tags every result must carry
	Excluded []meta.Tag // tags no result may carry
	Offset   int64
	Limit    int64
}

// SearchRequest what the storage layer executes.
type SearchRequest struct {
	// Query residual free text; empty means no keyword filter.
	Query       string
	VillageName *string
	Required    []meta.Tag
	Excluded    []meta.Tag
	Offset      int64
	Limit       int64
}

// Plan parses RawQuery and assembles the request. An empty query yields an unfiltered
// listing of everything in scope.
func Plan(p PlanParams) SearchRequest {
	parsed := query.Parse(p.RawQuery)

	req := SearchRequest{
		Query:    parsed.Query,
		Required: append([]meta.Tag(nil), p.Required...),
		Excluded: append([]meta.Tag(nil), p.Excluded...),
		Offset:   p.Offset,
		Limit:    p.Limit,
	}
	if parsed.VillageName != nil {
		v := TitleCase(*parsed.VillageName)
		req.VillageName = &v
	}
	return req
}

// TitleCase upper-cases the first letter of each word and lower-cases the rest.
func TitleCase(s string) string {
	return cases.Title(language.Indonesian).String(s)
}

// SatgasScope required tags for a satgas search by the given admin: the satgas
// marker, plus the admin's city unless the admin is the super admin. An admin without
// a city is scoped to city 0 and sees nothing.
func SatgasScope(adminID int64, adminMeta meta.TagSet) []meta.Tag {
	tags := []meta.Tag{meta.Marker(meta.MarkerSatgas)}
	if adminID != domain.SuperAdminID {
		cityID, _ := meta.GetIntAttribute(adminMeta, meta.AttrCityID)
		tags = append(tags, meta.Attribute(meta.AttrCityID, strconv.FormatInt(cityID, 10)))
	}
	return tags
}

// NotDeleted excluded set hiding soft-deleted accounts.
func NotDeleted() []meta.Tag {
	return []meta.Tag{meta.Marker(meta.MarkerDeleted)}
}
