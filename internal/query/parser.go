// Package query parses the admin search box into field filters and free text.
//
// The input is split on single spaces. Tokens of the form key:value with a known key
// become filters; every token containing ':' is removed from the free text,
// including tokens whose key is unknown.
package query

import (
	"strconv"
	"strings"

	"satgas-data/internal/domain"
)

// Recognized filter keys.
const (
	KeyName             = "nama"
	KeyResidenceAddress = "tt"
	KeyAge              = "umur"
	KeyGender           = "jk"
	KeyComeFrom         = "dari"
	KeyStatus           = "status"
	KeyVillage          = "desa"
	KeyDistrict         = "kcm"
)

// ParsedQuery decoded search string. Nil fields were not given.
type ParsedQuery struct {
	// Name is the raw token: either the first unlabelled word or a whole "nama:..."
	// token, whichever comes first.
	Name             *string
	ResidenceAddress *string
	Age              *int
	Gender           *string
	ComeFrom         *string
	Status           *domain.SubReportStatus
	VillageName      *string
	DistrictName     *string

	// Query is the input without any token containing ':', joined by single spaces.
	Query string
}

// Parse never fails: a bad umur value or unknown key is dropped silently and an
// unknown status decodes to domain.SubReportStatusOther.
func Parse(raw string) ParsedQuery {
	tokens := strings.Split(raw, " ")

	pq := ParsedQuery{
		Name:             findName(tokens),
		ResidenceAddress: valueOf(tokens, KeyResidenceAddress),
		Gender:           valueOf(tokens, KeyGender),
		ComeFrom:         valueOf(tokens, KeyComeFrom),
		VillageName:      valueOf(tokens, KeyVillage),
		DistrictName:     valueOf(tokens, KeyDistrict),
	}

	if v := valueOf(tokens, KeyAge); v != nil {
		// int32 range; anything larger is dropped like any other bad value
		if n, err := strconv.ParseInt(*v, 10, 32); err == nil {
			age := int(n)
			pq.Age = &age
		}
	}
	if v := valueOf(tokens, KeyStatus); v != nil {
		st := domain.ParseSubReportStatus(*v)
		pq.Status = &st
	}

	rest := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !strings.Contains(tok, ":") {
			rest = append(rest, tok)
		}
	}
	pq.Query = strings.Join(rest, " ")

	return pq
}

// findName picks the first token that is unlabelled or starts with "nama:". An early
// unlabelled word therefore wins over a later nama: token.
func findName(tokens []string) *string {
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if !strings.Contains(tok, ":") || strings.HasPrefix(tok, KeyName+":") {
			name := tok
			return &name
		}
	}
	return nil
}

// valueOf returns the value of the first key:value token.
func valueOf(tokens []string, key string) *string {
	prefix := key + ":"
	for _, tok := range tokens {
		if strings.HasPrefix(tok, prefix) {
			v := tok[len(prefix):]
			return &v
		}
	}
	return nil
}
