package domain

import "strings"

// SubReportStatus status of a reported person as used in search filters (`status:odp`).
type SubReportStatus int

const (
	SubReportStatusOther SubReportStatus = iota
	SubReportStatusODP
	SubReportStatusPDP
	SubReportStatusOTG
	SubReportStatusPositive
	SubReportStatusRecovered
	SubReportStatusDeath
	SubReportStatusNegative
)

var subReportStatusNames = map[SubReportStatus]string{
	SubReportStatusOther:     "other",
	SubReportStatusODP:       "odp",
	SubReportStatusPDP:       "pdp",
	SubReportStatusOTG:       "otg",
	SubReportStatusPositive:  "positive",
	SubReportStatusRecovered: "recovered",
	SubReportStatusDeath:     "death",
	SubReportStatusNegative:  "negative",
}

// ParseSubReportStatus decodes a status keyword. Unknown values decode to
// SubReportStatusOther, never an error.
func ParseSubReportStatus(s string) SubReportStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "odp":
		return SubReportStatusODP
	case "pdp":
		return SubReportStatusPDP
	case "otg":
		return SubReportStatusOTG
	case "positive", "positif":
		return SubReportStatusPositive
	case "recovered", "sembuh":
		return SubReportStatusRecovered
	case "death", "meninggal":
		return SubReportStatusDeath
	case "negative", "negatif":
		return SubReportStatusNegative
	default:
		return SubReportStatusOther
	}
}

func (s SubReportStatus) String() string {
	if n, ok := subReportStatusNames[s]; ok {
		return n
	}
	return "other"
}
