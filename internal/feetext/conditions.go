package feetext

import "strings"

// specialMarkers maps phrase markers to human-readable condition tags.
// Unlike the fee classifier, every matching marker is reported.
var specialMarkers = []struct {
	tag     string
	markers []string
}{
	{"Government/semi-government entities", []string{"حكومية", "شبه حكومية"}},
	{"For private companies", []string{"شركة خاصة"}},
	{"Disciplinary termination cases", []string{"الفصل التأديبي", "فصل تأديبي"}},
	{"Specialized vs non-specialized professions", []string{"تخصصية"}},
	{"Fees collected by another ministry", []string{"وزارة"}},
}

// IdentifySpecialConditions scans a note for the known condition markers
// and returns a semicolon-joined list of tags for every marker found.
func IdentifySpecialConditions(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	var tags []string
	for _, sm := range specialMarkers {
		if containsAny(s, sm.markers...) {
			tags = append(tags, sm.tag)
		}
	}
	return strings.Join(tags, "; ")
}
