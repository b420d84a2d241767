package importer

import (
	"regexp"
	"time"
)

// dayFirstPattern matches dd-mm-yyyy, the most common manual entry format
// in imported sheets.
var dayFirstPattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

// dateLayouts are the formats a cell may carry after normalization.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// normalizeDate rewrites dd-mm-yyyy to yyyy-mm-dd and leaves any other
// shape untouched.
func normalizeDate(s string) string {
	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	return s
}

// parseDate reports whether s (already normalized) is a real calendar date.
// time.Parse rejects impossible dates such as 2026-02-31, so no extra
// range checking is needed.
func parseDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
