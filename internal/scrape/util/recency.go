package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reRelShort = regexp.MustCompile(`(?i)^(\d+)\s*(mo|d|h|w)$`)
	reRelAgo   = regexp.MustCompile(`(?i)^(\d+)\s*(day|hour|week|month)s?\s+ago$`)

	reSlashDate = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	reISODate   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	reLongDate  = regexp.MustCompile(`\b([A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})\b`)
	reShortDate = regexp.MustCompile(`\b([A-Za-z]{3,9}\.?\s+\d{1,2})\b`)
)

var (
	longLayouts  = []string{"January 2 2006", "Jan 2 2006"}
	shortLayouts = []string{"Jan 2", "January 2"}
)

// ParseRecency turns a recency token ("14d", "3 days ago", "03/14/2025",
// "Mar 14") into a day-granular date relative to now. Absent or unparseable
// tokens report false; callers sort those as oldest.
func ParseRecency(text string, now time.Time) (time.Time, bool) {
	token := CleanText(text)
	if token == "" {
		return time.Time{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := reRelShort.FindStringSubmatch(token); m != nil {
		return relative(today, m[1], m[2])
	}
	if m := reRelAgo.FindStringSubmatch(token); m != nil {
		return relative(today, m[1], m[2])
	}

	loc := now.Location()
	for _, m := range reSlashDate.FindAllString(token, -1) {
		if t, err := time.ParseInLocation("1/2/2006", m, loc); err == nil {
			return t, true
		}
	}
	for _, m := range reISODate.FindAllString(token, -1) {
		if t, err := time.ParseInLocation("2006-01-02", m, loc); err == nil {
			return t, true
		}
	}
	for _, m := range reLongDate.FindAllString(token, -1) {
		if t, ok := parseMonthDay(m, longLayouts, loc); ok {
			return t, true
		}
	}
	for _, m := range reShortDate.FindAllString(token, -1) {
		if t, ok := parseMonthDay(m, shortLayouts, loc); ok {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// LooksLikeDate is the content sniff used by the pipe extractor.
func LooksLikeDate(text string, now time.Time) bool {
	_, ok := ParseRecency(text, now)
	return ok
}

func relative(today time.Time, count, unit string) (time.Time, bool) {
	n, err := strconv.Atoi(count)
	if err != nil || n > 100000 {
		return time.Time{}, false
	}
	switch strings.ToLower(unit) {
	case "d", "day":
		return today.AddDate(0, 0, -n), true
	case "h", "hour":
		return today.AddDate(0, 0, -(n / 24)), true
	case "w", "week":
		return today.AddDate(0, 0, -7*n), true
	case "mo", "month":
		return today.AddDate(0, -n, 0), true
	}
	return time.Time{}, false
}

func parseMonthDay(s string, layouts []string, loc *time.Location) (time.Time, bool) {
	s = strings.NewReplacer(",", " ", ".", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if strings.HasPrefix(strings.ToLower(s), "sept ") {
		s = "Sep" + s[4:]
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
