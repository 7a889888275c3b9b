package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// futureSlack tolerates posted dates slightly ahead of the local clock.
const futureSlack = 2 * 24 * time.Hour

var (
	isoDateRegex   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})`)
	slashDateRegex = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	wordDateRegex  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[\s-]+([a-z]{3,9})\.?[\s,-]+(\d{4})\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate reads the date formats listing sites print: "30 Nov 2026",
// "Monday 30 November 2026", "30-Nov-2026", "30/11/2026" (day first) and
// "2026-11-30". The result is midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	//Case 1: ISO "2026-11-30" or 2026-11-30T...
	if m := isoDateRegex.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3], loc)
	}

	//Case 2: dd/mm/yyyy
	if m := slashDateRegex.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1], loc)
	}

	//Case 3: "30 Nov 2026", "Monday, 30th November 2026"
	if m := wordDateRegex.FindStringSubmatch(s); m != nil {
		name := strings.ToLower(m[2])
		month, ok := months[name[:3]]
		if !ok {
			return time.Time{}, false
		}
		return buildDate(m[3], strconv.Itoa(int(month)), m[1], loc)
	}
	return time.Time{}, false
}

func buildDate(year, month, day string, loc *time.Location) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	//reject 31/02 and friends instead of rolling over
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// IsClosed reports whether a posting closed before now. Applications stay
// open for the whole closing day. Unreadable dates count as open.
func IsClosed(closingDate string, now time.Time) bool {
	closing, ok := ParseDate(closingDate, now.Location())
	if !ok {
		return false
	}
	return !now.Before(closing.AddDate(0, 0, 1))
}

// IsRecent reports whether a posting is at most maxAge old. Unreadable dates
// and maxAge <= 0 count as recent.
func IsRecent(postedDate string, now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return true
	}
	posted, ok := ParseDate(postedDate, now.Location())
	if !ok {
		return true
	}
	diff := now.Sub(posted)
	//reject if older than maxAge
	if diff > maxAge {
		return false
	}
	//reject if future date > 2 days (timezone issues)
	if diff < -futureSlack {
		return false
	}
	return true
}
