package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
	"01/02/2006",
}

var looseDateRe = regexp.MustCompile(`(\d{1,2})[.\-/](\d{1,2})[.\-/](\d{4})`)

// ParseDate parses the date formats invoice layouts emit. Ambiguous
// day/month order resolves by whichever part exceeds 12, defaulting to
// day-first.
func ParseDate(value string) (time.Time, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}

	match := looseDateRe.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}
	part1, _ := strconv.Atoi(match[1])
	part2, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])

	day, month := part1, part2
	if part1 <= 12 && part2 > 12 {
		month, day = part1, part2
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30); reject those.
	if parsed.Day() != day || int(parsed.Month()) != month {
		return time.Time{}, false
	}
	return parsed, true
}

// DaysBetween returns the absolute whole-day distance between two dates.
func DaysBetween(a, b time.Time) int {
	diff := b.Sub(a).Hours() / 24
	if diff < 0 {
		diff = -diff
	}
	return int(diff)
}
