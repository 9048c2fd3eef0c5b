package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ParseWeekKey accepts "2025-W05", "2025-w5" or a bare week number. A bare
// number is taken as a week of defaultYear.
func ParseWeekKey(s string, defaultYear int) (WeekKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WeekKey{}, errors.New("empty week")
	}

	year := defaultYear
	weekPart := s
	if i := strings.IndexAny(s, "wW"); i >= 0 {
		yearPart := strings.TrimSuffix(s[:i], "-")
		weekPart = s[i+1:]
		y, err := strconv.Atoi(yearPart)
		if err != nil {
			return WeekKey{}, errors.Errorf("invalid week year %q", s)
		}
		year = y
	}

	w, err := strconv.Atoi(weekPart)
	if err != nil {
		return WeekKey{}, errors.Errorf("invalid week %q", s)
	}
	if w < 1 || w > weeksInYear(year) {
		return WeekKey{}, errors.Errorf("week %d out of range for %d", w, year)
	}
	return WeekKey{Year: year, Week: w}, nil
}

func ParseWeekKeys(items []string, defaultYear int) ([]WeekKey, error) {
	out := make([]WeekKey, 0, len(items))
	seen := make(map[WeekKey]struct{}, len(items))
	for _, it := range items {
		k, err := ParseWeekKey(it, defaultYear)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// DefaultWeeks returns the previous and the current ISO week relative to now.
func DefaultWeeks(now time.Time) []WeekKey {
	return []WeekKey{WeekOf(now.AddDate(0, 0, -7)), WeekOf(now)}
}

// Dec 28 always falls in the last ISO week of its year.
func weeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}
