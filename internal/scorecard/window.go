package scorecard

import "strings"

// FormatWindow renders a from/to window. When both ends share a date the date
// is printed once: "01/05/2025 08:00:00 - 10:00:00".
func FormatWindow(from, to string) string {
	fromDate, fromTime, okFrom := strings.Cut(from, " ")
	toDate, toTime, okTo := strings.Cut(to, " ")
	if okFrom && okTo && fromDate == toDate {
		return fromDate + " " + fromTime + " - " + toTime
	}
	return from + " - " + to
}
