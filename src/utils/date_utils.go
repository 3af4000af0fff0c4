package utils

import "time"

// Entry dates are stored as fixed-width ISO strings so lexicographic
// comparison orders them chronologically.
const DateFormat = "2006-01-02"

// ValidDate reports whether s is a well-formed YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}

// Today returns the current calendar date in ISO form.
func Today() string {
	return time.Now().Format(DateFormat)
}
