package model

import "fmt"

// MinutesPerDay bounds course schedule intervals.
const MinutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" wall-clock string into minutes since
// midnight.
func ParseClock(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	if hh < 0 || hh > 24 || mm < 0 || mm > 59 || hh*60+mm > MinutesPerDay {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
