package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatHMS renders a duration as H:MM:SS.mmm, the clock format used by
// resolver clients. Negative durations clamp to zero.
func FormatHMS(d time.Duration) string {
	totalMS := int64(math.Round(math.Max(d.Seconds(), 0) * 1000))
	totalSeconds := totalMS / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	milliseconds := totalMS % 1000

	return fmt.Sprintf("%d:%02d:%02d.%03d", hours, minutes, seconds, milliseconds)
}

// FormatISODuration renders a duration in ISO-8601 form (PT1H2M3S). Negative
// durations clamp to PT0S.
func FormatISODuration(d time.Duration) string {
	totalSeconds := math.Max(d.Seconds(), 0)
	seconds := int64(totalSeconds)
	milliseconds := int64(math.Round((totalSeconds - float64(seconds)) * 1000))
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if seconds > 0 || milliseconds > 0 || (hours == 0 && minutes == 0) {
		if milliseconds > 0 {
			fmt.Fprintf(&b, "%d.%03dS", seconds, milliseconds)
		} else {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}

	return b.String()
}

// ProblemLabel converts a zero-based problem index into a bijective base-26
// label: 0 -> "A", 25 -> "Z", 26 -> "AA". It never fails, making it a safe
// fallback when a contest-specific labeler is absent or errors.
func ProblemLabel(index int) string {
	if index < 0 {
		return "A"
	}

	label := ""
	n := index + 1
	for n > 0 {
		n--
		label = string(rune('A'+n%26)) + label
		n /= 26
	}

	return label
}
