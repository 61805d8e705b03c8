package domain

import (
	"fmt"
	"strings"
	"time"
)

// LowTimeThreshold marks the remaining time under which a countdown turns
// urgent. Never true once expired.
const LowTimeThreshold = 5 * time.Minute

// Countdown is the derived remaining-time view of a listing at one instant.
type Countdown struct {
	Remaining time.Duration `json:"remaining"`
	IsExpired bool          `json:"is_expired"`
	IsLowTime bool          `json:"is_low_time"`
	Display   string        `json:"display"`
}

// CountdownAt derives the countdown for an end time at the given instant.
// Remaining is clamped at zero, so observing at any point yields the same
// value for the same wall clock.
func CountdownAt(endTime, now time.Time) Countdown {
	remaining := endTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return Countdown{
		Remaining: remaining,
		IsExpired: remaining == 0,
		IsLowTime: remaining > 0 && remaining <= LowTimeThreshold,
		Display:   FormatRemaining(remaining),
	}
}

// FormatRemaining renders a remaining duration as zero-padded HH:MM:SS, or as
// a coarser "Nd Nh Mm" form above 24 hours with zero-valued leading units
// omitted.
func FormatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > 24*time.Hour {
		days := int(remaining / (24 * time.Hour))
		hours := int((remaining % (24 * time.Hour)) / time.Hour)
		minutes := int((remaining % time.Hour) / time.Minute)

		var b strings.Builder
		fmt.Fprintf(&b, "%dd", days)
		if hours > 0 {
			fmt.Fprintf(&b, " %dh", hours)
		}
		fmt.Fprintf(&b, " %dm", minutes)
		return b.String()
	}

	totalSeconds := int(remaining / time.Second)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
