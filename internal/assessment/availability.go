package assessment

import (
	"fmt"
	"time"
)

// Availability is the student-facing state of an assessment window.
type Availability int

const (
	Upcoming Availability = iota
	Active
	Ended
	Submitted
)

func (a Availability) String() string {
	switch a {
	case Upcoming:
		return "Upcoming"
	case Active:
		return "Active"
	case Ended:
		return "Ended"
	case Submitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// AvailabilityAt classifies a student assessment at now. A submitted
// assessment stays Submitted regardless of its window.
func AvailabilityAt(a StudentAssessment, now time.Time) Availability {
	if a.Submitted() {
		return Submitted
	}
	return WindowAt(a.StartDatetime, a.EndDatetime, now)
}

// WindowAt classifies now against a [start, end] window.
func WindowAt(start, end, now time.Time) Availability {
	switch {
	case now.Before(start):
		return Upcoming
	case now.After(end):
		return Ended
	default:
		return Active
	}
}

// TimeRemaining renders the time left until end in whole days or hours.
func TimeRemaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "Ended"
	}
	days := int(diff / (24 * time.Hour))
	if days > 0 {
		return fmt.Sprintf("%d %s remaining", days, plural(days, "day"))
	}
	hours := int(diff / time.Hour)
	if hours > 0 {
		return fmt.Sprintf("%d %s remaining", hours, plural(hours, "hour"))
	}
	return "Less than 1 hour remaining"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
