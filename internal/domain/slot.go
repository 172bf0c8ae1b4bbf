package domain

import "github.com/glowly/booking-service/pkg/types"

// DayPart presentation grouping of slots; carries no business meaning
// and never affects the availability computation
type DayPart string

const (
	DayPartMorning   DayPart = "morning"   // before 12:00
	DayPartAfternoon DayPart = "afternoon" // 12:00 - 17:00
	DayPartEvening   DayPart = "evening"   // 17:00 and later
)

// DayPartFor returns the presentation day part for a slot start time
func DayPartFor(t types.TimeString) DayPart {
	switch {
	case t.IsBefore("12:00"):
		return DayPartMorning
	case t.IsBefore("17:00"):
		return DayPartAfternoon
	default:
		return DayPartEvening
	}
}

// TimeSlot represents a bookable start time for a salon and date
// Derived, never stored: recomputed from salon hours and active bookings
type TimeSlot struct {
	StartTime       types.TimeString
	DurationMinutes int
	Available       bool
	DayPart         DayPart
}
