package venue

import "github.com/google/uuid"

// Overlaps is the half-open interval test: [from1,to1) and [from2,to2)
// intersect iff from1 < to2 and to1 > from2. Touching ranges do not.
func Overlaps(from1, to1, from2, to2 ClockTime) bool {
	return from1.Before(to2) && to1.After(from2)
}

// FindConflicts returns the bookings whose range overlaps [from, to),
// skipping excludeID. Callers pass the bookings of one company and date.
func FindConflicts(bookings []FunctionBooking, from, to ClockTime, excludeID *uuid.UUID) []FunctionBooking {
	var out []FunctionBooking
	for _, b := range bookings {
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out
}
