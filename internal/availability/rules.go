package availability

import (
	"fmt"
	"time"

	"slotwise/internal/catalog"

	"github.com/google/uuid"
)

// Reason identifies why a candidate slot was rejected
type Reason string

const (
	ReasonCapacityExceeded   Reason = "capacity_exceeded"
	ReasonPastDate           Reason = "past_date"
	ReasonOutOfAdvanceWindow Reason = "out_of_advance_window"
	ReasonDailyQuotaExceeded Reason = "daily_quota_exceeded"
	ReasonStaffConflict      Reason = "staff_conflict"
	ReasonBufferTimeConflict Reason = "buffer_time_conflict"
)

// Candidate is a requested slot under evaluation
type Candidate struct {
	OfferingID    uuid.UUID
	StaffMemberID *uuid.UUID
	Date          time.Time // calendar day, time component ignored
	StartMinute   int
	EndMinute     int
	Participants  int
}

// ExistingBooking is the snapshot of one live booking on the candidate's day
type ExistingBooking struct {
	BookingID     uuid.UUID
	OfferingID    uuid.UUID
	StaffMemberID *uuid.UUID
	StartMinute   int
	EndMinute     int
}

// Decision is the outcome of a rule evaluation
type Decision struct {
	Allowed       bool   `json:"available"`
	Reason        Reason `json:"reason,omitempty"`
	Detail        string `json:"detail,omitempty"`
	ConflictCount int    `json:"conflicting_bookings_count"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func reject(reason Reason, detail string, conflicts int) Decision {
	return Decision{Reason: reason, Detail: detail, ConflictCount: conflicts}
}

// Check runs the booking admission rules in order and short-circuits on the
// first failure. It is a pure function over the day snapshot: callers decide
// where the snapshot comes from, and the database exclusion constraint
// remains the final arbiter under concurrency.
func Check(cand Candidate, offering *catalog.ServiceOffering, schedule []ExistingBooking, now time.Time) Decision {
	if d := checkCapacity(cand, offering); !d.Allowed {
		return d
	}
	if d := checkDateWindow(cand, offering, now); !d.Allowed {
		return d
	}
	if d := checkDailyQuota(cand, offering, schedule); !d.Allowed {
		return d
	}
	if d := checkStaffConflict(cand, schedule); !d.Allowed {
		return d
	}
	if d := checkBufferConflict(cand, offering, schedule); !d.Allowed {
		return d
	}
	return allow()
}

func checkCapacity(cand Candidate, offering *catalog.ServiceOffering) Decision {
	if cand.Participants < 1 {
		return reject(ReasonCapacityExceeded, "participants must be at least 1", 0)
	}
	if offering.MaxParticipants != nil && cand.Participants > *offering.MaxParticipants {
		return reject(ReasonCapacityExceeded,
			fmt.Sprintf("requested %d participants, maximum is %d", cand.Participants, *offering.MaxParticipants), 0)
	}
	return allow()
}

func checkDateWindow(cand Candidate, offering *catalog.ServiceOffering, now time.Time) Decision {
	today := truncateToDay(now)
	day := truncateToDay(cand.Date)

	if day.Before(today) {
		return reject(ReasonPastDate, "cannot book a past date", 0)
	}
	if day.Equal(today) {
		nowMinute := now.Hour()*60 + now.Minute()
		if cand.StartMinute <= nowMinute {
			return reject(ReasonPastDate, "slot start has already passed", 0)
		}
	}

	if offering.AdvanceBookingDays != nil {
		horizon := today.AddDate(0, 0, *offering.AdvanceBookingDays)
		if day.After(horizon) {
			return reject(ReasonOutOfAdvanceWindow,
				fmt.Sprintf("bookings open at most %d days in advance", *offering.AdvanceBookingDays), 0)
		}
	}

	return allow()
}

func checkDailyQuota(cand Candidate, offering *catalog.ServiceOffering, schedule []ExistingBooking) Decision {
	if offering.MaxBookingsPerDay == nil {
		return allow()
	}
	count := 0
	for _, b := range schedule {
		if b.OfferingID == cand.OfferingID {
			count++
		}
	}
	// The candidate is not in the snapshot, so a day holding the maximum is
	// already full.
	if count >= *offering.MaxBookingsPerDay {
		return reject(ReasonDailyQuotaExceeded,
			fmt.Sprintf("daily limit of %d bookings reached", *offering.MaxBookingsPerDay), count)
	}
	return allow()
}

func checkStaffConflict(cand Candidate, schedule []ExistingBooking) Decision {
	if cand.StaffMemberID == nil {
		return allow()
	}
	conflicts := 0
	for _, b := range schedule {
		if b.StaffMemberID == nil || *b.StaffMemberID != *cand.StaffMemberID {
			continue
		}
		if overlaps(b.StartMinute, b.EndMinute, cand.StartMinute, cand.EndMinute) {
			conflicts++
		}
	}
	if conflicts > 0 {
		return reject(ReasonStaffConflict, "staff member already booked in this slot", conflicts)
	}
	return allow()
}

// checkBufferConflict extends each existing booking by the offering's buffers
// and retests the raw candidate interval against the widened windows. Two
// passes: the chosen staff member's own calendar first, then every live
// booking of the same offering regardless of staff, so buffers hold even when
// different staff serve back-to-back slots.
func checkBufferConflict(cand Candidate, offering *catalog.ServiceOffering, schedule []ExistingBooking) Decision {
	if !offering.HasBuffer() {
		return allow()
	}

	padded := func(b ExistingBooking) (int, int) {
		return b.StartMinute - offering.BufferBeforeMin, b.EndMinute + offering.BufferAfterMin
	}

	conflicts := 0
	for _, b := range schedule {
		staffMatch := cand.StaffMemberID != nil && b.StaffMemberID != nil &&
			*b.StaffMemberID == *cand.StaffMemberID
		if !staffMatch {
			continue
		}
		start, end := padded(b)
		if overlaps(start, end, cand.StartMinute, cand.EndMinute) {
			conflicts++
		}
	}

	for _, b := range schedule {
		if b.OfferingID != cand.OfferingID {
			continue
		}
		// Skip intervals already counted in the staff pass
		if cand.StaffMemberID != nil && b.StaffMemberID != nil && *b.StaffMemberID == *cand.StaffMemberID {
			continue
		}
		start, end := padded(b)
		if overlaps(start, end, cand.StartMinute, cand.EndMinute) {
			conflicts++
		}
	}

	if conflicts > 0 {
		return reject(ReasonBufferTimeConflict, "slot violates required buffer time around an existing booking", conflicts)
	}
	return allow()
}

// overlaps is the half-open interval test: [aStart, aEnd) meets [bStart, bEnd)
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
