package availability

import (
	"math/rand"
	"testing"
	"time"

	"slotwise/internal/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday 09:00

func intPtr(v int) *int { return &v }

func offering(mutate ...func(*catalog.ServiceOffering)) *catalog.ServiceOffering {
	o := &catalog.ServiceOffering{
		ID:              uuid.New(),
		DurationMinutes: 30,
	}
	for _, m := range mutate {
		m(o)
	}
	return o
}

func candidate(o *catalog.ServiceOffering, date time.Time, start, end int) Candidate {
	return Candidate{
		OfferingID:   o.ID,
		Date:         date,
		StartMinute:  start,
		EndMinute:    end,
		Participants: 1,
	}
}

func TestCheck_EmptyDayIsAvailable(t *testing.T) {
	o := offering()
	cand := candidate(o, testNow.AddDate(0, 0, 1), 600, 630)

	d := Check(cand, o, nil, testNow)

	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
	assert.Zero(t, d.ConflictCount)
}

func TestCheck_CapacityExceeded(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) { o.MaxParticipants = intPtr(4) })
	cand := candidate(o, testNow.AddDate(0, 0, 1), 600, 630)
	cand.Participants = 5

	d := Check(cand, o, nil, testNow)

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonCapacityExceeded, d.Reason)
}

func TestCheck_ExactCapacityAllowed(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) { o.MaxParticipants = intPtr(4) })
	cand := candidate(o, testNow.AddDate(0, 0, 1), 600, 630)
	cand.Participants = 4

	d := Check(cand, o, nil, testNow)

	assert.True(t, d.Allowed)
}

func TestCheck_PastDate(t *testing.T) {
	o := offering()
	cand := candidate(o, testNow.AddDate(0, 0, -1), 600, 630)

	d := Check(cand, o, nil, testNow)

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPastDate, d.Reason)
}

func TestCheck_SameDayElapsedSlot(t *testing.T) {
	o := offering()
	// 08:00 slot on the same day, checked at 09:00
	cand := candidate(o, testNow, 480, 510)

	d := Check(cand, o, nil, testNow)

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPastDate, d.Reason)
}

func TestCheck_SameDayFutureSlotAllowed(t *testing.T) {
	o := offering()
	cand := candidate(o, testNow, 900, 930) // 15:00 later today

	d := Check(cand, o, nil, testNow)

	assert.True(t, d.Allowed)
}

func TestCheck_AdvanceWindow(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) { o.AdvanceBookingDays = intPtr(14) })

	within := candidate(o, testNow.AddDate(0, 0, 14), 600, 630)
	assert.True(t, Check(within, o, nil, testNow).Allowed, "day 14 is the last open day")

	beyond := candidate(o, testNow.AddDate(0, 0, 15), 600, 630)
	d := Check(beyond, o, nil, testNow)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOutOfAdvanceWindow, d.Reason)
}

func TestCheck_DailyQuota(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) { o.MaxBookingsPerDay = intPtr(2) })
	date := testNow.AddDate(0, 0, 1)

	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: o.ID, StartMinute: 540, EndMinute: 570},
	}
	d := Check(candidate(o, date, 600, 630), o, schedule, testNow)
	assert.True(t, d.Allowed, "second booking of the day fits a quota of 2")

	schedule = append(schedule, ExistingBooking{
		BookingID: uuid.New(), OfferingID: o.ID, StartMinute: 600, EndMinute: 630,
	})
	d = Check(candidate(o, date, 660, 690), o, schedule, testNow)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyQuotaExceeded, d.Reason)
	assert.Equal(t, 2, d.ConflictCount)
}

func TestCheck_DailyQuotaIgnoresOtherOfferings(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) { o.MaxBookingsPerDay = intPtr(1) })
	date := testNow.AddDate(0, 0, 1)

	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: uuid.New(), StartMinute: 540, EndMinute: 570},
	}

	d := Check(candidate(o, date, 600, 630), o, schedule, testNow)
	assert.True(t, d.Allowed)
}

func TestCheck_StaffConflict(t *testing.T) {
	o := offering()
	date := testNow.AddDate(0, 0, 1)
	staffID := uuid.New()

	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: o.ID, StaffMemberID: &staffID, StartMinute: 600, EndMinute: 660},
	}

	cand := candidate(o, date, 630, 690)
	cand.StaffMemberID = &staffID

	d := Check(cand, o, schedule, testNow)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonStaffConflict, d.Reason)
	assert.Equal(t, 1, d.ConflictCount)
}

func TestCheck_BackToBackSlotsDoNotConflict(t *testing.T) {
	o := offering()
	date := testNow.AddDate(0, 0, 1)
	staffID := uuid.New()

	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: o.ID, StaffMemberID: &staffID, StartMinute: 600, EndMinute: 630},
	}

	cand := candidate(o, date, 630, 660)
	cand.StaffMemberID = &staffID

	assert.True(t, Check(cand, o, schedule, testNow).Allowed,
		"half-open intervals let one slot end where the next begins")
}

func TestCheck_OtherStaffSameSlotAllowed(t *testing.T) {
	o := offering()
	date := testNow.AddDate(0, 0, 1)
	alice, bob := uuid.New(), uuid.New()

	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: uuid.New(), StaffMemberID: &alice, StartMinute: 600, EndMinute: 660},
	}

	cand := candidate(o, date, 600, 660)
	cand.StaffMemberID = &bob

	assert.True(t, Check(cand, o, schedule, testNow).Allowed)
}

func TestCheck_BufferAppliesAcrossStaffForSameOffering(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) {
		o.BufferBeforeMin = 10
		o.BufferAfterMin = 10
	})
	date := testNow.AddDate(0, 0, 1)
	alice, bob := uuid.New(), uuid.New()

	// Alice holds 10:00-10:30; Bob's 10:35 start falls inside the 10 minute
	// tail buffer of the same offering.
	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: o.ID, StaffMemberID: &alice, StartMinute: 600, EndMinute: 630},
	}

	cand := candidate(o, date, 635, 660)
	cand.StaffMemberID = &bob

	d := Check(cand, o, schedule, testNow)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonBufferTimeConflict, d.Reason)
	assert.Equal(t, 1, d.ConflictCount)
}

func TestCheck_BufferClearsOnDifferentDay(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) {
		o.BufferBeforeMin = 10
		o.BufferAfterMin = 10
	})

	// Same minutes, different day: the snapshot for that day is empty
	cand := candidate(o, testNow.AddDate(0, 0, 2), 635, 660)
	bob := uuid.New()
	cand.StaffMemberID = &bob

	assert.True(t, Check(cand, o, nil, testNow).Allowed)
}

func TestCheck_BufferStaffOwnCalendarAnyOffering(t *testing.T) {
	o := offering(func(o *catalog.ServiceOffering) {
		o.BufferBeforeMin = 0
		o.BufferAfterMin = 15
	})
	date := testNow.AddDate(0, 0, 1)
	staffID := uuid.New()

	// The staff member has a booking for a different offering ending at 10:00;
	// its 15 minute tail buffer pushes the earliest next start to 10:15.
	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: uuid.New(), StaffMemberID: &staffID, StartMinute: 540, EndMinute: 600},
	}

	cand := candidate(o, date, 605, 635)
	cand.StaffMemberID = &staffID

	d := Check(cand, o, schedule, testNow)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonBufferTimeConflict, d.Reason)
}

func TestCheck_RuleOrderShortCircuits(t *testing.T) {
	// A candidate violating several rules reports the first one checked
	o := offering(func(o *catalog.ServiceOffering) {
		o.MaxParticipants = intPtr(2)
		o.MaxBookingsPerDay = intPtr(1)
	})
	staffID := uuid.New()

	schedule := []ExistingBooking{
		{BookingID: uuid.New(), OfferingID: o.ID, StaffMemberID: &staffID, StartMinute: 600, EndMinute: 660},
	}

	cand := candidate(o, testNow.AddDate(0, 0, -1), 600, 660)
	cand.Participants = 5
	cand.StaffMemberID = &staffID

	d := Check(cand, o, schedule, testNow)
	assert.Equal(t, ReasonCapacityExceeded, d.Reason)
}

func TestOverlaps_Randomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		aStart := rng.Intn(1380)
		aEnd := aStart + 1 + rng.Intn(120)
		bStart := rng.Intn(1380)
		bEnd := bStart + 1 + rng.Intn(120)

		got := overlaps(aStart, aEnd, bStart, bEnd)

		// Brute-force reference: do the half-open ranges share a minute?
		want := false
		for m := aStart; m < aEnd; m++ {
			if m >= bStart && m < bEnd {
				want = true
				break
			}
		}

		assert.Equal(t, want, got, "intervals [%d,%d) vs [%d,%d)", aStart, aEnd, bStart, bEnd)
		assert.Equal(t, got, overlaps(bStart, bEnd, aStart, aEnd), "overlap must be symmetric")
	}
}
