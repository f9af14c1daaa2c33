package member

import "time"

// Status is the membership state derived from membershipEnd and today.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDueSoon Status = "DUE_SOON"
	StatusExpired Status = "EXPIRED"
)

const (
	// RenewalPeriodDays is added on every renewal regardless of the amount paid.
	RenewalPeriodDays = 30
	// DueSoonDays is the inclusive window before expiry reported as DUE_SOON.
	DueSoonDays = 5
)

// Today is the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// StatusOf derives the membership status for a period ending on end.
func StatusOf(end, today Date) Status {
	diff := today.DaysUntil(end)
	switch {
	case diff < 0:
		return StatusExpired
	case diff <= DueSoonDays:
		return StatusDueSoon
	default:
		return StatusActive
	}
}

// RenewalEnd extends from the later of end and today. Early renewals keep
// the remaining days, late renewals start over from today.
func RenewalEnd(end, today Date) Date {
	base := today
	if end.After(today) {
		base = end
	}
	return base.AddDays(RenewalPeriodDays)
}

// ViewOf decorates m with its status as of today.
func ViewOf(m Member, today Date) View {
	return View{
		Member:   m,
		Status:   StatusOf(m.MembershipEnd, today),
		DaysLeft: today.DaysUntil(m.MembershipEnd),
	}
}
