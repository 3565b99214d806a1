// Package matching computes weighted multi-criteria match scores between a
// student's stated preferences and tutor profiles, and ranks the results
// deterministically.
package matching

import (
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY WINDOW
// ══════════════════════════════════════════════════════════════════════════════

// Minutes in a day; window bounds are minutes since midnight.
const minutesPerDay = 24 * 60

// Weekday follows the marketplace convention: 0 = Monday .. 6 = Sunday.
type Weekday int

// IsValid checks the weekday range.
func (w Weekday) IsValid() bool {
	return w >= 0 && w <= 6
}

// Window is a weekly availability slot: a weekday plus a half-open time
// interval [Start, End) in minutes since midnight.
type Window struct {
	// Day - day of week, 0 = Monday.
	Day Weekday

	// Start - start of the slot, minutes since midnight.
	Start int

	// End - end of the slot, minutes since midnight. Must exceed Start.
	End int
}

// IsValid checks the window invariants.
func (w Window) IsValid() bool {
	return w.Day.IsValid() && w.Start >= 0 && w.End <= minutesPerDay && w.Start < w.End
}

// Length returns the window length in minutes.
func (w Window) Length() int {
	return w.End - w.Start
}

// Overlap returns the intersection length in minutes with another window.
// Windows on different weekdays never overlap.
func (w Window) Overlap(other Window) int {
	if w.Day != other.Day {
		return 0
	}
	start := w.Start
	if other.Start > start {
		start = other.Start
	}
	end := w.End
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT CRITERIA
// ══════════════════════════════════════════════════════════════════════════════

// Default preferred price range of the marketplace (KRW per hour).
const (
	DefaultRateMin = 18000
	DefaultRateMax = 50000
)

// StudentCriteria is what a student is looking for: one subject, one region,
// an hourly-rate range, and a set of weekly availability windows.
type StudentCriteria struct {
	// Subject - the requested subject. Mandatory; also a hard filter.
	Subject shared.SubjectID

	// Region - the student's region.
	Region shared.RegionID

	// RateMin, RateMax - acceptable hourly rate range, inclusive.
	RateMin int64
	RateMax int64

	// Availability - when the student can take lessons. May be empty;
	// an empty set simply earns no availability credit.
	Availability []Window
}

// DefaultCriteria returns criteria with the marketplace's default rate range.
func DefaultCriteria(subject shared.SubjectID, region shared.RegionID) StudentCriteria {
	return StudentCriteria{
		Subject: subject,
		Region:  region,
		RateMin: DefaultRateMin,
		RateMax: DefaultRateMax,
	}
}

// Validate checks the criteria invariants.
func (c StudentCriteria) Validate() error {
	if !c.Subject.IsValid() {
		return shared.ErrEmptySubject
	}
	if c.RateMin < 0 || c.RateMax < 0 {
		return shared.WrapError("matching", "Validate", shared.ErrNegativeValue, "rate bounds cannot be negative", nil)
	}
	if c.RateMin > c.RateMax {
		return shared.ErrInvertedRateRange
	}
	for _, w := range c.Availability {
		if !w.IsValid() {
			return shared.ErrInvalidWindow
		}
	}
	return nil
}

// TotalAvailabilityMinutes returns the summed length of all criteria windows.
func (c StudentCriteria) TotalAvailabilityMinutes() int {
	total := 0
	for _, w := range c.Availability {
		total += w.Length()
	}
	return total
}

// ══════════════════════════════════════════════════════════════════════════════
// TUTOR PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// TutorProfile is the profile collaborator's view of a tutor, reduced to the
// dimensions the scorer needs. Reputation is the tutor's accepted-answer
// counter at read time; the scorer never writes it.
type TutorProfile struct {
	// TutorID - the tutor.
	TutorID shared.UserID

	// Subjects - subjects the tutor offers.
	Subjects []shared.SubjectID

	// Region - the tutor's region.
	Region shared.RegionID

	// HourlyRate - the tutor's single advertised rate.
	HourlyRate int64

	// Availability - the tutor's weekly availability windows.
	Availability []Window

	// Reputation - accepted-answer counter, read-only here.
	Reputation int64
}

// Offers reports whether the tutor teaches the given subject.
func (p TutorProfile) Offers(subject shared.SubjectID) bool {
	for _, s := range p.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}
