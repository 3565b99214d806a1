package matching

// ══════════════════════════════════════════════════════════════════════════════
// MATCH SCORER
//
// Score is a weighted sum of four normalized sub-scores. The weights are
// fixed and sum to 1.0, so the result is always inside [0, 1]:
//
//   subject      0.40  - binary: tutor offers the requested subject
//   region       0.20  - binary: same region
//   rate         0.20  - tutor's rate falls inside the student's range
//   availability 0.20  - overlap fraction of the student's windows
//
// The function is pure and deterministic: no hidden state, no I/O, safe to
// call concurrently across a candidate set.
// ══════════════════════════════════════════════════════════════════════════════

// Sub-score weights. Fixed; must sum to 1.0.
const (
	WeightSubject      = 0.4
	WeightRegion       = 0.2
	WeightRate         = 0.2
	WeightAvailability = 0.2
)

// Score computes the similarity between a student's criteria and a tutor's
// profile. Callers validate criteria beforehand; Score itself never fails.
func Score(criteria StudentCriteria, profile TutorProfile) float64 {
	score := WeightSubject*subjectScore(criteria, profile) +
		WeightRegion*regionScore(criteria, profile) +
		WeightRate*rateScore(criteria, profile) +
		WeightAvailability*availabilityScore(criteria, profile)

	// Guard against float drift at the boundaries.
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// subjectScore is 1.0 when the tutor offers the requested subject.
func subjectScore(criteria StudentCriteria, profile TutorProfile) float64 {
	if profile.Offers(criteria.Subject) {
		return 1.0
	}
	return 0.0
}

// regionScore is 1.0 when student and tutor share a region.
func regionScore(criteria StudentCriteria, profile TutorProfile) float64 {
	if !criteria.Region.IsZero() && criteria.Region == profile.Region {
		return 1.0
	}
	return 0.0
}

// rateScore is the overlap fraction between the student's rate range and the
// tutor's point rate. A point either falls inside the range (1.0) or not (0.0).
func rateScore(criteria StudentCriteria, profile TutorProfile) float64 {
	if profile.HourlyRate >= criteria.RateMin && profile.HourlyRate <= criteria.RateMax {
		return 1.0
	}
	return 0.0
}

// availabilityScore is the summed pairwise window intersection divided by
// the total length of the student's windows, clamped to [0, 1]. A student
// with no requested windows earns no overlap credit.
func availabilityScore(criteria StudentCriteria, profile TutorProfile) float64 {
	total := criteria.TotalAvailabilityMinutes()
	if total == 0 {
		return 0.0
	}

	overlap := 0
	for _, cw := range criteria.Availability {
		for _, pw := range profile.Availability {
			overlap += cw.Overlap(pw)
		}
	}

	// Overlapping tutor windows can double-count minutes; clamp.
	frac := float64(overlap) / float64(total)
	if frac > 1 {
		return 1.0
	}
	return frac
}
