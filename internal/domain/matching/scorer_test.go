package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

const (
	subjMath    shared.SubjectID = 1
	subjEnglish shared.SubjectID = 2
	regionSeoul shared.RegionID  = 10
	regionBusan shared.RegionID  = 20
)

func baseCriteria() StudentCriteria {
	return StudentCriteria{
		Subject: subjMath,
		Region:  regionSeoul,
		RateMin: 20000,
		RateMax: 40000,
		Availability: []Window{
			{Day: 0, Start: 600, End: 720}, // Monday 10:00-12:00
		},
	}
}

func TestScore_PerfectMatch(t *testing.T) {
	criteria := baseCriteria()
	profile := TutorProfile{
		TutorID:      1,
		Subjects:     []shared.SubjectID{subjMath},
		Region:       regionSeoul,
		HourlyRate:   30000,
		Availability: []Window{{Day: 0, Start: 540, End: 780}},
	}

	assert.InDelta(t, 1.0, Score(criteria, profile), 1e-9)
}

func TestScore_WeightContributions(t *testing.T) {
	criteria := baseCriteria()

	// Subject only: wrong region, rate out of range, no availability.
	profile := TutorProfile{
		TutorID:    1,
		Subjects:   []shared.SubjectID{subjMath},
		Region:     regionBusan,
		HourlyRate: 60000,
	}
	assert.InDelta(t, 0.4, Score(criteria, profile), 1e-9)

	// Subject + region.
	profile.Region = regionSeoul
	assert.InDelta(t, 0.6, Score(criteria, profile), 1e-9)

	// Subject + region + rate.
	profile.HourlyRate = 25000
	assert.InDelta(t, 0.8, Score(criteria, profile), 1e-9)

	// All four.
	profile.Availability = []Window{{Day: 0, Start: 600, End: 720}}
	assert.InDelta(t, 1.0, Score(criteria, profile), 1e-9)
}

func TestScore_SubjectMismatchEarnsNothing(t *testing.T) {
	criteria := baseCriteria()
	profile := TutorProfile{
		TutorID:      2,
		Subjects:     []shared.SubjectID{subjEnglish},
		Region:       regionSeoul,
		HourlyRate:   30000,
		Availability: []Window{{Day: 0, Start: 600, End: 720}},
	}

	// Subject weight is lost but the other dimensions still count.
	assert.InDelta(t, 0.6, Score(criteria, profile), 1e-9)
}

func TestScore_RateBoundsAreInclusive(t *testing.T) {
	criteria := baseCriteria()
	profile := TutorProfile{TutorID: 3, Subjects: []shared.SubjectID{subjMath}}

	profile.HourlyRate = criteria.RateMin
	assert.InDelta(t, 0.6, Score(criteria, profile), 1e-9)

	profile.HourlyRate = criteria.RateMax
	assert.InDelta(t, 0.6, Score(criteria, profile), 1e-9)

	profile.HourlyRate = criteria.RateMax + 1
	assert.InDelta(t, 0.4, Score(criteria, profile), 1e-9)
}

func TestScore_PartialAvailabilityOverlap(t *testing.T) {
	criteria := baseCriteria() // one 120-minute window

	// Tutor covers 60 of the 120 requested minutes: half the availability
	// weight.
	profile := TutorProfile{
		TutorID:      4,
		Subjects:     []shared.SubjectID{subjMath},
		Availability: []Window{{Day: 0, Start: 660, End: 780}},
	}

	assert.InDelta(t, 0.4+0.2*0.5, Score(criteria, profile), 1e-9)
}

func TestScore_NoStudentWindowsEarnsNoAvailabilityCredit(t *testing.T) {
	criteria := baseCriteria()
	criteria.Availability = nil

	profile := TutorProfile{
		TutorID:      5,
		Subjects:     []shared.SubjectID{subjMath},
		Region:       regionSeoul,
		HourlyRate:   30000,
		Availability: []Window{{Day: 0, Start: 0, End: 1440}},
	}

	assert.InDelta(t, 0.8, Score(criteria, profile), 1e-9)
}

func TestScore_OverlappingTutorWindowsClampToOne(t *testing.T) {
	criteria := baseCriteria()
	profile := TutorProfile{
		TutorID:  6,
		Subjects: []shared.SubjectID{subjMath},
		// Two identical tutor windows double-count the overlap minutes.
		Availability: []Window{
			{Day: 0, Start: 600, End: 720},
			{Day: 0, Start: 600, End: 720},
		},
	}

	score := Score(criteria, profile)
	assert.InDelta(t, 0.4+0.2*1.0, score, 1e-9)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	criteria := baseCriteria()

	profiles := []TutorProfile{
		{},
		{Subjects: []shared.SubjectID{subjMath}, Region: regionSeoul, HourlyRate: 30000,
			Availability: []Window{{Day: 0, Start: 0, End: 1440}, {Day: 0, Start: 0, End: 1440}}},
		{Subjects: []shared.SubjectID{subjEnglish}, HourlyRate: -5},
	}

	for _, p := range profiles {
		score := Score(criteria, p)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestScore_IsDeterministic(t *testing.T) {
	criteria := baseCriteria()
	profile := TutorProfile{
		TutorID:      7,
		Subjects:     []shared.SubjectID{subjMath},
		Region:       regionSeoul,
		HourlyRate:   25000,
		Availability: []Window{{Day: 0, Start: 630, End: 700}},
	}

	first := Score(criteria, profile)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Score(criteria, profile))
	}
}

func TestWindow_Overlap(t *testing.T) {
	a := Window{Day: 0, Start: 600, End: 720}

	// Same day, partial overlap.
	assert.Equal(t, 60, a.Overlap(Window{Day: 0, Start: 660, End: 780}))

	// Contained window.
	assert.Equal(t, 30, a.Overlap(Window{Day: 0, Start: 630, End: 660}))

	// Adjacent windows share no minutes.
	assert.Equal(t, 0, a.Overlap(Window{Day: 0, Start: 720, End: 780}))

	// Different days never overlap.
	assert.Equal(t, 0, a.Overlap(Window{Day: 1, Start: 600, End: 720}))

	// Overlap is symmetric.
	b := Window{Day: 0, Start: 660, End: 780}
	assert.Equal(t, a.Overlap(b), b.Overlap(a))
}

func TestWindow_IsValid(t *testing.T) {
	assert.True(t, Window{Day: 0, Start: 0, End: 1440}.IsValid())
	assert.True(t, Window{Day: 6, Start: 600, End: 601}.IsValid())

	assert.False(t, Window{Day: 7, Start: 600, End: 700}.IsValid())
	assert.False(t, Window{Day: -1, Start: 600, End: 700}.IsValid())
	assert.False(t, Window{Day: 0, Start: 700, End: 700}.IsValid())
	assert.False(t, Window{Day: 0, Start: 700, End: 600}.IsValid())
	assert.False(t, Window{Day: 0, Start: -10, End: 600}.IsValid())
	assert.False(t, Window{Day: 0, Start: 600, End: 1441}.IsValid())
}

func TestStudentCriteria_Validate(t *testing.T) {
	valid := baseCriteria()
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.Subject = 0
	assert.ErrorIs(t, missing.Validate(), shared.ErrEmptySubject)

	negative := valid
	negative.RateMin = -1
	assert.ErrorIs(t, negative.Validate(), shared.ErrNegativeValue)

	inverted := valid
	inverted.RateMin = 50000
	inverted.RateMax = 20000
	assert.ErrorIs(t, inverted.Validate(), shared.ErrInvertedRateRange)

	badWindow := valid
	badWindow.Availability = []Window{{Day: 0, Start: 700, End: 600}}
	assert.ErrorIs(t, badWindow.Validate(), shared.ErrInvalidWindow)
}

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria(subjMath, regionSeoul)

	assert.NoError(t, c.Validate())
	assert.EqualValues(t, DefaultRateMin, c.RateMin)
	assert.EqualValues(t, DefaultRateMax, c.RateMax)
	assert.Empty(t, c.Availability)
}
