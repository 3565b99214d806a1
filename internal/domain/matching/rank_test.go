package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

func TestMatchResultList_Sort(t *testing.T) {
	list := MatchResultList{
		{TutorID: 5, Score: 0.6, Reputation: 3},
		{TutorID: 2, Score: 0.8, Reputation: 1},
		{TutorID: 9, Score: 0.8, Reputation: 7},
		{TutorID: 1, Score: 0.6, Reputation: 3},
		{TutorID: 4, Score: 0.8, Reputation: 7},
	}

	list.Sort()

	// Score descending, reputation descending, tutor id ascending.
	expected := []shared.UserID{4, 9, 2, 1, 5}
	for i, want := range expected {
		assert.Equal(t, want, list[i].TutorID, "position %d", i)
	}
}

func TestMatchResultList_SortIsDeterministic(t *testing.T) {
	build := func() MatchResultList {
		return MatchResultList{
			{TutorID: 3, Score: 0.5, Reputation: 2},
			{TutorID: 1, Score: 0.5, Reputation: 2},
			{TutorID: 2, Score: 0.5, Reputation: 2},
		}
	}

	first := build()
	first.Sort()

	for i := 0; i < 20; i++ {
		again := build()
		again.Sort()
		assert.Equal(t, first, again)
	}
}

func TestMatchResultList_Page(t *testing.T) {
	list := MatchResultList{
		{TutorID: 1}, {TutorID: 2}, {TutorID: 3}, {TutorID: 4}, {TutorID: 5},
	}

	page := list.Page(shared.Page{Offset: 1, Limit: 2})
	assert.Len(t, page, 2)
	assert.Equal(t, shared.UserID(2), page[0].TutorID)
	assert.Equal(t, shared.UserID(3), page[1].TutorID)

	// Window past the end yields an empty page.
	assert.Empty(t, list.Page(shared.Page{Offset: 10, Limit: 5}))

	// Window straddling the end is truncated.
	tail := list.Page(shared.Page{Offset: 4, Limit: 10})
	assert.Len(t, tail, 1)
	assert.Equal(t, shared.UserID(5), tail[0].TutorID)
}

func TestHardFilterBySubject(t *testing.T) {
	candidates := []TutorProfile{
		{TutorID: 1, Subjects: []shared.SubjectID{subjMath}},
		{TutorID: 2, Subjects: []shared.SubjectID{subjEnglish}},
		{TutorID: 3, Subjects: []shared.SubjectID{subjEnglish, subjMath}},
		{TutorID: 4},
	}

	filtered := HardFilterBySubject(candidates, subjMath)

	assert.Len(t, filtered, 2)
	assert.Equal(t, shared.UserID(1), filtered[0].TutorID)
	assert.Equal(t, shared.UserID(3), filtered[1].TutorID)

	assert.Empty(t, HardFilterBySubject(nil, subjMath))
}
