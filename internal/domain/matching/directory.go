package matching

import (
	"context"

	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
)

// DirectoryFilter narrows the tutor population fetched from the profile
// collaborator. Zero values mean "no filter on this dimension".
type DirectoryFilter struct {
	// Subject - only tutors offering this subject.
	Subject shared.SubjectID

	// Region - only tutors in this region.
	Region shared.RegionID
}

// ProfileDirectory is the profile collaborator contract: it supplies tutor
// profiles (with their current reputation value) for matching and ranking.
// Implementations live in the infrastructure layer.
type ProfileDirectory interface {
	// ListTutors returns the tutor population matching the filter.
	// An empty population is a valid result, not an error.
	ListTutors(ctx context.Context, filter DirectoryFilter) ([]TutorProfile, error)

	// GetTutor returns a single tutor profile.
	// Returns shared.ErrTutorNotFound if the tutor does not exist.
	GetTutor(ctx context.Context, tutorID shared.UserID) (*TutorProfile, error)
}
