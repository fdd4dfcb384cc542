package domain

type ProfileType string

const (
	ProfilePersonal ProfileType = "PERSONAL"
	ProfileAgency   ProfileType = "AGENCY"
	ProfileBusiness ProfileType = "BUSINESS"
)

// Profile is owned by the profiles service; only the fields the review
// rules need are carried here.
type Profile struct {
	ID          int64
	Type        ProfileType
	DisplayName string
}

func (p Profile) CanReview() bool { return p.Type == ProfilePersonal }
