package app

import (
	"context"
	"errors"
	"fmt"

	"homio/internal/domain"
)

// ReviewService owns the write path: address resolution, the creation gates,
// ownership checks, and cache invalidation after every mutation.
type ReviewService struct {
	reviews   domain.ReviewRepository
	addresses domain.AddressRepository
	cache     domain.Cache
}

func NewReviewService(rr domain.ReviewRepository, ar domain.AddressRepository, cache domain.Cache) *ReviewService {
	return &ReviewService{reviews: rr, addresses: ar, cache: cache}
}

// CreateReviewInput carries either the id of an already-resolved address or a
// raw address payload to resolve first.
type CreateReviewInput struct {
	AddressID int64              `json:"addressId,omitempty"`
	Address   *domain.RawAddress `json:"address,omitempty"`
	Rating    int                `json:"rating"`
	Recommend bool               `json:"recommend"`
	Opinion   string             `json:"opinion"`
	Aspects   map[string]int     `json:"aspects,omitempty"`
}

// CreateReview applies the gates in order: author must be a PERSONAL profile,
// the address must be BUILDING or UNIT level, fields must validate, and the
// (profile, address) pair must not already have a review.
func (s *ReviewService) CreateReview(ctx context.Context, author domain.Profile, in CreateReviewInput) (domain.Review, error) {
	if !author.CanReview() {
		return domain.Review{}, domain.ErrProfileType
	}

	addr, err := s.targetAddress(ctx, in)
	if err != nil {
		return domain.Review{}, err
	}
	level := addr.Level()
	if level == domain.LevelStreet {
		return domain.Review{}, domain.ErrAddressLevel
	}

	rv := domain.Review{
		ProfileID: author.ID,
		AddressID: addr.ID,
		Rating:    in.Rating,
		Recommend: in.Recommend,
		Opinion:   in.Opinion,
		Aspects:   in.Aspects,
	}
	if err := rv.Validate(); err != nil {
		return domain.Review{}, err
	}

	if _, err := s.reviews.FindByProfileAndAddress(ctx, author.ID, addr.ID); err == nil {
		return domain.Review{}, domain.ErrDuplicateReview
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Review{}, err
	}

	if err := fillAncestors(&rv, addr); err != nil {
		return domain.Review{}, err
	}

	id, err := s.reviews.Insert(ctx, rv)
	if err != nil {
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}
	s.invalidateSubtree(ctx, rv)

	return s.reviews.Get(ctx, id)
}

// UpdateReviewInput: nil fields are left untouched.
type UpdateReviewInput struct {
	Rating    *int            `json:"rating,omitempty"`
	Recommend *bool           `json:"recommend,omitempty"`
	Opinion   *string         `json:"opinion,omitempty"`
	Aspects   *map[string]int `json:"aspects,omitempty"`
}

func (s *ReviewService) UpdateReview(ctx context.Context, caller domain.Profile, id int64, in UpdateReviewInput) (domain.Review, error) {
	rv, err := s.reviews.Get(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if rv.ProfileID != caller.ID {
		return domain.Review{}, domain.ErrNotOwner
	}

	if in.Rating != nil {
		rv.Rating = *in.Rating
	}
	if in.Recommend != nil {
		rv.Recommend = *in.Recommend
	}
	if in.Opinion != nil {
		rv.Opinion = *in.Opinion
	}
	if in.Aspects != nil {
		rv.Aspects = *in.Aspects
	}
	if err := rv.Validate(); err != nil {
		return domain.Review{}, err
	}

	if err := s.reviews.Update(ctx, rv); err != nil {
		return domain.Review{}, fmt.Errorf("update review %d: %w", id, err)
	}
	s.invalidateSubtree(ctx, rv)

	return s.reviews.Get(ctx, id)
}

// DeleteReview is a hard delete; there is no soft-delete or audit trail.
func (s *ReviewService) DeleteReview(ctx context.Context, caller domain.Profile, id int64) error {
	rv, err := s.reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if rv.ProfileID != caller.ID {
		return domain.ErrNotOwner
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSubtree(ctx, rv)
	return nil
}

// ResolveAddress normalizes the payload and find-or-creates the full
// street -> building -> unit chain, linking each node to its ancestors.
func (s *ReviewService) ResolveAddress(ctx context.Context, raw domain.RawAddress) (domain.Address, error) {
	a := raw.Normalize()
	if a.Country == "" || a.City == "" || a.Street == "" {
		return domain.Address{}, fmt.Errorf("%w: country, city and street are required", domain.ErrValidation)
	}

	street, err := s.addresses.FindOrCreate(ctx, a.StreetAncestor())
	if err != nil {
		return domain.Address{}, fmt.Errorf("resolve street: %w", err)
	}
	if a.Level() == domain.LevelStreet {
		return street, nil
	}

	building := a.BuildingAncestor()
	building.StreetID = &street.ID
	building, err = s.addresses.FindOrCreate(ctx, building)
	if err != nil {
		return domain.Address{}, fmt.Errorf("resolve building: %w", err)
	}
	if a.Level() == domain.LevelBuilding {
		return building, nil
	}

	a.StreetID = &street.ID
	a.BuildingID = &building.ID
	unit, err := s.addresses.FindOrCreate(ctx, a)
	if err != nil {
		return domain.Address{}, fmt.Errorf("resolve unit: %w", err)
	}
	return unit, nil
}

func (s *ReviewService) targetAddress(ctx context.Context, in CreateReviewInput) (domain.Address, error) {
	if in.AddressID != 0 {
		return s.addresses.Get(ctx, in.AddressID)
	}
	if in.Address == nil {
		return domain.Address{}, fmt.Errorf("%w: addressId or address is required", domain.ErrValidation)
	}
	return s.ResolveAddress(ctx, *in.Address)
}

// fillAncestors denormalizes the address chain onto the review. UnitLevelID
// is set iff the reviewed address is UNIT level.
func fillAncestors(rv *domain.Review, addr domain.Address) error {
	switch addr.Level() {
	case domain.LevelUnit:
		if addr.StreetID == nil || addr.BuildingID == nil {
			return fmt.Errorf("unit address %d is missing ancestor links", addr.ID)
		}
		rv.StreetLevelID = *addr.StreetID
		rv.BuildingLevelID = *addr.BuildingID
		id := addr.ID
		rv.UnitLevelID = &id
	case domain.LevelBuilding:
		if addr.StreetID == nil {
			return fmt.Errorf("building address %d is missing its street link", addr.ID)
		}
		rv.StreetLevelID = *addr.StreetID
		rv.BuildingLevelID = addr.ID
		rv.UnitLevelID = nil
	default:
		return domain.ErrAddressLevel
	}
	return nil
}

// invalidateSubtree drops the cached stats and listings for every address the
// mutated review rolls up into.
func (s *ReviewService) invalidateSubtree(ctx context.Context, rv domain.Review) {
	ids := []int64{rv.StreetLevelID, rv.BuildingLevelID}
	if rv.UnitLevelID != nil {
		ids = append(ids, *rv.UnitLevelID)
	}
	s.invalidate(ctx, ids)
}

// invalidateForAddress is the same eviction keyed off an address node and its
// ancestor links, used by the importer.
func (s *ReviewService) invalidateForAddress(ctx context.Context, addr domain.Address) {
	ids := []int64{addr.ID}
	if addr.BuildingID != nil {
		ids = append(ids, *addr.BuildingID)
	}
	if addr.StreetID != nil {
		ids = append(ids, *addr.StreetID)
	}
	s.invalidate(ctx, ids)
}

func (s *ReviewService) invalidate(ctx context.Context, ids []int64) {
	if s.cache == nil {
		return
	}
	for _, id := range ids {
		_ = s.cache.Del(ctx, statsKey(id))
		_ = s.cache.Del(ctx, reviewsKey(id))
	}
}
