package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homio/internal/domain"
)

const (
	DefaultListLimit = 50

	// maxListLimit caps every listing and is the depth pages are cached
	// at, so one key per address covers any requested limit.
	maxListLimit = 200
)

func statsKey(addressID int64) string { return fmt.Sprintf("stats:%d", addressID) }

func reviewsKey(addressID int64) string { return fmt.Sprintf("reviews:%d", addressID) }

// QueryService owns the read path. Aggregates are always recomputed by the
// repository; the cache only shortens the window between recomputations.
type QueryService struct {
	reviews   domain.ReviewRepository
	addresses domain.AddressRepository
	cache     domain.Cache
	cacheTTL  time.Duration
}

func NewQueryService(rr domain.ReviewRepository, ar domain.AddressRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{reviews: rr, addresses: ar, cache: c, cacheTTL: ttl}
}

// AddressStats is the level-dispatched stats payload: exactly one of the
// three views is populated.
type AddressStats struct {
	AddressLevel domain.AddressLevel  `json:"addressLevel"`
	Unit         *domain.UnitView     `json:"unit,omitempty"`
	Building     *domain.BuildingView `json:"building,omitempty"`
	Street       *domain.StreetView   `json:"street,omitempty"`
}

func (s *QueryService) GetAddressStats(ctx context.Context, addressID int64) (AddressStats, error) {
	key := statsKey(addressID)
	var out AddressStats
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	addr, err := s.addresses.Get(ctx, addressID)
	if err != nil {
		return AddressStats{}, err
	}

	out = AddressStats{AddressLevel: addr.Level()}
	switch addr.Level() {
	case domain.LevelUnit:
		v, err := s.unitView(ctx, addr)
		if err != nil {
			return AddressStats{}, err
		}
		out.Unit = &v
	case domain.LevelBuilding:
		v, err := s.buildingView(ctx, addr)
		if err != nil {
			return AddressStats{}, err
		}
		out.Building = &v
	default:
		v, err := s.streetView(ctx, addr)
		if err != nil {
			return AddressStats{}, err
		}
		out.Street = &v
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// GetAddressReviews lists reviews scoped by the address level: the unit's
// own, the building's own plus its units', or everything under the street.
// Pages are cached once per address at full depth and sliced per request,
// so a write has exactly one listing key per address to evict.
func (s *QueryService) GetAddressReviews(ctx context.Context, addressID int64, limit int) (domain.ReviewsPage, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	key := reviewsKey(addressID)
	var full domain.ReviewsPage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &full); ok {
			return trimPage(full, limit), nil
		}
	}

	addr, err := s.addresses.Get(ctx, addressID)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	var items []domain.Review
	switch addr.Level() {
	case domain.LevelUnit:
		items, err = s.reviews.ListByAddress(ctx, addressID, maxListLimit)
	case domain.LevelBuilding:
		items, err = s.reviews.ListByBuilding(ctx, addressID, maxListLimit)
	default:
		items, err = s.reviews.ListByStreet(ctx, addressID, maxListLimit)
	}
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	full = domain.ReviewsPage{AddressID: addressID, AddressLevel: addr.Level(), Items: items}

	// copy before caching so callers can't mutate the cached value,
	// and skip oversized pages
	if s.cache != nil {
		cp := deepCopyReviewsPage(full)
		if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
		}
	}
	return trimPage(full, limit), nil
}

func trimPage(in domain.ReviewsPage, limit int) domain.ReviewsPage {
	if len(in.Items) <= limit {
		return in
	}
	out := in
	out.Items = in.Items[:limit]
	return out
}

func (s *QueryService) GetReview(ctx context.Context, id int64) (domain.Review, error) {
	return s.reviews.Get(ctx, id)
}

func (s *QueryService) ListProfileReviews(ctx context.Context, profileID int64, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.reviews.ListByProfile(ctx, profileID, limit)
}

func (s *QueryService) unitView(ctx context.Context, addr domain.Address) (domain.UnitView, error) {
	own, err := s.reviews.StatsByUnit(ctx, addr.ID)
	if err != nil {
		return domain.UnitView{}, err
	}
	var rollup domain.ReviewStats
	if addr.BuildingID != nil {
		if rollup, err = s.reviews.StatsByBuilding(ctx, *addr.BuildingID); err != nil {
			return domain.UnitView{}, err
		}
	}
	return domain.UnitView{AddressID: addr.ID, Stats: own, BuildingStats: rollup}, nil
}

func (s *QueryService) buildingView(ctx context.Context, addr domain.Address) (domain.BuildingView, error) {
	combined, err := s.reviews.StatsByBuilding(ctx, addr.ID)
	if err != nil {
		return domain.BuildingView{}, err
	}
	units, err := s.reviews.UnitBreakdown(ctx, addr.ID)
	if err != nil {
		return domain.BuildingView{}, err
	}
	return domain.BuildingView{AddressID: addr.ID, Stats: combined, Units: units}, nil
}

func (s *QueryService) streetView(ctx context.Context, addr domain.Address) (domain.StreetView, error) {
	st, err := s.reviews.StatsByStreet(ctx, addr.ID)
	if err != nil {
		return domain.StreetView{}, err
	}
	return domain.StreetView{AddressID: addr.ID, Stats: st.ReviewStats, BuildingCount: st.BuildingCount}, nil
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := in
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
