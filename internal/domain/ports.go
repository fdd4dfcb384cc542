package domain

import "context"

type AddressRepository interface {
	// FindOrCreate persists the address keyed by NormalizedKey, returning
	// the existing row when one is already there. Duplicate-key races are
	// resolved by re-querying, not by transactions.
	FindOrCreate(ctx context.Context, a Address) (Address, error)
	Get(ctx context.Context, id int64) (Address, error)
}

type ReviewRepository interface {
	// Write paths
	Insert(ctx context.Context, rv Review) (int64, error)
	Update(ctx context.Context, rv Review) error
	Delete(ctx context.Context, id int64) error

	// Read paths
	Get(ctx context.Context, id int64) (Review, error)
	FindByProfileAndAddress(ctx context.Context, profileID, addressID int64) (Review, error)
	ListByAddress(ctx context.Context, addressID int64, limit int) ([]Review, error)
	ListByBuilding(ctx context.Context, buildingID int64, limit int) ([]Review, error)
	ListByStreet(ctx context.Context, streetID int64, limit int) ([]Review, error)
	ListByProfile(ctx context.Context, profileID int64, limit int) ([]Review, error)

	// Aggregates, recomputed on every call
	StatsByUnit(ctx context.Context, unitID int64) (ReviewStats, error)
	StatsByBuilding(ctx context.Context, buildingID int64) (ReviewStats, error)
	StatsByStreet(ctx context.Context, streetID int64) (StreetStats, error)
	UnitBreakdown(ctx context.Context, buildingID int64) ([]UnitStats, error)
}

// LegacyExporter pages through the old Homio export feed. Each entry is an
// address payload with its reviews embedded under "reviews".
type LegacyExporter interface {
	ListAddresses(ctx context.Context, page, size int) ([]map[string]any, error)
}

type ProfileDirectory interface {
	GetProfile(ctx context.Context, id int64) (Profile, error)
	Authenticate(ctx context.Context, token string) (Profile, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models

type ReviewStats struct {
	AverageRating            float64 `json:"averageRating"`
	TotalReviews             int     `json:"totalReviews"`
	RecommendationPercentage float64 `json:"recommendationPercentage"`
}

type StreetStats struct {
	ReviewStats
	BuildingCount int `json:"buildingCount"`
}

type UnitStats struct {
	UnitID int64 `json:"unitId"`
	ReviewStats
}

// UnitView: one unit's reviews plus the rollup over its whole building.
type UnitView struct {
	AddressID     int64       `json:"addressId"`
	Stats         ReviewStats `json:"stats"`
	BuildingStats ReviewStats `json:"buildingStats"`
}

// BuildingView: the building's own reviews combined with every descendant
// unit's, plus a per-unit breakdown.
type BuildingView struct {
	AddressID int64       `json:"addressId"`
	Stats     ReviewStats `json:"stats"`
	Units     []UnitStats `json:"units"`
}

// StreetView: aggregated over every building under the street.
type StreetView struct {
	AddressID     int64       `json:"addressId"`
	Stats         ReviewStats `json:"stats"`
	BuildingCount int         `json:"buildingCount"`
}

// ReviewsPage is a level-aware listing for one address.
type ReviewsPage struct {
	AddressID    int64        `json:"addressId"`
	AddressLevel AddressLevel `json:"addressLevel"`
	Items        []Review     `json:"items"`
}
