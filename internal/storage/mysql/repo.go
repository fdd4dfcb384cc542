package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"homio/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---------------------------------------------------------------------------
// Addresses
// ---------------------------------------------------------------------------

// FindOrCreate inserts the address if its normalized key is new, otherwise
// returns the existing row. A concurrent insert of the same key surfaces as
// MySQL error 1062; we resolve it by re-querying rather than failing.
func (r *Repo) FindOrCreate(ctx context.Context, a domain.Address) (domain.Address, error) {
	key := a.NormalizedKey()
	if got, err := r.getAddressByKey(ctx, key); err == nil {
		return got, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Address{}, err
	}

	res, err := r.db.ExecContext(ctx, insertAddressSQL,
		a.Country,
		a.City,
		valStr(a.PostalCode),
		a.Street,
		valStr(a.BuildingName),
		valStr(a.BuildingNumber),
		valStr(a.Unit),
		valInt64(a.StreetID),
		valInt64(a.BuildingID),
		key,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			// lost the race: somebody inserted this key first
			return r.getAddressByKey(ctx, key)
		}
		return domain.Address{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Address{}, err
	}
	a.ID = id
	return a, nil
}

// AddressStore adapts Repo to domain.AddressRepository; the review variant
// of Get lives on Repo itself, so disambiguate through a thin wrapper.
type AddressStore struct{ *Repo }

func (r AddressStore) Get(ctx context.Context, id int64) (domain.Address, error) {
	return r.scanAddress(r.db.QueryRowContext(ctx, getAddressSQL, id))
}

func (r *Repo) getAddressByKey(ctx context.Context, key string) (domain.Address, error) {
	return r.scanAddress(r.db.QueryRowContext(ctx, getAddressByKeySQL, key))
}

func (r *Repo) scanAddress(row *sql.Row) (domain.Address, error) {
	var a domain.Address
	var postal, bName, bNum, unit sql.NullString
	var streetID, buildingID sql.NullInt64
	if err := row.Scan(
		&a.ID, &a.Country, &a.City, &postal, &a.Street,
		&bName, &bNum, &unit, &streetID, &buildingID,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Address{}, domain.ErrNotFound
		}
		return domain.Address{}, err
	}
	a.PostalCode = strPtr(postal)
	a.BuildingName = strPtr(bName)
	a.BuildingNumber = strPtr(bNum)
	a.Unit = strPtr(unit)
	a.StreetID = int64Ptr(streetID)
	a.BuildingID = int64Ptr(buildingID)
	return a, nil
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

func (r *Repo) Insert(ctx context.Context, rv domain.Review) (int64, error) {
	aspects, err := marshalAspects(rv.Aspects)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ProfileID,
		rv.AddressID,
		rv.StreetLevelID,
		rv.BuildingLevelID,
		valInt64(rv.UnitLevelID),
		rv.Rating,
		rv.Recommend,
		rv.Opinion,
		aspects,
		rv.Verified,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) Update(ctx context.Context, rv domain.Review) error {
	aspects, err := marshalAspects(rv.Aspects)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateReviewSQL,
		rv.Rating, rv.Recommend, rv.Opinion, aspects, rv.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// 0 can also mean "no column changed"; confirm existence before 404ing
		if _, gerr := r.Get(ctx, rv.ID); gerr != nil {
			return gerr
		}
	}
	return err
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteReviewSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int64) (domain.Review, error) {
	return r.scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
}

func (r *Repo) FindByProfileAndAddress(ctx context.Context, profileID, addressID int64) (domain.Review, error) {
	return r.scanReview(r.db.QueryRowContext(ctx, findByProfileAndAddressSQL, profileID, addressID))
}

func (r *Repo) ListByAddress(ctx context.Context, addressID int64, limit int) ([]domain.Review, error) {
	return r.listByScope(ctx, "address_id", addressID, limit)
}

// ListByBuilding returns the building's own reviews plus every descendant
// unit's, since both carry building_level_id.
func (r *Repo) ListByBuilding(ctx context.Context, buildingID int64, limit int) ([]domain.Review, error) {
	return r.listByScope(ctx, "building_level_id", buildingID, limit)
}

func (r *Repo) ListByStreet(ctx context.Context, streetID int64, limit int) ([]domain.Review, error) {
	return r.listByScope(ctx, "street_level_id", streetID, limit)
}

func (r *Repo) ListByProfile(ctx context.Context, profileID int64, limit int) ([]domain.Review, error) {
	return r.listByScope(ctx, "profile_id", profileID, limit)
}

func (r *Repo) listByScope(ctx context.Context, column string, id int64, limit int) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(listByScopeSQL, column), id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReviewRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) StatsByUnit(ctx context.Context, unitID int64) (domain.ReviewStats, error) {
	return r.statsByScope(ctx, "unit_level_id", unitID)
}

func (r *Repo) StatsByBuilding(ctx context.Context, buildingID int64) (domain.ReviewStats, error) {
	return r.statsByScope(ctx, "building_level_id", buildingID)
}

func (r *Repo) statsByScope(ctx context.Context, column string, id int64) (domain.ReviewStats, error) {
	var st domain.ReviewStats
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(statsByScopeSQL, column), id).
		Scan(&st.TotalReviews, &st.AverageRating, &st.RecommendationPercentage)
	return st, err
}

func (r *Repo) StatsByStreet(ctx context.Context, streetID int64) (domain.StreetStats, error) {
	var st domain.StreetStats
	err := r.db.QueryRowContext(ctx, statsByStreetSQL, streetID).
		Scan(&st.TotalReviews, &st.AverageRating, &st.RecommendationPercentage, &st.BuildingCount)
	return st, err
}

func (r *Repo) UnitBreakdown(ctx context.Context, buildingID int64) ([]domain.UnitStats, error) {
	rows, err := r.db.QueryContext(ctx, unitBreakdownSQL, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnitStats
	for rows.Next() {
		var us domain.UnitStats
		if err := rows.Scan(&us.UnitID, &us.TotalReviews, &us.AverageRating, &us.RecommendationPercentage); err != nil {
			return nil, err
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// scanning helpers
// ---------------------------------------------------------------------------

type rowScanner interface{ Scan(dest ...any) error }

func (r *Repo) scanReview(row *sql.Row) (domain.Review, error) {
	rv, err := scanReviewRow(row)
	if err == sql.ErrNoRows {
		return domain.Review{}, domain.ErrNotFound
	}
	return rv, err
}

func scanReviewRow(s rowScanner) (domain.Review, error) {
	var rv domain.Review
	var unitID sql.NullInt64
	var aspects []byte
	if err := s.Scan(
		&rv.ID,
		&rv.ProfileID,
		&rv.AddressID,
		&rv.StreetLevelID,
		&rv.BuildingLevelID,
		&unitID,
		&rv.Rating,
		&rv.Recommend,
		&rv.Opinion,
		&aspects,
		&rv.Verified,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	); err != nil {
		return domain.Review{}, err
	}
	rv.UnitLevelID = int64Ptr(unitID)
	if len(aspects) > 0 {
		if err := json.Unmarshal(aspects, &rv.Aspects); err != nil {
			return domain.Review{}, fmt.Errorf("decode aspects for review %d: %w", rv.ID, err)
		}
	}
	return rv, nil
}

func marshalAspects(m map[string]int) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
