package mysql

const insertAddressSQL = `
INSERT INTO addresses
  (country, city, postal_code, street, building_name, building_number, unit,
   street_id, building_id, normalized_key)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getAddressByKeySQL = `
SELECT id, country, city, postal_code, street, building_name, building_number,
       unit, street_id, building_id
FROM addresses
WHERE normalized_key = ?
`

const getAddressSQL = `
SELECT id, country, city, postal_code, street, building_name, building_number,
       unit, street_id, building_id
FROM addresses
WHERE id = ?
`

const insertReviewSQL = `
INSERT INTO reviews
  (profile_id, address_id, street_level_id, building_level_id, unit_level_id,
   rating, recommend, opinion, aspects, verified)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateReviewSQL = `
UPDATE reviews
SET rating = ?, recommend = ?, opinion = ?, aspects = ?
WHERE id = ?
`

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ?`

const reviewColumns = `
  id, profile_id, address_id, street_level_id, building_level_id, unit_level_id,
  rating, recommend, opinion, aspects, verified, created_at, updated_at`

const getReviewSQL = `SELECT` + reviewColumns + `
FROM reviews WHERE id = ?`

const findByProfileAndAddressSQL = `SELECT` + reviewColumns + `
FROM reviews WHERE profile_id = ? AND address_id = ?`

// Newest first; aligns with the (scope, created_at, id) indexes.
const listByScopeSQL = `SELECT` + reviewColumns + `
FROM reviews
WHERE %s = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`

// -----------------------------------------------------------------------------
// AGGREGATES
// -----------------------------------------------------------------------------

// recommend is TINYINT(1), so AVG(recommend) is the recommending fraction.
const statsByScopeSQL = `
SELECT
  COUNT(*),
  COALESCE(AVG(rating), 0),
  COALESCE(100 * AVG(recommend), 0)
FROM reviews
WHERE %s = ?
`

const statsByStreetSQL = `
SELECT
  COUNT(*),
  COALESCE(AVG(rating), 0),
  COALESCE(100 * AVG(recommend), 0),
  COUNT(DISTINCT building_level_id)
FROM reviews
WHERE street_level_id = ?
`

const unitBreakdownSQL = `
SELECT
  unit_level_id,
  COUNT(*),
  COALESCE(AVG(rating), 0),
  COALESCE(100 * AVG(recommend), 0)
FROM reviews
WHERE building_level_id = ? AND unit_level_id IS NOT NULL
GROUP BY unit_level_id
ORDER BY unit_level_id
`
