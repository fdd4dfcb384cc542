package domain

import (
	"fmt"
	"strings"
	"time"
)

type Review struct {
	ID        int64
	ProfileID int64
	AddressID int64

	// Denormalized ancestors of AddressID. UnitLevelID is set iff the
	// reviewed address is UNIT level.
	StreetLevelID   int64
	BuildingLevelID int64
	UnitLevelID     *int64

	Rating    int
	Recommend bool
	Opinion   string
	Aspects   map[string]int // Likert 1..5 per aspect key, each optional
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const MinOpinionLen = 10

// AspectKeys enumerates the rateable aspects of living at an address.
var AspectKeys = map[string]bool{
	"noise":              true,
	"natural_light":      true,
	"landlord_treatment": true,
	"safety":             true,
	"cleanliness":        true,
	"heating":            true,
	"water_pressure":     true,
	"internet":           true,
	"ventilation":        true,
	"insulation":         true,
	"pest_control":       true,
	"maintenance":        true,
	"neighbors":          true,
	"parking":            true,
	"public_transport":   true,
	"green_spaces":       true,
	"shops_nearby":       true,
	"value_for_money":    true,
	"building_condition": true,
	"elevator":           true,
}

// Validate checks the author-supplied fields. Denormalized ids are filled by
// the service and are not validated here.
func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if len(strings.TrimSpace(r.Opinion)) < MinOpinionLen {
		return fmt.Errorf("%w: opinion must be at least %d characters", ErrValidation, MinOpinionLen)
	}
	for k, v := range r.Aspects {
		if !AspectKeys[k] {
			return fmt.Errorf("%w: unknown aspect %q", ErrValidation, k)
		}
		if v < 1 || v > 5 {
			return fmt.Errorf("%w: aspect %q must be between 1 and 5", ErrValidation, k)
		}
	}
	return nil
}
