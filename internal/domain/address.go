package domain

import "strings"

type AddressLevel string

const (
	LevelStreet   AddressLevel = "STREET"
	LevelBuilding AddressLevel = "BUILDING"
	LevelUnit     AddressLevel = "UNIT"
)

// Address is one node of the street > building > unit hierarchy.
// The level is never stored; it is derived from which fields are populated.
type Address struct {
	ID             int64
	Country        string
	City           string
	PostalCode     *string
	Street         string
	BuildingName   *string
	BuildingNumber *string
	Unit           *string

	// Ancestor links: StreetID is set on BUILDING and UNIT rows,
	// BuildingID only on UNIT rows.
	StreetID   *int64
	BuildingID *int64
}

func (a Address) Level() AddressLevel {
	if notBlank(a.Unit) {
		return LevelUnit
	}
	if notBlank(a.BuildingName) || notBlank(a.BuildingNumber) {
		return LevelBuilding
	}
	return LevelStreet
}

// RawAddress is the inbound payload before normalization.
type RawAddress struct {
	Country        string  `json:"country"`
	City           string  `json:"city"`
	PostalCode     *string `json:"postalCode,omitempty"`
	Street         string  `json:"street"`
	BuildingName   *string `json:"buildingName,omitempty"`
	BuildingNumber *string `json:"buildingNumber,omitempty"`
	Unit           *string `json:"unit,omitempty"`
}

// Normalize trims and collapses whitespace on every field and drops
// blank optional fields, returning an unsaved Address.
func (r RawAddress) Normalize() Address {
	return Address{
		Country:        squash(r.Country),
		City:           squash(r.City),
		PostalCode:     squashPtr(r.PostalCode),
		Street:         squash(r.Street),
		BuildingName:   squashPtr(r.BuildingName),
		BuildingNumber: squashPtr(r.BuildingNumber),
		Unit:           squashPtr(r.Unit),
	}
}

// NormalizedKey is the case-folded identity of an address node, unique per
// level because deeper levels append their extra fields.
func (a Address) NormalizedKey() string {
	parts := []string{fold(a.Country), fold(a.City), fold(a.Street)}
	switch a.Level() {
	case LevelUnit:
		parts = append(parts, foldPtr(a.BuildingName), foldPtr(a.BuildingNumber), foldPtr(a.Unit))
	case LevelBuilding:
		parts = append(parts, foldPtr(a.BuildingName), foldPtr(a.BuildingNumber))
	}
	return strings.Join(parts, "|")
}

// StreetAncestor strips an address down to its STREET-level node.
func (a Address) StreetAncestor() Address {
	return Address{Country: a.Country, City: a.City, PostalCode: a.PostalCode, Street: a.Street}
}

// BuildingAncestor strips a UNIT address down to its BUILDING-level node.
func (a Address) BuildingAncestor() Address {
	b := a
	b.ID = 0
	b.Unit = nil
	b.BuildingID = nil
	return b
}

func notBlank(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func squashPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := squash(*p)
	if s == "" {
		return nil
	}
	return &s
}

func fold(s string) string { return strings.ToLower(squash(s)) }

func foldPtr(p *string) string {
	if p == nil {
		return ""
	}
	return fold(*p)
}
