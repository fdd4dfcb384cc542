package domain_test

import (
	"testing"

	"homio/internal/domain"
)

func pstr(s string) *string { return &s }

func TestAddressLevel_Derivation(t *testing.T) {
	cases := []struct {
		name string
		addr domain.Address
		want domain.AddressLevel
	}{
		{
			name: "street only",
			addr: domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht"},
			want: domain.LevelStreet,
		},
		{
			name: "building number",
			addr: domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht", BuildingNumber: pstr("42")},
			want: domain.LevelBuilding,
		},
		{
			name: "building name only",
			addr: domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht", BuildingName: pstr("De Pinto")},
			want: domain.LevelBuilding,
		},
		{
			name: "unit always wins",
			addr: domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht", BuildingNumber: pstr("42"), Unit: pstr("2B")},
			want: domain.LevelUnit,
		},
		{
			name: "blank unit does not count",
			addr: domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht", BuildingNumber: pstr("42"), Unit: pstr("   ")},
			want: domain.LevelBuilding,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.addr.Level(); got != tc.want {
				t.Fatalf("Level() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRawAddress_Normalize(t *testing.T) {
	raw := domain.RawAddress{
		Country:        "  NL ",
		City:           "Amsterdam",
		Street:         "Keizersgracht   ",
		BuildingNumber: pstr(" 42  b "),
		Unit:           pstr("   "), // blank optional fields drop out
	}
	a := raw.Normalize()
	if a.Country != "NL" || a.Street != "Keizersgracht" {
		t.Fatalf("unexpected normalization: %+v", a)
	}
	if a.BuildingNumber == nil || *a.BuildingNumber != "42 b" {
		t.Fatalf("expected collapsed building number, got %+v", a.BuildingNumber)
	}
	if a.Unit != nil {
		t.Fatalf("blank unit should normalize to nil")
	}
}

func TestNormalizedKey_LevelsDiffer(t *testing.T) {
	unit := domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht", BuildingNumber: pstr("42"), Unit: pstr("2B")}
	building := unit.BuildingAncestor()
	street := unit.StreetAncestor()

	keys := map[string]bool{
		unit.NormalizedKey():     true,
		building.NormalizedKey(): true,
		street.NormalizedKey():   true,
	}
	if len(keys) != 3 {
		t.Fatalf("expected three distinct keys, got %v", keys)
	}

	// keys are case- and whitespace-insensitive
	other := domain.Address{Country: "nl", City: " AMSTERDAM ", Street: "keizersgracht", BuildingNumber: pstr("42"), Unit: pstr("2b")}
	if other.NormalizedKey() != unit.NormalizedKey() {
		t.Fatalf("case variants should share a key:\n%s\n%s", other.NormalizedKey(), unit.NormalizedKey())
	}
}
