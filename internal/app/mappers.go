package app

import (
	"strconv"
	"strings"

	"homio/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The legacy export was produced by several generations of the Homio schema,
// so every field goes through an alias list.

var addressAliases = map[string][]string{
	"country":         {"country", "country_code", "address.country"},
	"city":            {"city", "town", "address.city"},
	"postal_code":     {"postal_code", "zip", "zipcode", "address.postal_code"},
	"street":          {"street", "street_name", "address.street"},
	"building_name":   {"building_name", "building", "address.building_name"},
	"building_number": {"building_number", "house_number", "number", "address.building_number"},
	"unit":            {"unit", "apartment", "apt", "flat", "address.unit"},
}

var legacyReviewAliases = map[string][]string{
	"profile_id": {"profile_id", "profileId", "author_id", "user_id"},
	"rating":     {"rating", "stars", "score"},
	"recommend":  {"recommend", "recommended", "would_recommend"},
	"opinion":    {"opinion", "text", "comment", "body", "review_text"},
	"aspects":    {"aspects", "ratings", "category_ratings"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func aliasAny(m map[string]any, aliases map[string][]string, key string) any {
	for _, p := range aliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v
		}
	}
	return nil
}

func aliasStr(m map[string]any, aliases map[string][]string, key string) string {
	if v := aliasAny(m, aliases, key); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func aliasStrPtr(m map[string]any, aliases map[string][]string, key string) *string {
	if s := aliasStr(m, aliases, key); s != "" {
		return &s
	}
	return nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

/********** mappers **********/

func mapLegacyAddress(m map[string]any) domain.RawAddress {
	return domain.RawAddress{
		Country:        aliasStr(m, addressAliases, "country"),
		City:           aliasStr(m, addressAliases, "city"),
		PostalCode:     aliasStrPtr(m, addressAliases, "postal_code"),
		Street:         aliasStr(m, addressAliases, "street"),
		BuildingName:   aliasStrPtr(m, addressAliases, "building_name"),
		BuildingNumber: aliasStrPtr(m, addressAliases, "building_number"),
		Unit:           aliasStrPtr(m, addressAliases, "unit"),
	}
}

// mapLegacyReview returns false when the payload is missing any field a
// review cannot exist without.
func mapLegacyReview(m map[string]any) (domain.Review, bool) {
	var rv domain.Review

	pid, ok := asInt64(aliasAny(m, legacyReviewAliases, "profile_id"))
	if !ok || pid <= 0 {
		return rv, false
	}
	rating, ok := asInt64(aliasAny(m, legacyReviewAliases, "rating"))
	if !ok || rating < 1 || rating > 5 {
		return rv, false
	}
	rec, ok := asBool(aliasAny(m, legacyReviewAliases, "recommend"))
	if !ok {
		return rv, false
	}

	rv.ProfileID = pid
	rv.Rating = int(rating)
	rv.Recommend = rec
	rv.Opinion = aliasStr(m, legacyReviewAliases, "opinion")
	rv.Aspects = mapLegacyAspects(aliasAny(m, legacyReviewAliases, "aspects"))
	return rv, true
}

func mapLegacyAspects(v any) map[string]int {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := map[string]int{}
	for k, raw := range obj {
		key := strings.ToLower(strings.TrimSpace(k))
		if !domain.AspectKeys[key] {
			continue
		}
		if n, ok := asInt64(raw); ok && n >= 1 && n <= 5 {
			out[key] = int(n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
