package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"homio/internal/domain"
)

// ImportService replays the legacy Homio export into the review store.
// Imports are idempotent: an existing (profile, address) review wins over
// the legacy copy.
type ImportService struct {
	exporter  domain.LegacyExporter
	reviews   domain.ReviewRepository
	addresses domain.AddressRepository
	cache     domain.Cache
}

func NewImportService(e domain.LegacyExporter, rr domain.ReviewRepository, ar domain.AddressRepository, cache domain.Cache) *ImportService {
	return &ImportService{exporter: e, reviews: rr, addresses: ar, cache: cache}
}

type ImportStats struct {
	Addresses int
	Imported  int
	Skipped   int
}

// ImportPage fetches one export page and imports every entry on it.
// Returns done=true once the feed runs out.
func (s *ImportService) ImportPage(ctx context.Context, page, size int) (ImportStats, bool, error) {
	entries, err := s.exporter.ListAddresses(ctx, page, size)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ImportStats{}, true, nil
		}
		return ImportStats{}, false, fmt.Errorf("list export page %d: %w", page, err)
	}
	if len(entries) == 0 {
		return ImportStats{}, true, nil
	}

	var st ImportStats
	for _, entry := range entries {
		n, skipped, err := s.importEntry(ctx, entry)
		if err != nil {
			return st, false, err
		}
		st.Addresses++
		st.Imported += n
		st.Skipped += skipped
	}
	return st, len(entries) < size, nil
}

func (s *ImportService) importEntry(ctx context.Context, entry map[string]any) (imported, skipped int, err error) {
	raw := mapLegacyAddress(entry)
	svc := NewReviewService(s.reviews, s.addresses, s.cache)

	addr, err := svc.ResolveAddress(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			log.Warn().Err(err).Msg("skipping export entry with unusable address")
			return 0, 1, nil
		}
		return 0, 0, err
	}
	if addr.Level() == domain.LevelStreet {
		// street-only entries carry nothing reviewable
		return 0, 1, nil
	}

	payloads, _ := entry["reviews"].([]any)
	for _, p := range payloads {
		m, ok := p.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		rv, ok := mapLegacyReview(m)
		if !ok {
			skipped++
			continue
		}
		// imported rows must satisfy the same rules as fresh submissions,
		// otherwise a later partial edit by the owner would be rejected
		if err := rv.Validate(); err != nil {
			log.Warn().Err(err).Int64("profile_id", rv.ProfileID).Msg("skipping invalid legacy review")
			skipped++
			continue
		}

		if _, err := s.reviews.FindByProfileAndAddress(ctx, rv.ProfileID, addr.ID); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return imported, skipped, err
		}

		rv.AddressID = addr.ID
		rv.Verified = false
		if err := fillAncestors(&rv, addr); err != nil {
			return imported, skipped, err
		}
		if _, err := s.reviews.Insert(ctx, rv); err != nil {
			return imported, skipped, fmt.Errorf("import review for address %d: %w", addr.ID, err)
		}
		imported++
	}

	if imported > 0 {
		svc.invalidateForAddress(ctx, addr)
	}
	return imported, skipped, nil
}
