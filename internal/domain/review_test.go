package domain_test

import (
	"errors"
	"testing"

	"homio/internal/domain"
)

func TestReviewValidate(t *testing.T) {
	ok := domain.Review{Rating: 4, Opinion: "quiet street, warm landlord", Aspects: map[string]int{"noise": 4}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid review, got %v", err)
	}

	bad := []domain.Review{
		{Rating: 0, Opinion: "long enough opinion"},
		{Rating: 6, Opinion: "long enough opinion"},
		{Rating: 3, Opinion: "short"},
		{Rating: 3, Opinion: "long enough opinion", Aspects: map[string]int{"vibes": 3}},
		{Rating: 3, Opinion: "long enough opinion", Aspects: map[string]int{"noise": 9}},
	}
	for i, rv := range bad {
		err := rv.Validate()
		if err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: error should wrap ErrValidation, got %v", i, err)
		}
	}
}
