package fuel_test

import (
	"errors"
	"testing"

	"github.com/tanklog/fuel-engine/fuel"
)

func TestResolvePeriod_RelativeWindows(t *testing.T) {
	today := fuel.NewDate(2025, 6, 15)

	p, err := fuel.ResolvePeriod(fuel.PeriodLast30Days, nil, nil, today)
	if err != nil {
		t.Fatalf("30d: %v", err)
	}
	if !p.After.Equal(fuel.NewDate(2025, 5, 16)) || !p.Before.Equal(today) {
		t.Errorf("30d window = %s", p)
	}

	p, err = fuel.ResolvePeriod(fuel.PeriodYearToDate, nil, nil, today)
	if err != nil {
		t.Fatalf("ytd: %v", err)
	}
	if !p.After.Equal(fuel.NewDate(2025, 1, 1)) {
		t.Errorf("ytd starts %s, want 2025-01-01", p.After)
	}
}

func TestResolvePeriod_CustomBounds(t *testing.T) {
	today := fuel.NewDate(2025, 6, 15)
	after := fuel.NewDate(2025, 1, 1)
	before := fuel.NewDate(2025, 3, 1)

	p, err := fuel.ResolvePeriod(fuel.PeriodCustom, &after, &before, today)
	if err != nil {
		t.Fatalf("custom: %v", err)
	}
	if !p.After.Equal(after) || !p.Before.Equal(before) {
		t.Errorf("custom window = %s", p)
	}

	// Exactly 365 days apart is still allowed.
	yearAgo := before.AddDays(-365)
	if _, err := fuel.ResolvePeriod(fuel.PeriodCustom, &yearAgo, &before, today); err != nil {
		t.Errorf("365-day window rejected: %v", err)
	}

	tooFar := before.AddDays(-366)
	_, err = fuel.ResolvePeriod(fuel.PeriodCustom, &tooFar, &before, today)
	if !errors.Is(err, fuel.ErrCustomPeriodTooLong) {
		t.Errorf("expected ErrCustomPeriodTooLong, got %v", err)
	}
}

func TestResolvePeriod_Rejections(t *testing.T) {
	today := fuel.NewDate(2025, 6, 15)

	_, err := fuel.ResolvePeriod("fortnight", nil, nil, today)
	if !errors.Is(err, fuel.ErrInvalidPeriodType) {
		t.Errorf("expected ErrInvalidPeriodType, got %v", err)
	}

	after := fuel.NewDate(2025, 1, 1)
	_, err = fuel.ResolvePeriod(fuel.PeriodCustom, &after, nil, today)
	if !errors.Is(err, fuel.ErrCustomPeriodMissingBounds) {
		t.Errorf("expected ErrCustomPeriodMissingBounds, got %v", err)
	}
}

func TestPeriod_Days(t *testing.T) {
	p := fuel.Period{After: fuel.NewDate(2025, 6, 1), Before: fuel.NewDate(2025, 6, 5)}
	if p.Days() != 5 {
		t.Errorf("days = %d, want 5 (inclusive)", p.Days())
	}
}
