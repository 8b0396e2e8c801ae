package fuel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tanklog/fuel-engine/fuel"
	"github.com/tanklog/fuel-engine/fuel/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// testToday pins the statistics clock inside the entries' month.
var testToday = fuel.NewDate(2025, 6, 15)

func newTestAggregator(t *testing.T) (*fuel.Aggregator, *fuel.Engine) {
	t.Helper()
	mem := store.NewTxMemory()
	cache := fuel.NewMemoryCache()

	en := fuel.NewEngine(mem, cache)
	en.Now = func() time.Time { return testNow }

	agg := fuel.NewAggregator(mem, cache)
	agg.Today = func() fuel.Date { return testToday }
	return agg, en
}

// =============================================================================
// DASHBOARD TESTS
// =============================================================================

func TestDashboard_TotalDistanceAnchoredToInitialOdometer(t *testing.T) {
	// GIVEN: A vehicle with initial odometer 1000 and entries at 1500 km
	//        (25 L, 100) and 2000 km (30 L, 120) inside the window
	// WHEN: The 30-day dashboard is computed
	// THEN: total_distance is 1000 (max odometer minus initial), so the
	//       first entry's fuel counts in the averages too

	agg, en := newTestAggregator(t)
	v := newTestVehicle(t, en, 1000)
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 1), 1500, "25", "100"))
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 10), 2000, "30", "120"))

	stats, err := agg.Dashboard(context.Background(), testUser, nil, fuel.PeriodLast30Days, nil, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.FillUpCount != 2 {
		t.Errorf("fill-up count = %d, want 2", stats.FillUpCount)
	}
	if stats.TotalDistance != 1000 {
		t.Errorf("total distance = %d, want 1000", stats.TotalDistance)
	}
	if !stats.TotalLiters.Equal(dec("55")) {
		t.Errorf("total liters = %v, want 55", stats.TotalLiters)
	}
	if !stats.TotalSpent.Equal(dec("220")) {
		t.Errorf("total spent = %v, want 220", stats.TotalSpent)
	}
	// 55 L over 1000 km
	if stats.AverageConsumption == nil || !stats.AverageConsumption.Equal(dec("5.5")) {
		t.Errorf("average consumption = %v, want 5.5", stats.AverageConsumption)
	}
	if stats.AverageUnitPrice == nil || !stats.AverageUnitPrice.Equal(dec("4")) {
		t.Errorf("average unit price = %v, want 4", stats.AverageUnitPrice)
	}
	if stats.AverageCostPerKm == nil || !stats.AverageCostPerKm.Equal(dec("0.22")) {
		t.Errorf("average cost per km = %v, want 0.22", stats.AverageCostPerKm)
	}
}

func TestDashboard_AverageDistancePerDay_UsesActualSpan(t *testing.T) {
	// GIVEN: Entries spanning 5 calendar days (June 1 to June 5) inside a
	//        31-day window, covering 1000 km total
	// WHEN: The dashboard is computed
	// THEN: distance per day divides by the 5-day actual span, not by 31

	agg, en := newTestAggregator(t)
	v := newTestVehicle(t, en, 1000)
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 1), 1500, "25", "100"))
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 5), 2000, "30", "120"))

	stats, err := agg.Dashboard(context.Background(), testUser, nil, fuel.PeriodLast30Days, nil, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.AverageDistancePerDay == nil || !stats.AverageDistancePerDay.Equal(dec("200")) {
		t.Errorf("distance per day = %v, want 200", stats.AverageDistancePerDay)
	}
}

func TestDashboard_EmptyWindow(t *testing.T) {
	// GIVEN: A vehicle with no entries in the window
	// WHEN: The dashboard is computed
	// THEN: Counts and totals are zero, averages are nil, never NaN or zero
	//       stand-ins

	agg, en := newTestAggregator(t)
	newTestVehicle(t, en, 1000)

	stats, err := agg.Dashboard(context.Background(), testUser, nil, fuel.PeriodLast30Days, nil, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.FillUpCount != 0 || stats.TotalDistance != 0 {
		t.Errorf("expected zero counts, got %d fills, %d km", stats.FillUpCount, stats.TotalDistance)
	}
	if !stats.TotalLiters.IsZero() || !stats.TotalSpent.IsZero() {
		t.Errorf("expected zero totals, got %v L, %v spent", stats.TotalLiters, stats.TotalSpent)
	}
	if stats.AverageConsumption != nil || stats.AverageCostPerKm != nil ||
		stats.AverageUnitPrice != nil || stats.AverageDistancePerDay != nil {
		t.Error("expected nil averages on an empty window")
	}
	if stats.MinConsumption != nil || stats.MaxConsumption != nil {
		t.Error("expected nil min/max consumption on an empty window")
	}
}

func TestDashboard_MinMaxConsumption(t *testing.T) {
	agg, en := newTestAggregator(t)
	v := newTestVehicle(t, en, 1000)
	// 25 L / 500 km = 5.0; 40 L / 500 km = 8.0
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 1), 1500, "25", "100"))
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 10), 2000, "40", "160"))

	stats, err := agg.Dashboard(context.Background(), testUser, nil, fuel.PeriodLast30Days, nil, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.MinConsumption == nil || !stats.MinConsumption.Equal(dec("5")) {
		t.Errorf("min consumption = %v, want 5", stats.MinConsumption)
	}
	if stats.MaxConsumption == nil || !stats.MaxConsumption.Equal(dec("8")) {
		t.Errorf("max consumption = %v, want 8", stats.MaxConsumption)
	}
	if len(stats.ConsumptionSeries) != 2 {
		t.Errorf("consumption series has %d points, want 2", len(stats.ConsumptionSeries))
	}
}

func TestDashboard_PeriodErrors(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	_, err := agg.Dashboard(ctx, testUser, nil, "weekly", nil, nil)
	if !errors.Is(err, fuel.ErrInvalidPeriodType) {
		t.Errorf("expected ErrInvalidPeriodType, got %v", err)
	}

	_, err = agg.Dashboard(ctx, testUser, nil, fuel.PeriodCustom, nil, nil)
	if !errors.Is(err, fuel.ErrCustomPeriodMissingBounds) {
		t.Errorf("expected ErrCustomPeriodMissingBounds, got %v", err)
	}

	after := fuel.NewDate(2024, 1, 1)
	before := fuel.NewDate(2025, 6, 1)
	_, err = agg.Dashboard(ctx, testUser, nil, fuel.PeriodCustom, &after, &before)
	if !errors.Is(err, fuel.ErrCustomPeriodTooLong) {
		t.Errorf("expected ErrCustomPeriodTooLong, got %v", err)
	}
}

func TestDashboard_ScopedToUnknownVehicle(t *testing.T) {
	agg, _ := newTestAggregator(t)

	missing := fuel.VehicleID("missing")
	_, err := agg.Dashboard(context.Background(), testUser, &missing, fuel.PeriodLast30Days, nil, nil)

	if !errors.Is(err, fuel.ErrVehicleNotFound) {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}
}

func TestDashboard_CacheInvalidatedByWrites(t *testing.T) {
	// GIVEN: A cached dashboard result
	// WHEN: A new entry is created (the engine bumps the cache version)
	// THEN: The next dashboard read reflects the write

	agg, en := newTestAggregator(t)
	v := newTestVehicle(t, en, 1000)
	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 1), 1500, "25", "100"))

	first, err := agg.Dashboard(context.Background(), testUser, nil, fuel.PeriodLast30Days, nil, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if first.FillUpCount != 1 {
		t.Fatalf("fill-up count = %d, want 1", first.FillUpCount)
	}

	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 10), 2000, "30", "120"))

	second, err := agg.Dashboard(context.Background(), testUser, nil, fuel.PeriodLast30Days, nil, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if second.FillUpCount != 2 {
		t.Errorf("fill-up count = %d after write, want 2", second.FillUpCount)
	}
}

// =============================================================================
// BRAND / GRADE TESTS
// =============================================================================

func TestBrandStats_GroupsAndOrders(t *testing.T) {
	// GIVEN: Two Shell fills, one BP fill, one blank-brand fill
	// WHEN: Brand statistics are computed
	// THEN: Shell sorts first (more fills), blank brands are skipped

	agg, en := newTestAggregator(t)
	v := newTestVehicle(t, en, 1000)

	shell1 := input(v.ID, fuel.NewDate(2025, 6, 1), 1500, "25", "100")
	shell1.FuelBrand = "Shell"
	mustCreate(t, en, shell1)

	bp := input(v.ID, fuel.NewDate(2025, 6, 5), 2000, "30", "150")
	bp.FuelBrand = "BP"
	mustCreate(t, en, bp)

	shell2 := input(v.ID, fuel.NewDate(2025, 6, 10), 2500, "25", "110")
	shell2.FuelBrand = "Shell"
	mustCreate(t, en, shell2)

	mustCreate(t, en, input(v.ID, fuel.NewDate(2025, 6, 12), 2800, "20", "80"))

	groups, err := agg.BrandStats(context.Background(), testUser, nil)
	if err != nil {
		t.Fatalf("brand stats: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "Shell" || groups[0].FillCount != 2 {
		t.Errorf("first group = %s (%d fills), want Shell (2)", groups[0].Key, groups[0].FillCount)
	}
	if groups[1].Key != "BP" || groups[1].FillCount != 1 {
		t.Errorf("second group = %s (%d fills), want BP (1)", groups[1].Key, groups[1].FillCount)
	}

	// Shell: 50 L and 210 over 500+500 km
	if groups[0].AverageConsumption == nil || !groups[0].AverageConsumption.Equal(dec("5")) {
		t.Errorf("Shell consumption = %v, want 5", groups[0].AverageConsumption)
	}
	if groups[0].AverageUnitPrice == nil || !groups[0].AverageUnitPrice.Equal(dec("4.2")) {
		t.Errorf("Shell unit price = %v, want 4.2", groups[0].AverageUnitPrice)
	}
}

func TestGradeStats_TieBreaksAlphabetically(t *testing.T) {
	agg, en := newTestAggregator(t)
	v := newTestVehicle(t, en, 1000)

	diesel := input(v.ID, fuel.NewDate(2025, 6, 1), 1500, "25", "100")
	diesel.FuelGrade = "Diesel"
	mustCreate(t, en, diesel)

	e95 := input(v.ID, fuel.NewDate(2025, 6, 5), 2000, "30", "150")
	e95.FuelGrade = "95"
	mustCreate(t, en, e95)

	groups, err := agg.GradeStats(context.Background(), testUser, nil)
	if err != nil {
		t.Fatalf("grade stats: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "95" || groups[1].Key != "Diesel" {
		t.Errorf("tie order = %s, %s; want 95, Diesel", groups[0].Key, groups[1].Key)
	}
}
