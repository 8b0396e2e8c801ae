/*
stats.go - Windowed and lifetime aggregates

PURPOSE:
  Read-only statistics over the derived fields the engine maintains. The
  aggregator never recomputes per-entry metrics; it reads what the cascade
  already persisted.

THE DISTANCE RULE:
  Dashboard total_distance is NOT the sum of in-window distance deltas.
  Summing deltas silently drops the contribution of whichever entry in the
  window has no predecessor inside the window (at minimum the window's
  first entry). Instead, per vehicle in scope:

      distance = max(odometer in window) - vehicle.initial_odometer

  summed across vehicles. Every rate on the dashboard divides by this
  anchored distance.

  Lifetime brand/grade groups are different: they are not windowed, so
  their denominators sum distance_since_last across the group.

WINDOW SEMANTICS:
  total_liters, total_spent, and fill_up_count cover ALL entries in the
  window, including a vehicle's first fill. average_distance_per_day
  divides by the smaller of the requested window length and the actual
  first-to-last entry span, so sparse data does not dilute the rate.
  An empty window yields zero sums and counts and null rates.

SEE ALSO:
  - period.go: Window resolution
  - cache.go: Version-token caching in front of these reads
*/
package fuel

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregator answers the read-only statistics queries.
type Aggregator struct {
	Store Store
	Cache StatsCache // optional

	// Today pins "now" for window resolution; defaults to Today().
	Today func() Date
}

func NewAggregator(store Store, cache StatsCache) *Aggregator {
	return &Aggregator{Store: store, Cache: cache, Today: Today}
}

func (a *Aggregator) today() Date {
	if a.Today != nil {
		return a.Today()
	}
	return Today()
}

// =============================================================================
// DASHBOARD
// =============================================================================

// TimeSeriesPoint is one (date, value) sample of a sparse series.
type TimeSeriesPoint struct {
	Date  Date
	Value decimal.Decimal
}

// DashboardStats is the windowed aggregate for a user's (optionally
// vehicle-scoped) entries. Sums are zero for an empty window; rates are nil
// whenever their denominator is not positive.
type DashboardStats struct {
	PeriodType PeriodType
	Period     Period

	FillUpCount   int
	TotalLiters   decimal.Decimal
	TotalSpent    decimal.Decimal
	TotalDistance int64

	AverageConsumption    *decimal.Decimal // L/100km
	AverageCostPerKm      *decimal.Decimal
	AverageUnitPrice      *decimal.Decimal
	AverageDistancePerDay *decimal.Decimal
	MinConsumption        *decimal.Decimal
	MaxConsumption        *decimal.Decimal

	// Three independent sparse series, each emitted only where the metric
	// is non-null, ordered by date.
	ConsumptionSeries []TimeSeriesPoint
	UnitPriceSeries   []TimeSeriesPoint
	CostPerKmSeries   []TimeSeriesPoint
}

// Dashboard computes the windowed dashboard aggregate.
func (a *Aggregator) Dashboard(ctx context.Context, userID UserID, vehicleID *VehicleID, pt PeriodType, after, before *Date) (*DashboardStats, error) {
	period, err := ResolvePeriod(pt, after, before, a.today())
	if err != nil {
		return nil, err
	}

	key := a.cacheKey("dashboard_stats", userID, vehicleID, string(pt), period)
	if a.Cache != nil {
		if cached, ok := a.Cache.Get(key); ok {
			if stats, ok := cached.(*DashboardStats); ok {
				return stats, nil
			}
		}
	}

	vehicles, err := a.vehiclesInScope(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	entries, err := a.Store.ListEntries(ctx, userID, EntryFilter{
		VehicleID:  vehicleID,
		DateAfter:  &period.After,
		DateBefore: &period.Before,
	})
	if err != nil {
		return nil, err
	}
	sortAscending(entries)

	stats := &DashboardStats{PeriodType: pt, Period: period}
	stats.FillUpCount = len(entries)

	maxOdometer := make(map[VehicleID]int64)
	var firstDate, lastDate Date
	for i := range entries {
		e := &entries[i]
		stats.TotalLiters = stats.TotalLiters.Add(e.Liters)
		stats.TotalSpent = stats.TotalSpent.Add(e.TotalAmount)

		if e.Odometer > maxOdometer[e.VehicleID] {
			maxOdometer[e.VehicleID] = e.Odometer
		}
		if firstDate.IsZero() || e.EntryDate.Before(firstDate) {
			firstDate = e.EntryDate
		}
		if lastDate.IsZero() || e.EntryDate.After(lastDate) {
			lastDate = e.EntryDate
		}

		if e.ConsumptionL100Km != nil {
			stats.ConsumptionSeries = append(stats.ConsumptionSeries, TimeSeriesPoint{Date: e.EntryDate, Value: *e.ConsumptionL100Km})
			if stats.MinConsumption == nil || e.ConsumptionL100Km.LessThan(*stats.MinConsumption) {
				stats.MinConsumption = e.ConsumptionL100Km
			}
			if stats.MaxConsumption == nil || e.ConsumptionL100Km.GreaterThan(*stats.MaxConsumption) {
				stats.MaxConsumption = e.ConsumptionL100Km
			}
		}
		stats.UnitPriceSeries = append(stats.UnitPriceSeries, TimeSeriesPoint{Date: e.EntryDate, Value: e.UnitPrice})
		if e.CostPerKm != nil {
			stats.CostPerKmSeries = append(stats.CostPerKmSeries, TimeSeriesPoint{Date: e.EntryDate, Value: *e.CostPerKm})
		}
	}

	// Distance is anchored to each vehicle's initial odometer, never to
	// in-window deltas.
	for id, maxOdo := range maxOdometer {
		if v, ok := vehicles[id]; ok {
			stats.TotalDistance += maxOdo - v.InitialOdometer
		}
	}

	if stats.TotalDistance > 0 {
		dist := decimal.NewFromInt(stats.TotalDistance)
		consumption := stats.TotalLiters.Div(dist).Mul(hundred)
		costPerKm := stats.TotalSpent.Div(dist)
		stats.AverageConsumption = &consumption
		stats.AverageCostPerKm = &costPerKm
	}
	if stats.TotalLiters.IsPositive() {
		unitPrice := stats.TotalSpent.Div(stats.TotalLiters)
		stats.AverageUnitPrice = &unitPrice
	}

	if len(entries) > 0 && stats.TotalDistance > 0 {
		periodDays := period.Days()
		if actual := DaysBetween(firstDate, lastDate) + 1; actual < periodDays {
			periodDays = actual
		}
		if periodDays > 0 {
			perDay := decimal.NewFromInt(stats.TotalDistance).Div(decimal.NewFromInt(int64(periodDays)))
			stats.AverageDistancePerDay = &perDay
		}
	}

	if a.Cache != nil {
		a.Cache.Set(key, stats, StatsTTL)
	}
	return stats, nil
}

// =============================================================================
// BRAND / GRADE LIFETIME GROUPS
// =============================================================================

// GroupStats is a lifetime aggregate for one fuel brand or grade.
type GroupStats struct {
	Key       string
	FillCount int

	AverageUnitPrice   *decimal.Decimal
	AverageConsumption *decimal.Decimal
	AverageCostPerKm   *decimal.Decimal
}

// BrandStats groups the user's entries by fuel brand over all time.
func (a *Aggregator) BrandStats(ctx context.Context, userID UserID, vehicleID *VehicleID) ([]GroupStats, error) {
	return a.groupStats(ctx, "brand_stats", userID, vehicleID, func(e *FuelEntry) string { return e.FuelBrand })
}

// GradeStats groups the user's entries by fuel grade over all time.
func (a *Aggregator) GradeStats(ctx context.Context, userID UserID, vehicleID *VehicleID) ([]GroupStats, error) {
	return a.groupStats(ctx, "grade_stats", userID, vehicleID, func(e *FuelEntry) string { return e.FuelGrade })
}

func (a *Aggregator) groupStats(ctx context.Context, prefix string, userID UserID, vehicleID *VehicleID, keyOf func(*FuelEntry) string) ([]GroupStats, error) {
	key := a.cacheKey(prefix, userID, vehicleID, "", Period{})
	if a.Cache != nil {
		if cached, ok := a.Cache.Get(key); ok {
			if groups, ok := cached.([]GroupStats); ok {
				return groups, nil
			}
		}
	}

	if _, err := a.vehiclesInScope(ctx, userID, vehicleID); err != nil {
		return nil, err
	}

	entries, err := a.Store.ListEntries(ctx, userID, EntryFilter{VehicleID: vehicleID})
	if err != nil {
		return nil, err
	}

	type totals struct {
		liters   decimal.Decimal
		amount   decimal.Decimal
		distance int64
		count    int
	}
	byKey := make(map[string]*totals)
	for i := range entries {
		e := &entries[i]
		k := keyOf(e)
		if k == "" {
			continue
		}
		t := byKey[k]
		if t == nil {
			t = &totals{}
			byKey[k] = t
		}
		t.liters = t.liters.Add(e.Liters)
		t.amount = t.amount.Add(e.TotalAmount)
		if e.DistanceSinceLast != nil {
			t.distance += *e.DistanceSinceLast
		}
		t.count++
	}

	groups := make([]GroupStats, 0, len(byKey))
	for k, t := range byKey {
		g := GroupStats{Key: k, FillCount: t.count}
		if t.liters.IsPositive() {
			unitPrice := t.amount.Div(t.liters)
			g.AverageUnitPrice = &unitPrice
		}
		// Lifetime groups are not windowed, so the delta sum is the right
		// denominator here.
		if t.distance > 0 {
			dist := decimal.NewFromInt(t.distance)
			consumption := t.liters.Div(dist).Mul(hundred)
			costPerKm := t.amount.Div(dist)
			g.AverageConsumption = &consumption
			g.AverageCostPerKm = &costPerKm
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].FillCount != groups[j].FillCount {
			return groups[i].FillCount > groups[j].FillCount
		}
		return groups[i].Key < groups[j].Key
	})

	if a.Cache != nil {
		a.Cache.Set(key, groups, StatsTTL)
	}
	return groups, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// vehiclesInScope resolves the vehicles statistics may touch. A scoped query
// for a vehicle the user does not own reports not-found.
func (a *Aggregator) vehiclesInScope(ctx context.Context, userID UserID, vehicleID *VehicleID) (map[VehicleID]*Vehicle, error) {
	if vehicleID != nil {
		v, err := a.Store.GetVehicle(ctx, *vehicleID, userID)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrVehicleNotFound
		}
		return map[VehicleID]*Vehicle{v.ID: v}, nil
	}

	vehicles, err := a.Store.ListVehicles(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[VehicleID]*Vehicle, len(vehicles))
	for i := range vehicles {
		byID[vehicles[i].ID] = &vehicles[i]
	}
	return byID, nil
}

func (a *Aggregator) cacheKey(prefix string, userID UserID, vehicleID *VehicleID, pt string, period Period) string {
	if a.Cache == nil {
		return ""
	}
	params := map[string]string{"period": pt}
	if vehicleID != nil {
		params["vehicle"] = string(*vehicleID)
	}
	if !period.After.IsZero() {
		params["after"] = period.After.String()
		params["before"] = period.Before.String()
	}
	return CacheKey(prefix, userID, a.Cache.Version(userID), params)
}

func sortAscending(entries []FuelEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OrdersBefore(&entries[j])
	})
}
