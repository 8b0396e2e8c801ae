package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanklog/fuel-engine/fuel"
	"github.com/tanklog/fuel-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveVehicle(t *testing.T, s *sqlite.Store, id fuel.VehicleID, userID fuel.UserID) *fuel.Vehicle {
	t.Helper()
	v := &fuel.Vehicle{
		ID:              id,
		UserID:          userID,
		Name:            string(id),
		Make:            "Toyota",
		Model:           "Corolla",
		Year:            2020,
		FuelType:        "petrol",
		IsActive:        true,
		InitialOdometer: 1000,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.SaveVehicle(context.Background(), v))
	return v
}

func insertEntry(t *testing.T, s *sqlite.Store, id fuel.EntryID, vehicleID fuel.VehicleID, date fuel.Date, odometer int64) *fuel.FuelEntry {
	t.Helper()
	e := &fuel.FuelEntry{
		ID:          id,
		VehicleID:   vehicleID,
		UserID:      "user-1",
		EntryDate:   date,
		Odometer:    odometer,
		Liters:      fuel.MustParseDecimal("42.5"),
		TotalAmount: fuel.MustParseDecimal("2337.5"),
		UnitPrice:   fuel.MustParseDecimal("55"),
		FuelBrand:   "Shell",
		FuelGrade:   "95",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.InsertEntry(context.Background(), e))
	return e
}

func TestVehicleCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	v := saveVehicle(t, store, "v-1", "user-1")

	got, err := store.GetVehicle(ctx, "v-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, v.Name, got.Name)
	assert.Equal(t, v.Make, got.Make)
	assert.Equal(t, v.Year, got.Year)
	assert.Equal(t, int64(1000), got.InitialOdometer)
	assert.True(t, got.IsActive)

	got.Name = "Renamed"
	got.InitialOdometer = 1200
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateVehicle(ctx, got))

	got, err = store.GetVehicle(ctx, "v-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(1200), got.InitialOdometer)

	require.NoError(t, store.DeleteVehicle(ctx, "v-1", "user-1"))
	got, err = store.GetVehicle(ctx, "v-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVehicleOwnershipScoping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saveVehicle(t, store, "v-1", "user-1")

	got, err := store.GetVehicle(ctx, "v-1", "user-2")
	require.NoError(t, err)
	assert.Nil(t, got, "foreign user should not see the vehicle")

	err = store.DeleteVehicle(ctx, "v-1", "user-2")
	assert.True(t, errors.Is(err, fuel.ErrVehicleNotFound))

	vehicles, err := store.ListVehicles(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, vehicles)
}

func TestInsertEntryAssignsIncreasingSeq(t *testing.T) {
	store := newTestStore(t)
	saveVehicle(t, store, "v-1", "user-1")

	day := fuel.NewDate(2025, 6, 5)
	first := insertEntry(t, store, "e-1", "v-1", day, 2000)
	second := insertEntry(t, store, "e-2", "v-1", day, 2500)

	assert.Greater(t, second.CreatedSeq, first.CreatedSeq)
	assert.Positive(t, first.CreatedSeq)
}

func TestUpdateEntryPreservesCreatedSeq(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")

	e := insertEntry(t, store, "e-1", "v-1", fuel.NewDate(2025, 6, 5), 2000)
	originalSeq := e.CreatedSeq

	e.Odometer = 2100
	e.Notes = "topped up"
	e.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateEntry(ctx, e))

	got, err := store.GetEntry(ctx, "e-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, originalSeq, got.CreatedSeq)
	assert.Equal(t, int64(2100), got.Odometer)
	assert.Equal(t, "topped up", got.Notes)
}

func TestEntriesForVehicleOrdering(t *testing.T) {
	store := newTestStore(t)
	saveVehicle(t, store, "v-1", "user-1")

	day := fuel.NewDate(2025, 6, 5)
	insertEntry(t, store, "e-late", "v-1", fuel.NewDate(2025, 6, 10), 4000)
	insertEntry(t, store, "e-a", "v-1", day, 2000)
	insertEntry(t, store, "e-b", "v-1", day, 3000)

	entries, err := store.EntriesForVehicle(context.Background(), "v-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, fuel.EntryID("e-a"), entries[0].ID)
	assert.Equal(t, fuel.EntryID("e-b"), entries[1].ID)
	assert.Equal(t, fuel.EntryID("e-late"), entries[2].ID)
}

func TestNeighborQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")

	insertEntry(t, store, "e-1", "v-1", fuel.NewDate(2025, 6, 1), 2000)
	mid := insertEntry(t, store, "e-2", "v-1", fuel.NewDate(2025, 6, 5), 3000)
	insertEntry(t, store, "e-3", "v-1", fuel.NewDate(2025, 6, 10), 4000)

	// A new same-day entry probes with the max sequence and sorts after
	// every existing entry on that date.
	prev, err := store.Predecessor(ctx, "v-1", fuel.NewDate(2025, 6, 5), fuel.ProbeSeqNow, "")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, fuel.EntryID("e-2"), prev.ID)

	next, err := store.Successor(ctx, "v-1", fuel.NewDate(2025, 6, 5), fuel.ProbeSeqNow, "")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, fuel.EntryID("e-3"), next.ID)

	// An edited entry probes with its stored sequence and excludes itself.
	prev, err = store.Predecessor(ctx, "v-1", mid.EntryDate, mid.CreatedSeq, mid.ID)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, fuel.EntryID("e-1"), prev.ID)

	next, err = store.Successor(ctx, "v-1", mid.EntryDate, mid.CreatedSeq, mid.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, fuel.EntryID("e-3"), next.ID)

	// No predecessor before the first entry.
	prev, err = store.Predecessor(ctx, "v-1", fuel.NewDate(2025, 5, 1), fuel.ProbeSeqNow, "")
	require.NoError(t, err)
	assert.Nil(t, prev)

	// No successor after the last entry.
	next, err = store.Successor(ctx, "v-1", fuel.NewDate(2025, 6, 20), fuel.ProbeSeqNow, "")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestDerivedFieldsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")

	e := insertEntry(t, store, "e-1", "v-1", fuel.NewDate(2025, 6, 5), 2000)

	// NULLs survive the round trip.
	got, err := store.GetEntry(ctx, "e-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got.DistanceSinceLast)
	assert.Nil(t, got.ConsumptionL100Km)
	assert.Nil(t, got.CostPerKm)

	distance := int64(500)
	consumption := fuel.MustParseDecimal("8.5")
	costPerKm := fuel.MustParseDecimal("4.675")
	e.DistanceSinceLast = &distance
	e.ConsumptionL100Km = &consumption
	e.CostPerKm = &costPerKm
	require.NoError(t, store.UpdateDerived(ctx, []*fuel.FuelEntry{e}))

	got, err = store.GetEntry(ctx, "e-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got.DistanceSinceLast)
	assert.Equal(t, int64(500), *got.DistanceSinceLast)
	require.NotNil(t, got.ConsumptionL100Km)
	assert.True(t, got.ConsumptionL100Km.Equal(consumption))
	require.NotNil(t, got.CostPerKm)
	assert.True(t, got.CostPerKm.Equal(costPerKm))
	assert.True(t, got.Liters.Equal(e.Liters), "decimal text storage must not lose precision")
}

func TestListEntriesFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")
	saveVehicle(t, store, "v-2", "user-1")

	insertEntry(t, store, "e-1", "v-1", fuel.NewDate(2025, 6, 1), 2000)
	e2 := insertEntry(t, store, "e-2", "v-1", fuel.NewDate(2025, 6, 10), 3000)
	e2.FuelBrand = "BP"
	e2.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateEntry(ctx, e2))
	insertEntry(t, store, "e-3", "v-2", fuel.NewDate(2025, 6, 15), 1500)

	// Newest first.
	all, err := store.ListEntries(ctx, "user-1", fuel.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, fuel.EntryID("e-3"), all[0].ID)
	assert.Equal(t, fuel.EntryID("e-1"), all[2].ID)

	// Vehicle scope.
	vid := fuel.VehicleID("v-2")
	scoped, err := store.ListEntries(ctx, "user-1", fuel.EntryFilter{VehicleID: &vid})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, fuel.EntryID("e-3"), scoped[0].ID)

	// Case-insensitive substring brand match.
	branded, err := store.ListEntries(ctx, "user-1", fuel.EntryFilter{FuelBrand: "bp"})
	require.NoError(t, err)
	require.Len(t, branded, 1)
	assert.Equal(t, fuel.EntryID("e-2"), branded[0].ID)

	// Inclusive date window.
	after := fuel.NewDate(2025, 6, 10)
	before := fuel.NewDate(2025, 6, 15)
	windowed, err := store.ListEntries(ctx, "user-1", fuel.EntryFilter{DateAfter: &after, DateBefore: &before})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)
}

func TestDeleteVehicleCascadesEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")
	insertEntry(t, store, "e-1", "v-1", fuel.NewDate(2025, 6, 1), 2000)

	require.NoError(t, store.DeleteVehicle(ctx, "v-1", "user-1"))

	got, err := store.GetEntry(ctx, "e-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got, "entries should be removed with their vehicle")
}

func TestWithTxCommitAndRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")

	err := store.WithTx(ctx, func(s fuel.Store) error {
		return s.InsertEntry(ctx, &fuel.FuelEntry{
			ID:          "e-1",
			VehicleID:   "v-1",
			UserID:      "user-1",
			EntryDate:   fuel.NewDate(2025, 6, 1),
			Odometer:    2000,
			Liters:      fuel.MustParseDecimal("40"),
			TotalAmount: fuel.MustParseDecimal("200"),
			UnitPrice:   fuel.MustParseDecimal("5"),
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	got, err := store.GetEntry(ctx, "e-1", "user-1")
	require.NoError(t, err)
	assert.NotNil(t, got, "committed insert should be visible")

	boom := errors.New("boom")
	err = store.WithTx(ctx, func(s fuel.Store) error {
		if err := s.DeleteEntry(ctx, "e-1", "user-1"); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	got, err = store.GetEntry(ctx, "e-1", "user-1")
	require.NoError(t, err)
	assert.NotNil(t, got, "rolled back delete should leave the entry")
}

func TestUpdateMissingEntry(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateEntry(context.Background(), &fuel.FuelEntry{
		ID:          "ghost",
		UserID:      "user-1",
		EntryDate:   fuel.NewDate(2025, 6, 1),
		Liters:      fuel.MustParseDecimal("1"),
		TotalAmount: fuel.MustParseDecimal("1"),
		UnitPrice:   fuel.MustParseDecimal("1"),
	})
	assert.True(t, errors.Is(err, fuel.ErrEntryNotFound))
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveVehicle(t, store, "v-1", "user-1")
	insertEntry(t, store, "e-1", "v-1", fuel.NewDate(2025, 6, 1), 2000)

	require.NoError(t, store.Reset(ctx))

	vehicles, err := store.ListVehicles(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, vehicles)

	entries, err := store.ListEntries(ctx, "user-1", fuel.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
