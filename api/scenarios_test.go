/*
scenarios_test.go - Tests for demo scenario loaders and the metrics sweeper

PURPOSE:
	Scenarios seed data through the engine, so loading one is also an
	integration test of the cascade: every seeded entry must come out with
	consistent derived metrics, and the dashboard must see the data.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/tanklog/fuel-engine/fuel"
	"github.com/tanklog/fuel-engine/fuel/store"
)

func TestListScenarios(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, "GET", "/api/scenarios", "demo-user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List scenarios = %d", rec.Code)
	}
	var list []ScenarioDTO
	decodeBody(t, rec, &list)
	if len(list) != 3 {
		t.Fatalf("Expected 3 scenarios, got %d", len(list))
	}
}

func TestLoadScenario_CityCommuter(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: The city-commuter scenario is loaded
	// THEN: One vehicle exists and every seeded entry carries derived metrics

	router := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/scenarios/load", "demo-user",
		map[string]string{"scenario_id": "city-commuter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Load = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/vehicles", "demo-user", nil)
	var vehicles []VehicleDTO
	decodeBody(t, rec, &vehicles)
	if len(vehicles) != 1 {
		t.Fatalf("Expected 1 vehicle, got %d", len(vehicles))
	}

	rec = doJSON(t, router, "GET", "/api/entries", "demo-user", nil)
	var entries []EntryDTO
	decodeBody(t, rec, &entries)
	if len(entries) != 26 {
		t.Fatalf("Expected 26 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.DistanceSinceLast == nil || *e.DistanceSinceLast != 460 {
			t.Fatalf("Entry %s DistanceSinceLast = %v, want 460", e.ID, e.DistanceSinceLast)
		}
		if e.Consumption == nil {
			t.Fatalf("Entry %s has no consumption", e.ID)
		}
	}

	// The seeded history is visible to the default dashboard window.
	rec = doJSON(t, router, "GET", "/api/statistics/dashboard", "demo-user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Dashboard = %d, body %s", rec.Code, rec.Body.String())
	}
	var dash DashboardDTO
	decodeBody(t, rec, &dash)
	if dash.FillUpCount == 0 {
		t.Error("Expected fills inside the default 30d window")
	}

	// Current scenario endpoint reflects the load.
	rec = doJSON(t, router, "GET", "/api/scenarios/current", "demo-user", nil)
	var current ScenarioDTO
	decodeBody(t, rec, &current)
	if current.ID != "city-commuter" {
		t.Errorf("Current scenario = %q, want city-commuter", current.ID)
	}
}

func TestLoadScenario_TwoCarHousehold(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/scenarios/load", "demo-user",
		map[string]string{"scenario_id": "two-car-household"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Load = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/vehicles", "demo-user", nil)
	var vehicles []VehicleDTO
	decodeBody(t, rec, &vehicles)
	if len(vehicles) != 2 {
		t.Fatalf("Expected 2 vehicles, got %d", len(vehicles))
	}

	// Both brands show up in the lifetime brand aggregates.
	rec = doJSON(t, router, "GET", "/api/statistics/brands", "demo-user", nil)
	var groups []GroupStatsDTO
	decodeBody(t, rec, &groups)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 brand groups, got %+v", groups)
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	router := newTestServer(t)
	rec := doJSON(t, router, "POST", "/api/scenarios/load", "demo-user",
		map[string]string{"scenario_id": "does-not-exist"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Unknown scenario = %d, want 400", rec.Code)
	}
}

func TestLoadScenario_ResetsPreviousData(t *testing.T) {
	// GIVEN: A loaded scenario
	// WHEN: Another scenario is loaded
	// THEN: The previous data is gone

	router := newTestServer(t)
	doJSON(t, router, "POST", "/api/scenarios/load", "demo-user",
		map[string]string{"scenario_id": "two-car-household"})
	doJSON(t, router, "POST", "/api/scenarios/load", "demo-user",
		map[string]string{"scenario_id": "price-spike"})

	rec := doJSON(t, router, "GET", "/api/vehicles", "demo-user", nil)
	var vehicles []VehicleDTO
	decodeBody(t, rec, &vehicles)
	if len(vehicles) != 1 || vehicles[0].Name != "Price Watcher" {
		t.Fatalf("Expected only the Price Watcher vehicle, got %+v", vehicles)
	}
}

func TestMetricsSweeper_RepairsDrift(t *testing.T) {
	// GIVEN: An entry whose derived fields were corrupted out-of-band
	// WHEN: The sweeper runs
	// THEN: The metrics are rebuilt from the entry sequence

	st := store.NewTxMemory()
	h := NewHandler(st, fuel.NewMemoryCache())
	ctx := context.Background()

	v, err := h.Engine.CreateVehicle(ctx, "user-1", fuel.VehicleInput{
		Name: "Sweeper Test", IsActive: true, InitialOdometer: 1000,
	})
	if err != nil {
		t.Fatalf("Create vehicle: %v", err)
	}
	e, err := h.Engine.CreateEntry(ctx, "user-1", fuel.EntryInput{
		VehicleID:   v.ID,
		EntryDate:   fuel.Today(),
		Odometer:    1500,
		Liters:      fuel.MustParseDecimal("40"),
		TotalAmount: fuel.MustParseDecimal("2000"),
	})
	if err != nil {
		t.Fatalf("Create entry: %v", err)
	}

	// Corrupt the derived fields behind the engine's back.
	bad := int64(9999)
	e.DistanceSinceLast = &bad
	if err := st.UpdateDerived(ctx, []*fuel.FuelEntry{e}); err != nil {
		t.Fatalf("Corrupt: %v", err)
	}

	sweeper := NewMetricsSweeper(st, h.Engine)
	sweeper.RunNow()

	got, err := st.GetEntry(ctx, e.ID, "user-1")
	if err != nil {
		t.Fatalf("Get entry: %v", err)
	}
	if got.DistanceSinceLast == nil || *got.DistanceSinceLast != 500 {
		t.Errorf("DistanceSinceLast = %v, want 500 after sweep", got.DistanceSinceLast)
	}
}
