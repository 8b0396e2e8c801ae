/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates vehicles and a history
	of fuel entries that demonstrate specific features of the metrics engine.

AVAILABLE SCENARIOS:

	city-commuter:      One car, six months of weekly fill-ups
	two-car-household:  Commuter plus weekend SUV, mixed brands and grades
	price-spike:        One car across a sharp fuel price increase

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create vehicles
 3. Create fuel entries through the engine, oldest first, so every entry
    gets its derived metrics computed the normal way

All entry dates are relative to today, so the dashboard's 30d/90d windows
always contain data.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "city-commuter"}

Data is seeded under the requesting user (X-User-ID).

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - server.go: Route registration
  - fuel/engine.go: The mutation path the loaders go through
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/tanklog/fuel-engine/fuel"
)

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "city-commuter",
		Name:        "City Commuter",
		Description: "One car with six months of weekly fill-ups",
	},
	{
		ID:          "two-car-household",
		Name:        "Two-Car Household",
		Description: "Daily commuter plus a weekend SUV with mixed brands and grades",
	},
	{
		ID:          "price-spike",
		Name:        "Price Spike",
		Description: "One car refueling across a sharp fuel price increase",
	},
}

// resetter is implemented by stores that can wipe all data.
type resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the database and loads a predefined scenario for the
// requesting user.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rs, ok := h.Store.(resetter)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Store does not support reset", nil)
		return
	}

	ctx := r.Context()
	if err := rs.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	userID := userFrom(r)
	var err error
	switch req.ScenarioID {
	case "city-commuter":
		err = h.loadCityCommuterScenario(ctx, userID)
	case "two-car-household":
		err = h.loadTwoCarHouseholdScenario(ctx, userID)
	case "price-spike":
		err = h.loadPriceSpikeScenario(ctx, userID)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// fillPlan generates a refueling history: count fills ending today, spaced
// intervalDays apart, each covering kmPerFill. price is per liter; every
// fill buys liters litres at that day's price.
type fillPlan struct {
	count        int
	intervalDays int
	kmPerFill    int64
	liters       string
	price        func(i int) decimal.Decimal

	stationName string
	fuelBrand   string
	fuelGrade   string
}

func (h *Handler) runFillPlan(ctx context.Context, userID fuel.UserID, vehicleID fuel.VehicleID, startOdometer int64, p fillPlan) error {
	today := fuel.Today()
	liters := fuel.MustParseDecimal(p.liters)

	for i := 0; i < p.count; i++ {
		date := today.AddDays(-p.intervalDays * (p.count - 1 - i))
		odometer := startOdometer + p.kmPerFill*int64(i+1)
		amount := liters.Mul(p.price(i))

		_, err := h.Engine.CreateEntry(ctx, userID, fuel.EntryInput{
			VehicleID:   vehicleID,
			EntryDate:   date,
			Odometer:    odometer,
			Liters:      liters,
			TotalAmount: amount,
			StationName: p.stationName,
			FuelBrand:   p.fuelBrand,
			FuelGrade:   p.fuelGrade,
		})
		if err != nil {
			return fmt.Errorf("fill %d: %w", i+1, err)
		}
	}
	return nil
}

func (h *Handler) loadCityCommuterScenario(ctx context.Context, userID fuel.UserID) error {
	v, err := h.Engine.CreateVehicle(ctx, userID, fuel.VehicleInput{
		Name:            "Daily Commuter",
		Make:            "Toyota",
		Model:           "Corolla",
		Year:            2020,
		FuelType:        "petrol",
		IsActive:        true,
		InitialOdometer: 42000,
	})
	if err != nil {
		return err
	}

	// 26 weekly fills, small price wobble around 1.80/L.
	return h.runFillPlan(ctx, userID, v.ID, v.InitialOdometer, fillPlan{
		count:        26,
		intervalDays: 7,
		kmPerFill:    460,
		liters:       "38.5",
		price: func(i int) decimal.Decimal {
			cents := 180 + int64(i%5) - 2
			return decimal.New(cents, -2)
		},
		stationName: "Shell Downtown",
		fuelBrand:   "Shell",
		fuelGrade:   "95",
	})
}

func (h *Handler) loadTwoCarHouseholdScenario(ctx context.Context, userID fuel.UserID) error {
	if err := h.loadCityCommuterScenario(ctx, userID); err != nil {
		return err
	}

	suv, err := h.Engine.CreateVehicle(ctx, userID, fuel.VehicleInput{
		Name:            "Weekend SUV",
		Make:            "Volvo",
		Model:           "XC60",
		Year:            2018,
		FuelType:        "diesel",
		IsActive:        true,
		InitialOdometer: 98000,
	})
	if err != nil {
		return err
	}

	// Sparse fills, every three weeks, longer trips.
	return h.runFillPlan(ctx, userID, suv.ID, suv.InitialOdometer, fillPlan{
		count:        9,
		intervalDays: 21,
		kmPerFill:    620,
		liters:       "52",
		price: func(i int) decimal.Decimal {
			cents := 172 + int64(i%3)
			return decimal.New(cents, -2)
		},
		stationName: "BP Highway",
		fuelBrand:   "BP",
		fuelGrade:   "Diesel",
	})
}

func (h *Handler) loadPriceSpikeScenario(ctx context.Context, userID fuel.UserID) error {
	v, err := h.Engine.CreateVehicle(ctx, userID, fuel.VehicleInput{
		Name:            "Price Watcher",
		Make:            "Honda",
		Model:           "Civic",
		Year:            2021,
		FuelType:        "petrol",
		IsActive:        true,
		InitialOdometer: 15000,
	})
	if err != nil {
		return err
	}

	// 16 weekly fills; the price jumps 25% at the halfway point so the
	// unit price series shows a clear step.
	return h.runFillPlan(ctx, userID, v.ID, v.InitialOdometer, fillPlan{
		count:        16,
		intervalDays: 7,
		kmPerFill:    400,
		liters:       "36",
		price: func(i int) decimal.Decimal {
			if i < 8 {
				return decimal.New(160, -2)
			}
			return decimal.New(200, -2)
		},
		stationName: "Circle K",
		fuelBrand:   "Circle K",
		fuelGrade:   "95",
	})
}
