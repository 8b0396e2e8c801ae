/*
Package fuel provides the core fuel-economy metrics engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking vehicle
  refueling events and keeping their derived metrics consistent. Each fuel
  entry carries four computed fields (unit price, distance since the last
  fill, consumption per 100 km, cost per km) that depend on the entry's
  position in the vehicle's odometer-ordered sequence.

KEY CONCEPTS IN THIS FILE (types.go):
  - Vehicle: An owned vehicle with an initial odometer reading that anchors
    the first entry's distance computation
  - FuelEntry: A single refueling record with user-supplied inputs and
    system-computed derived metrics
  - Ordering key: (EntryDate, CreatedSeq) - the deterministic total order
    over a vehicle's entries
  - Typed IDs: UserID/VehicleID/EntryID prevent mixing identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all monetary/volume arithmetic,
     so repeated cascade recalculation never drifts
  2. Derived fields are never user-supplied: only the engine writes them
  3. Ordering is total and deterministic: same-day entries are tie-broken
     by a store-assigned creation sequence
  4. Internal units are fixed: kilometers and liters

SEE ALSO:
  - calculator.go: Per-entry derived field computation
  - engine.go: Cascade recalculation on create/update/delete
  - stats.go: Windowed and lifetime aggregates
*/
package fuel

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type VehicleID string
type EntryID string

// =============================================================================
// VEHICLE
// =============================================================================

// Vehicle is a user-owned vehicle. InitialOdometer is the reading before any
// tracked entry and acts as the implicit "entry zero": the first fuel entry's
// distance is computed against it, and every entry's odometer must exceed it.
type Vehicle struct {
	ID     VehicleID
	UserID UserID

	Name     string
	Make     string
	Model    string
	Year     int
	FuelType string
	IsActive bool

	// Odometer reading in km at the start of tracking.
	InitialOdometer int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// FUEL ENTRY
// =============================================================================

// FuelEntry is a single refueling record. Input fields are user-supplied;
// derived fields are computed by the engine and never accepted from callers.
type FuelEntry struct {
	ID        EntryID
	VehicleID VehicleID
	UserID    UserID

	// Input fields.
	EntryDate   Date
	Odometer    int64 // km, strictly increasing along the vehicle's ordering
	StationName string
	FuelBrand   string
	FuelGrade   string
	Liters      decimal.Decimal // > 0
	TotalAmount decimal.Decimal // > 0, currency-agnostic
	Notes       string

	// CreatedSeq is the ordering tie-breaker for same-day entries, assigned
	// once by the store at creation time and never changed afterwards.
	CreatedSeq int64

	// Derived fields. UnitPrice is always computed; the other three are nil
	// when the computed distance is not positive.
	UnitPrice         decimal.Decimal
	DistanceSinceLast *int64
	ConsumptionL100Km *decimal.Decimal
	CostPerKm         *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrdersBefore reports whether e precedes other in the vehicle's total order
// (entry date ascending, creation sequence ascending).
func (e *FuelEntry) OrdersBefore(other *FuelEntry) bool {
	if !e.EntryDate.Equal(other.EntryDate) {
		return e.EntryDate.Before(other.EntryDate)
	}
	return e.CreatedSeq < other.CreatedSeq
}

// ClearDerived resets the position-dependent derived fields.
func (e *FuelEntry) ClearDerived() {
	e.DistanceSinceLast = nil
	e.ConsumptionL100Km = nil
	e.CostPerKm = nil
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustParseDecimal parses s, returning zero on malformed input. Intended for
// constants and store scans where the value was written by this system.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var hundred = decimal.NewFromInt(100)
