/*
engine.go - Cascade recalculation engine and write API

PURPOSE:
  Keeps every entry's derived fields consistent with the ordering model
  after any mutation. Each write operation runs validation, the calculator,
  and the cascade inside a single store transaction: either every affected
  entry is persisted consistently, or none is.

CASCADE STRATEGY:
  Create/Update: forward sweep only. The vehicle's sequence is fetched once,
  and recomputation starts at the mutated entry's position; entries before
  it keep their predecessor and are never touched.

  Delete / initial-odometer change: full rebuild. Deletion can change
  neighbor identity in both directions, and a moved "entry zero" shifts the
  anchor for the whole chain, so the engine re-walks the entire surviving
  sequence. One fetch, one in-memory pass, one bulk persist - never a
  per-entry query.

  The sweep terminates trivially: recomputation changes only derived
  fields, never the ordering key.

CACHE:
  Every successful mutation bumps the owner's statistics cache version so
  stale aggregates are never served past the write. The cache is optional;
  correctness never depends on it.

SEE ALSO:
  - calculator.go: The per-entry computation the sweeps drive
  - validate.go: Runs before any cascade work
  - stats.go: Reads the maintained fields, never recomputes
*/
package fuel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns all mutations of vehicles and fuel entries.
type Engine struct {
	Store TxStore
	Cache StatsCache // optional

	// Now is the clock used for "today" checks and timestamps.
	// Defaults to time.Now; tests pin it.
	Now func() time.Time
}

func NewEngine(store TxStore, cache StatsCache) *Engine {
	return &Engine{Store: store, Cache: cache, Now: time.Now}
}

func (en *Engine) now() time.Time {
	if en.Now != nil {
		return en.Now()
	}
	return time.Now()
}

func (en *Engine) bumpCache(userID UserID) {
	if en.Cache != nil {
		en.Cache.BumpVersion(userID)
	}
}

// =============================================================================
// INPUTS
// =============================================================================

// EntryInput carries the user-supplied fields of a fuel entry. Derived
// fields are never accepted from callers.
type EntryInput struct {
	VehicleID   VehicleID
	EntryDate   Date
	Odometer    int64
	StationName string
	FuelBrand   string
	FuelGrade   string
	Liters      decimal.Decimal
	TotalAmount decimal.Decimal
	Notes       string
}

// VehicleInput carries the user-supplied fields of a vehicle.
type VehicleInput struct {
	Name            string
	Make            string
	Model           string
	Year            int
	FuelType        string
	InitialOdometer int64
	IsActive        bool
}

// =============================================================================
// ENTRY WRITE OPERATIONS
// =============================================================================

// CreateEntry validates, persists, and computes a new fuel entry, then
// recomputes every entry after it in the vehicle's ordering.
func (en *Engine) CreateEntry(ctx context.Context, userID UserID, in EntryInput) (*FuelEntry, error) {
	now := en.now()
	e := &FuelEntry{
		ID:          EntryID(uuid.NewString()),
		VehicleID:   in.VehicleID,
		UserID:      userID,
		EntryDate:   in.EntryDate,
		Odometer:    in.Odometer,
		StationName: strings.TrimSpace(in.StationName),
		FuelBrand:   strings.TrimSpace(in.FuelBrand),
		FuelGrade:   strings.TrimSpace(in.FuelGrade),
		Liters:      in.Liters,
		TotalAmount: in.TotalAmount,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := ValidateEntryInput(e, DateOf(now)); err != nil {
		return nil, err
	}

	var result *FuelEntry
	err := en.Store.WithTx(ctx, func(s Store) error {
		v, err := s.GetVehicle(ctx, e.VehicleID, userID)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrVehicleNotFound
		}

		// A new entry sorts after all existing same-day entries.
		if err := ValidateMonotonicity(ctx, s, v, e.Odometer, e.EntryDate, ProbeSeqNow, ""); err != nil {
			return err
		}

		if err := s.InsertEntry(ctx, e); err != nil {
			return err
		}

		result, err = en.cascadeFrom(ctx, s, v, e.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	en.bumpCache(userID)
	return result, nil
}

// UpdateEntry applies new input fields to an existing entry. Monotonicity is
// re-checked only when the odometer or the vehicle changed; the forward
// cascade re-runs only when an ordering-relevant field (odometer, date,
// vehicle) changed. Editing unrelated fields touches nothing downstream.
func (en *Engine) UpdateEntry(ctx context.Context, userID UserID, id EntryID, in EntryInput) (*FuelEntry, error) {
	now := en.now()

	var result *FuelEntry
	err := en.Store.WithTx(ctx, func(s Store) error {
		e, err := s.GetEntry(ctx, id, userID)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrEntryNotFound
		}

		target, err := s.GetVehicle(ctx, in.VehicleID, userID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrVehicleNotFound
		}

		vehicleChanged := in.VehicleID != e.VehicleID
		odometerChanged := in.Odometer != e.Odometer
		dateChanged := !in.EntryDate.Equal(e.EntryDate)
		previousVehicle := e.VehicleID

		candidate := *e
		candidate.VehicleID = in.VehicleID
		candidate.EntryDate = in.EntryDate
		candidate.Odometer = in.Odometer
		candidate.StationName = strings.TrimSpace(in.StationName)
		candidate.FuelBrand = strings.TrimSpace(in.FuelBrand)
		candidate.FuelGrade = strings.TrimSpace(in.FuelGrade)
		candidate.Liters = in.Liters
		candidate.TotalAmount = in.TotalAmount
		candidate.Notes = strings.TrimSpace(in.Notes)
		candidate.UpdatedAt = now

		if err := ValidateEntryInput(&candidate, DateOf(now)); err != nil {
			return err
		}

		// The entry keeps its original creation sequence so its position
		// among same-day peers does not shift just because it was edited.
		if odometerChanged || vehicleChanged {
			if err := ValidateMonotonicity(ctx, s, target, candidate.Odometer, candidate.EntryDate, candidate.CreatedSeq, candidate.ID); err != nil {
				return err
			}
		}

		if err := s.UpdateEntry(ctx, &candidate); err != nil {
			return err
		}

		switch {
		case vehicleChanged:
			// Both sequences changed shape: the old one lost an entry, the
			// new one gained one. Rebuild each in full.
			if err := en.rebuildVehicle(ctx, s, userID, previousVehicle); err != nil {
				return err
			}
			if _, err := en.rebuildVehicleFetched(ctx, s, target); err != nil {
				return err
			}
			result, err = s.GetEntry(ctx, id, userID)
			return err

		case odometerChanged || dateChanged:
			result, err = en.cascadeFrom(ctx, s, target, candidate.ID)
			return err

		default:
			// Liters or amount may have changed; only this entry's own
			// derived fields can differ. Predecessor identity is unchanged.
			prev, err := s.Predecessor(ctx, target.ID, candidate.EntryDate, candidate.CreatedSeq, candidate.ID)
			if err != nil {
				return err
			}
			Calculate(&candidate, prev, target.InitialOdometer)
			if err := s.UpdateDerived(ctx, []*FuelEntry{&candidate}); err != nil {
				return err
			}
			result = &candidate
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	en.bumpCache(userID)
	return result, nil
}

// DeleteEntry removes an entry and rebuilds the surviving sequence from
// scratch. Deletion can change neighbor identity in either direction, so the
// full linear rebuild is the intentionally simple, safe strategy.
func (en *Engine) DeleteEntry(ctx context.Context, userID UserID, id EntryID) error {
	err := en.Store.WithTx(ctx, func(s Store) error {
		e, err := s.GetEntry(ctx, id, userID)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrEntryNotFound
		}

		if err := s.DeleteEntry(ctx, id, userID); err != nil {
			return err
		}

		return en.rebuildVehicle(ctx, s, userID, e.VehicleID)
	})
	if err != nil {
		return err
	}

	en.bumpCache(userID)
	return nil
}

// =============================================================================
// VEHICLE WRITE OPERATIONS
// =============================================================================

// CreateVehicle creates a vehicle for the user. Names are unique per user.
func (en *Engine) CreateVehicle(ctx context.Context, userID UserID, in VehicleInput) (*Vehicle, error) {
	if in.InitialOdometer < 0 {
		return nil, &QuantityError{Field: "initial_odometer"}
	}

	now := en.now()
	v := &Vehicle{
		ID:              VehicleID(uuid.NewString()),
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Make:            strings.TrimSpace(in.Make),
		Model:           strings.TrimSpace(in.Model),
		Year:            in.Year,
		FuelType:        strings.TrimSpace(in.FuelType),
		IsActive:        in.IsActive,
		InitialOdometer: in.InitialOdometer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := en.Store.WithTx(ctx, func(s Store) error {
		taken, err := vehicleNameTaken(ctx, s, userID, v.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrVehicleNameTaken
		}
		return s.SaveVehicle(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	en.bumpCache(userID)
	return v, nil
}

// UpdateVehicle applies new fields to a vehicle. Changing the initial
// odometer moves the synthetic "entry zero", so it is validated against the
// earliest entry and forces a full metrics rebuild for the vehicle.
func (en *Engine) UpdateVehicle(ctx context.Context, userID UserID, id VehicleID, in VehicleInput) (*Vehicle, error) {
	if in.InitialOdometer < 0 {
		return nil, &QuantityError{Field: "initial_odometer"}
	}

	var result *Vehicle
	err := en.Store.WithTx(ctx, func(s Store) error {
		v, err := s.GetVehicle(ctx, id, userID)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrVehicleNotFound
		}

		name := strings.TrimSpace(in.Name)
		if name != v.Name {
			taken, err := vehicleNameTaken(ctx, s, userID, name, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrVehicleNameTaken
			}
		}

		initialChanged := in.InitialOdometer != v.InitialOdometer

		v.Name = name
		v.Make = strings.TrimSpace(in.Make)
		v.Model = strings.TrimSpace(in.Model)
		v.Year = in.Year
		v.FuelType = strings.TrimSpace(in.FuelType)
		v.IsActive = in.IsActive
		v.InitialOdometer = in.InitialOdometer
		v.UpdatedAt = en.now()

		if initialChanged {
			entries, err := s.EntriesForVehicle(ctx, v.ID)
			if err != nil {
				return err
			}
			if err := ValidateInitialOdometer(v.InitialOdometer, entries); err != nil {
				return err
			}
			if err := s.UpdateVehicle(ctx, v); err != nil {
				return err
			}
			if err := en.rebuildSequence(ctx, s, v, entries); err != nil {
				return err
			}
		} else if err := s.UpdateVehicle(ctx, v); err != nil {
			return err
		}

		result = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	en.bumpCache(userID)
	return result, nil
}

// DeleteVehicle removes a vehicle and every entry it owns.
func (en *Engine) DeleteVehicle(ctx context.Context, userID UserID, id VehicleID) error {
	err := en.Store.WithTx(ctx, func(s Store) error {
		v, err := s.GetVehicle(ctx, id, userID)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrVehicleNotFound
		}
		return s.DeleteVehicle(ctx, id, userID)
	})
	if err != nil {
		return err
	}

	en.bumpCache(userID)
	return nil
}

// =============================================================================
// CASCADE SWEEPS
// =============================================================================

// cascadeFrom fetches the vehicle's sequence once and recomputes derived
// fields from the entry with the given id forward. Entries before it are
// never touched. Returns the fresh copy of the mutated entry.
func (en *Engine) cascadeFrom(ctx context.Context, s Store, v *Vehicle, from EntryID) (*FuelEntry, error) {
	entries, err := s.EntriesForVehicle(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	start := -1
	ptrs := make([]*FuelEntry, len(entries))
	for i := range entries {
		ptrs[i] = &entries[i]
		if entries[i].ID == from {
			start = i
		}
	}
	if start < 0 {
		// The mutated entry vanished mid-transaction; the ordering
		// invariant was violated upstream.
		return nil, fmt.Errorf("cascade: entry %s not in sequence of vehicle %s", from, v.ID)
	}

	var prev *FuelEntry
	if start > 0 {
		prev = ptrs[start-1]
	}

	var changed []*FuelEntry
	for _, e := range ptrs[start:] {
		before := snapshotDerived(e)
		Calculate(e, prev, v.InitialOdometer)
		if !before.equal(e) {
			changed = append(changed, e)
		}
		prev = e
	}

	if len(changed) > 0 {
		if err := s.UpdateDerived(ctx, changed); err != nil {
			return nil, err
		}
	}

	fresh := *ptrs[start]
	return &fresh, nil
}

// rebuildVehicle re-walks a vehicle's entire sequence. Used after deletion
// and after the entry lost to a vehicle reassignment.
func (en *Engine) rebuildVehicle(ctx context.Context, s Store, userID UserID, vehicleID VehicleID) error {
	v, err := s.GetVehicle(ctx, vehicleID, userID)
	if err != nil {
		return err
	}
	if v == nil {
		// Vehicle deleted concurrently; nothing left to rebuild.
		return nil
	}
	_, err = en.rebuildVehicleFetched(ctx, s, v)
	return err
}

func (en *Engine) rebuildVehicleFetched(ctx context.Context, s Store, v *Vehicle) (int, error) {
	entries, err := s.EntriesForVehicle(ctx, v.ID)
	if err != nil {
		return 0, err
	}
	if err := en.rebuildSequence(ctx, s, v, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (en *Engine) rebuildSequence(ctx context.Context, s Store, v *Vehicle, entries []FuelEntry) error {
	ptrs := make([]*FuelEntry, len(entries))
	for i := range entries {
		ptrs[i] = &entries[i]
	}
	changed := Recalculate(ptrs, v.InitialOdometer)
	if len(changed) == 0 {
		return nil
	}
	return s.UpdateDerived(ctx, changed)
}

// RecalculateVehicle forces a full rebuild for one vehicle and reports how
// many entries were walked. Exposed for repair tooling and tests.
func (en *Engine) RecalculateVehicle(ctx context.Context, userID UserID, vehicleID VehicleID) (int, error) {
	var walked int
	err := en.Store.WithTx(ctx, func(s Store) error {
		v, err := s.GetVehicle(ctx, vehicleID, userID)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrVehicleNotFound
		}
		walked, err = en.rebuildVehicleFetched(ctx, s, v)
		return err
	})
	if err != nil {
		return 0, err
	}
	en.bumpCache(userID)
	return walked, nil
}

func vehicleNameTaken(ctx context.Context, s Store, userID UserID, name string, exclude VehicleID) (bool, error) {
	vehicles, err := s.ListVehicles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, v := range vehicles {
		if v.ID != exclude && strings.EqualFold(v.Name, name) {
			return true, nil
		}
	}
	return false, nil
}
