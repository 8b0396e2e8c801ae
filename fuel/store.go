/*
store.go - Persistence contract required by the metrics engine

PURPOSE:
  Defines the interface between the engine and storage. The engine needs
  exactly: fetch-by-id, the ordered per-vehicle sequence in one fetch,
  nearest-neighbor lookup by the ordering key, bulk persistence of derived
  fields, and transactional scoping around any multi-entry cascade.

ORDERING KEY:
  Every sequence-returning method orders by (entry_date ASC, created_seq ASC).
  created_seq is assigned by the store on insert and never changes; it breaks
  ties among same-day entries and gives an edited entry a stable position.

NEIGHBOR PROBES:
  Predecessor/Successor take a (date, seq) probe point. A new, unsaved entry
  probes with seq = ProbeSeqNow so it sorts after all existing same-day
  entries; an entry being edited probes with its own stored created_seq so
  its relative position among same-day peers does not shift.

TRANSACTIONS:
  WithTx runs fn against a store view whose writes commit or roll back as a
  unit. Every cascade runs inside WithTx: a partially applied recalculation
  must never be observable.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - fuel/store: in-memory for tests/dev

SEE ALSO:
  - engine.go: The only writer of derived fields
  - stats.go: Read-only consumer
*/
package fuel

import (
	"context"
	"math"
)

// ProbeSeqNow is the creation-sequence probe used for an entry that does not
// exist yet: it sorts after every stored entry on the same date.
const ProbeSeqNow int64 = math.MaxInt64

// EntryFilter narrows ListEntries. Zero values mean "no constraint".
// Text filters are case-insensitive substring matches.
type EntryFilter struct {
	VehicleID   *VehicleID
	DateAfter   *Date
	DateBefore  *Date
	FuelBrand   string
	FuelGrade   string
	StationName string
}

// Store is the persistence contract for vehicles and fuel entries.
//
// All reads and deletes that take a UserID are ownership-scoped: rows
// belonging to other users are invisible, and acting on them reports
// not-found rather than forbidden.
type Store interface {
	// Vehicles

	SaveVehicle(ctx context.Context, v *Vehicle) error
	UpdateVehicle(ctx context.Context, v *Vehicle) error
	// DeleteVehicle removes the vehicle and every entry it owns.
	DeleteVehicle(ctx context.Context, id VehicleID, userID UserID) error
	// GetVehicle returns (nil, nil) when no owned vehicle matches.
	GetVehicle(ctx context.Context, id VehicleID, userID UserID) (*Vehicle, error)
	ListVehicles(ctx context.Context, userID UserID) ([]Vehicle, error)
	// AllVehicles returns every vehicle across all users. Used by background
	// maintenance, never by request handlers.
	AllVehicles(ctx context.Context) ([]Vehicle, error)

	// Entries

	// InsertEntry persists a new entry and assigns its CreatedSeq.
	InsertEntry(ctx context.Context, e *FuelEntry) error
	// UpdateEntry persists input fields and derived fields of an existing
	// entry. CreatedSeq is never rewritten.
	UpdateEntry(ctx context.Context, e *FuelEntry) error
	DeleteEntry(ctx context.Context, id EntryID, userID UserID) error
	// GetEntry returns (nil, nil) when no owned entry matches.
	GetEntry(ctx context.Context, id EntryID, userID UserID) (*FuelEntry, error)
	// ListEntries returns a user's entries, newest first (entry_date DESC,
	// created_seq DESC), for the read API.
	ListEntries(ctx context.Context, userID UserID, f EntryFilter) ([]FuelEntry, error)

	// Ordering model

	// EntriesForVehicle returns the vehicle's full sequence in ordering-key
	// order. Cascades fetch this once and never re-query per entry.
	EntriesForVehicle(ctx context.Context, vehicleID VehicleID) ([]FuelEntry, error)
	// Predecessor returns the last entry strictly before (date, seq),
	// excluding the given id, or nil if the probe point is first.
	Predecessor(ctx context.Context, vehicleID VehicleID, date Date, seq int64, exclude EntryID) (*FuelEntry, error)
	// Successor returns the first entry strictly after (date, seq),
	// excluding the given id, or nil if the probe point is last.
	Successor(ctx context.Context, vehicleID VehicleID, date Date, seq int64, exclude EntryID) (*FuelEntry, error)

	// Derived fields

	// UpdateDerived bulk-persists the derived fields of the given entries.
	// Input fields are left untouched.
	UpdateDerived(ctx context.Context, entries []*FuelEntry) error
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
