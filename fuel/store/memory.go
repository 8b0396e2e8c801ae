// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tanklog/fuel-engine/fuel"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	vehicles map[fuel.VehicleID]fuel.Vehicle
	entries  map[fuel.EntryID]fuel.FuelEntry
	nextSeq  int64
}

func NewMemory() *Memory {
	return &Memory{
		vehicles: make(map[fuel.VehicleID]fuel.Vehicle),
		entries:  make(map[fuel.EntryID]fuel.FuelEntry),
	}
}

// =============================================================================
// VEHICLES
// =============================================================================

func (m *Memory) SaveVehicle(_ context.Context, v *fuel.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = *v
	return nil
}

func (m *Memory) UpdateVehicle(_ context.Context, v *fuel.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = *v
	return nil
}

func (m *Memory) DeleteVehicle(_ context.Context, id fuel.VehicleID, userID fuel.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok || v.UserID != userID {
		return fuel.ErrVehicleNotFound
	}
	delete(m.vehicles, id)

	// Vehicle exclusively owns its entries.
	for eid, e := range m.entries {
		if e.VehicleID == id {
			delete(m.entries, eid)
		}
	}
	return nil
}

func (m *Memory) GetVehicle(_ context.Context, id fuel.VehicleID, userID fuel.UserID) (*fuel.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok || v.UserID != userID {
		return nil, nil
	}
	copy := v
	return &copy, nil
}

func (m *Memory) ListVehicles(_ context.Context, userID fuel.UserID) ([]fuel.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []fuel.Vehicle
	for _, v := range m.vehicles {
		if v.UserID == userID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) AllVehicles(_ context.Context) ([]fuel.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []fuel.Vehicle
	for _, v := range m.vehicles {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Reset clears all data. Development and demo use only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles = make(map[fuel.VehicleID]fuel.Vehicle)
	m.entries = make(map[fuel.EntryID]fuel.FuelEntry)
	m.nextSeq = 0
	return nil
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) InsertEntry(_ context.Context, e *fuel.FuelEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	e.CreatedSeq = m.nextSeq
	m.entries[e.ID] = *e
	return nil
}

func (m *Memory) UpdateEntry(_ context.Context, e *fuel.FuelEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[e.ID]
	if !ok {
		return fuel.ErrEntryNotFound
	}
	// The creation sequence is immutable.
	e.CreatedSeq = stored.CreatedSeq
	m.entries[e.ID] = *e
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, id fuel.EntryID, userID fuel.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return fuel.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id fuel.EntryID, userID fuel.UserID) (*fuel.FuelEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	copy := e
	return &copy, nil
}

func (m *Memory) ListEntries(_ context.Context, userID fuel.UserID, f fuel.EntryFilter) ([]fuel.FuelEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []fuel.FuelEntry
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		if f.VehicleID != nil && e.VehicleID != *f.VehicleID {
			continue
		}
		if f.DateAfter != nil && e.EntryDate.Before(*f.DateAfter) {
			continue
		}
		if f.DateBefore != nil && e.EntryDate.After(*f.DateBefore) {
			continue
		}
		if !containsFold(e.FuelBrand, f.FuelBrand) ||
			!containsFold(e.FuelGrade, f.FuelGrade) ||
			!containsFold(e.StationName, f.StationName) {
			continue
		}
		result = append(result, e)
	}

	// Newest first.
	sort.Slice(result, func(i, j int) bool { return result[j].OrdersBefore(&result[i]) })
	return result, nil
}

// =============================================================================
// ORDERING MODEL
// =============================================================================

func (m *Memory) EntriesForVehicle(_ context.Context, vehicleID fuel.VehicleID) ([]fuel.FuelEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []fuel.FuelEntry
	for _, e := range m.entries {
		if e.VehicleID == vehicleID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrdersBefore(&result[j]) })
	return result, nil
}

func (m *Memory) Predecessor(ctx context.Context, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	ordered, err := m.EntriesForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		e := ordered[i]
		if e.ID == exclude {
			continue
		}
		if ordersBeforeProbe(&e, date, seq) {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Memory) Successor(ctx context.Context, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	ordered, err := m.EntriesForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for i := range ordered {
		e := ordered[i]
		if e.ID == exclude {
			continue
		}
		if !ordersBeforeProbe(&e, date, seq) {
			return &e, nil
		}
	}
	return nil, nil
}

// ordersBeforeProbe reports whether e sorts strictly before the probe point
// (date, seq). Entries at exactly the probe point count as successors.
func ordersBeforeProbe(e *fuel.FuelEntry, date fuel.Date, seq int64) bool {
	if !e.EntryDate.Equal(date) {
		return e.EntryDate.Before(date)
	}
	return e.CreatedSeq < seq
}

// =============================================================================
// DERIVED FIELDS
// =============================================================================

func (m *Memory) UpdateDerived(_ context.Context, entries []*fuel.FuelEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		stored, ok := m.entries[e.ID]
		if !ok {
			return fuel.ErrEntryNotFound
		}
		stored.UnitPrice = e.UnitPrice
		stored.DistanceSinceLast = e.DistanceSinceLast
		stored.ConsumptionL100Km = e.ConsumptionL100Km
		stored.CostPerKm = e.CostPerKm
		m.entries[e.ID] = stored
	}
	return nil
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn against the store. For the memory store this is
// simulated with a snapshot, restored if fn fails.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(fuel.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	vehicles map[fuel.VehicleID]fuel.Vehicle
	entries  map[fuel.EntryID]fuel.FuelEntry
	nextSeq  int64
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	vehicles := make(map[fuel.VehicleID]fuel.Vehicle, len(tm.vehicles))
	for k, v := range tm.vehicles {
		vehicles[k] = v
	}
	entries := make(map[fuel.EntryID]fuel.FuelEntry, len(tm.entries))
	for k, v := range tm.entries {
		entries[k] = v
	}
	return memorySnapshot{vehicles: vehicles, entries: entries, nextSeq: tm.nextSeq}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.vehicles = s.vehicles
	tm.entries = s.entries
	tm.nextSeq = s.nextSeq
}
