/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements fuel.Store and fuel.TxStore using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  vehicles:     Owned vehicles with their initial odometer anchor
  fuel_entries: Refueling records, input fields plus engine-written derived
                fields

ORDERING:
  fuel_entries carries created_seq, assigned on insert as MAX+1 and never
  rewritten. Every sequence query orders by (entry_date, created_seq), which
  makes neighbor lookups a single indexed LIMIT 1 query.

DECIMALS:
  Monetary and volume values are stored as TEXT and parsed back with
  shopspring/decimal, so no precision is lost round-tripping.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Exported methods lock and delegate to
  unexported methods that take a plain query interface; WithTx takes the
  write lock once and hands the *sql.Tx to those same unexported methods, so
  a transaction never re-enters the mutex.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/tanklog.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - fuel/store.go: Interface definitions
  - fuel/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/tanklog/fuel-engine/fuel"
)

// Store implements fuel.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Vehicles
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		make TEXT,
		model TEXT,
		year INTEGER,
		fuel_type TEXT,
		is_active BOOLEAN DEFAULT TRUE,
		initial_odometer INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vehicles_user
		ON vehicles(user_id);

	-- Fuel entries
	CREATE TABLE IF NOT EXISTS fuel_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		entry_date TEXT NOT NULL,
		created_seq INTEGER NOT NULL,
		odometer INTEGER NOT NULL,
		liters TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		station_name TEXT,
		fuel_brand TEXT,
		fuel_grade TEXT,
		notes TEXT,
		unit_price TEXT NOT NULL,
		distance_since_last INTEGER,
		consumption TEXT,
		cost_per_km TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: Ordering-key index. Sequence reads and neighbor probes
	-- (the cascade hot path) all resolve against this index.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_ordering
		ON fuel_entries(vehicle_id, entry_date, created_seq);

	-- For the user-scoped read API (newest first)
	CREATE INDEX IF NOT EXISTS idx_entries_user_date
		ON fuel_entries(user_id, entry_date DESC, created_seq DESC);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_seq
		ON fuel_entries(created_seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is the subset of *sql.DB and *sql.Tx the unexported methods need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// VEHICLES
// =============================================================================

func (s *Store) SaveVehicle(ctx context.Context, v *fuel.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveVehicle(ctx, s.db, v)
}

func saveVehicle(ctx context.Context, q querier, v *fuel.Vehicle) error {
	query := `
		INSERT INTO vehicles
		(id, user_id, name, make, model, year, fuel_type, is_active, initial_odometer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		v.ID, v.UserID, v.Name, v.Make, v.Model, v.Year, v.FuelType, v.IsActive,
		v.InitialOdometer,
		v.CreatedAt.UTC().Format(time.RFC3339),
		v.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

func (s *Store) UpdateVehicle(ctx context.Context, v *fuel.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateVehicle(ctx, s.db, v)
}

func updateVehicle(ctx context.Context, q querier, v *fuel.Vehicle) error {
	query := `
		UPDATE vehicles SET
			name = ?, make = ?, model = ?, year = ?, fuel_type = ?,
			is_active = ?, initial_odometer = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	res, err := q.ExecContext(ctx, query,
		v.Name, v.Make, v.Model, v.Year, v.FuelType, v.IsActive,
		v.InitialOdometer, v.UpdatedAt.UTC().Format(time.RFC3339),
		v.ID, v.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fuel.ErrVehicleNotFound
	}
	return nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id fuel.VehicleID, userID fuel.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteVehicle(ctx, s.db, id, userID)
}

func deleteVehicle(ctx context.Context, q querier, id fuel.VehicleID, userID fuel.UserID) error {
	// ON DELETE CASCADE removes the vehicle's entries.
	res, err := q.ExecContext(ctx,
		"DELETE FROM vehicles WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fuel.ErrVehicleNotFound
	}
	return nil
}

func (s *Store) GetVehicle(ctx context.Context, id fuel.VehicleID, userID fuel.UserID) (*fuel.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getVehicle(ctx, s.db, id, userID)
}

func getVehicle(ctx context.Context, q querier, id fuel.VehicleID, userID fuel.UserID) (*fuel.Vehicle, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, name, make, model, year, fuel_type, is_active, initial_odometer, created_at, updated_at
		 FROM vehicles WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	v, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) ListVehicles(ctx context.Context, userID fuel.UserID) ([]fuel.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listVehicles(ctx, s.db, userID)
}

func listVehicles(ctx context.Context, q querier, userID fuel.UserID) ([]fuel.Vehicle, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, name, make, model, year, fuel_type, is_active, initial_odometer, created_at, updated_at
		 FROM vehicles WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []fuel.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (s *Store) AllVehicles(ctx context.Context) ([]fuel.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allVehicles(ctx, s.db)
}

func allVehicles(ctx context.Context, q querier) ([]fuel.Vehicle, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, name, make, model, year, fuel_type, is_active, initial_odometer, created_at, updated_at
		 FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []fuel.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*fuel.Vehicle, error) {
	var (
		v                    fuel.Vehicle
		make_, model, ftype  sql.NullString
		year                 sql.NullInt64
		createdAt, updatedAt string
	)

	err := row.Scan(&v.ID, &v.UserID, &v.Name, &make_, &model, &year, &ftype,
		&v.IsActive, &v.InitialOdometer, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	v.Make = make_.String
	v.Model = model.String
	v.Year = int(year.Int64)
	v.FuelType = ftype.String
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &v, nil
}

// =============================================================================
// ENTRIES
// =============================================================================

const entryColumns = `id, user_id, vehicle_id, entry_date, created_seq, odometer,
	liters, total_amount, station_name, fuel_brand, fuel_grade, notes,
	unit_price, distance_since_last, consumption, cost_per_km, created_at, updated_at`

func (s *Store) InsertEntry(ctx context.Context, e *fuel.FuelEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertEntry(ctx, s.db, e)
}

func insertEntry(ctx context.Context, q querier, e *fuel.FuelEntry) error {
	query := `
		INSERT INTO fuel_entries
		(id, user_id, vehicle_id, entry_date, created_seq, odometer,
		 liters, total_amount, station_name, fuel_brand, fuel_grade, notes,
		 unit_price, distance_since_last, consumption, cost_per_km, created_at, updated_at)
		VALUES (?, ?, ?, ?,
			(SELECT COALESCE(MAX(created_seq), 0) + 1 FROM fuel_entries),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		e.ID, e.UserID, e.VehicleID, e.EntryDate.String(),
		e.Odometer, e.Liters.String(), e.TotalAmount.String(),
		e.StationName, e.FuelBrand, e.FuelGrade, e.Notes,
		e.UnitPrice.String(),
		nullInt64(e.DistanceSinceLast),
		nullDecimal(e.ConsumptionL100Km),
		nullDecimal(e.CostPerKm),
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	// Read back the store-assigned sequence.
	return q.QueryRowContext(ctx,
		"SELECT created_seq FROM fuel_entries WHERE id = ?", e.ID,
	).Scan(&e.CreatedSeq)
}

func (s *Store) UpdateEntry(ctx context.Context, e *fuel.FuelEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateEntry(ctx, s.db, e)
}

func updateEntry(ctx context.Context, q querier, e *fuel.FuelEntry) error {
	// created_seq is deliberately absent from the SET list.
	query := `
		UPDATE fuel_entries SET
			vehicle_id = ?, entry_date = ?, odometer = ?,
			liters = ?, total_amount = ?, station_name = ?, fuel_brand = ?,
			fuel_grade = ?, notes = ?, unit_price = ?, distance_since_last = ?,
			consumption = ?, cost_per_km = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	res, err := q.ExecContext(ctx, query,
		e.VehicleID, e.EntryDate.String(), e.Odometer,
		e.Liters.String(), e.TotalAmount.String(),
		e.StationName, e.FuelBrand, e.FuelGrade, e.Notes,
		e.UnitPrice.String(),
		nullInt64(e.DistanceSinceLast),
		nullDecimal(e.ConsumptionL100Km),
		nullDecimal(e.CostPerKm),
		e.UpdatedAt.UTC().Format(time.RFC3339),
		e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fuel.ErrEntryNotFound
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id fuel.EntryID, userID fuel.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteEntry(ctx, s.db, id, userID)
}

func deleteEntry(ctx context.Context, q querier, id fuel.EntryID, userID fuel.UserID) error {
	res, err := q.ExecContext(ctx,
		"DELETE FROM fuel_entries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fuel.ErrEntryNotFound
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id fuel.EntryID, userID fuel.UserID) (*fuel.FuelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEntry(ctx, s.db, id, userID)
}

func getEntry(ctx context.Context, q querier, id fuel.EntryID, userID fuel.UserID) (*fuel.FuelEntry, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM fuel_entries WHERE id = ? AND user_id = ?",
		id, userID,
	)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, userID fuel.UserID, f fuel.EntryFilter) ([]fuel.FuelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEntries(ctx, s.db, userID, f)
}

func listEntries(ctx context.Context, q querier, userID fuel.UserID, f fuel.EntryFilter) ([]fuel.FuelEntry, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + entryColumns + " FROM fuel_entries WHERE user_id = ?")
	args := []any{userID}

	if f.VehicleID != nil {
		sb.WriteString(" AND vehicle_id = ?")
		args = append(args, *f.VehicleID)
	}
	if f.DateAfter != nil {
		sb.WriteString(" AND entry_date >= ?")
		args = append(args, f.DateAfter.String())
	}
	if f.DateBefore != nil {
		sb.WriteString(" AND entry_date <= ?")
		args = append(args, f.DateBefore.String())
	}
	// SQLite LIKE is case-insensitive for ASCII.
	if f.FuelBrand != "" {
		sb.WriteString(" AND fuel_brand LIKE ?")
		args = append(args, "%"+f.FuelBrand+"%")
	}
	if f.FuelGrade != "" {
		sb.WriteString(" AND fuel_grade LIKE ?")
		args = append(args, "%"+f.FuelGrade+"%")
	}
	if f.StationName != "" {
		sb.WriteString(" AND station_name LIKE ?")
		args = append(args, "%"+f.StationName+"%")
	}

	sb.WriteString(" ORDER BY entry_date DESC, created_seq DESC")

	return queryEntries(ctx, q, sb.String(), args...)
}

// =============================================================================
// ORDERING MODEL
// =============================================================================

func (s *Store) EntriesForVehicle(ctx context.Context, vehicleID fuel.VehicleID) ([]fuel.FuelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entriesForVehicle(ctx, s.db, vehicleID)
}

func entriesForVehicle(ctx context.Context, q querier, vehicleID fuel.VehicleID) ([]fuel.FuelEntry, error) {
	query := "SELECT " + entryColumns + ` FROM fuel_entries
		WHERE vehicle_id = ?
		ORDER BY entry_date ASC, created_seq ASC`

	return queryEntries(ctx, q, query, vehicleID)
}

func (s *Store) Predecessor(ctx context.Context, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return predecessor(ctx, s.db, vehicleID, date, seq, exclude)
}

func predecessor(ctx context.Context, q querier, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	query := "SELECT " + entryColumns + ` FROM fuel_entries
		WHERE vehicle_id = ? AND id <> ?
		  AND (entry_date < ? OR (entry_date = ? AND created_seq < ?))
		ORDER BY entry_date DESC, created_seq DESC
		LIMIT 1`

	row := q.QueryRowContext(ctx, query, vehicleID, exclude, date.String(), date.String(), seq)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) Successor(ctx context.Context, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return successor(ctx, s.db, vehicleID, date, seq, exclude)
}

func successor(ctx context.Context, q querier, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	query := "SELECT " + entryColumns + ` FROM fuel_entries
		WHERE vehicle_id = ? AND id <> ?
		  AND (entry_date > ? OR (entry_date = ? AND created_seq > ?))
		ORDER BY entry_date ASC, created_seq ASC
		LIMIT 1`

	row := q.QueryRowContext(ctx, query, vehicleID, exclude, date.String(), date.String(), seq)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// =============================================================================
// DERIVED FIELDS
// =============================================================================

func (s *Store) UpdateDerived(ctx context.Context, entries []*fuel.FuelEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDerived(ctx, s.db, entries)
}

func updateDerived(ctx context.Context, q querier, entries []*fuel.FuelEntry) error {
	query := `
		UPDATE fuel_entries SET
			unit_price = ?, distance_since_last = ?, consumption = ?, cost_per_km = ?
		WHERE id = ?
	`

	for _, e := range entries {
		res, err := q.ExecContext(ctx, query,
			e.UnitPrice.String(),
			nullInt64(e.DistanceSinceLast),
			nullDecimal(e.ConsumptionL100Km),
			nullDecimal(e.CostPerKm),
			e.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update derived fields: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fuel.ErrEntryNotFound
		}
	}
	return nil
}

func queryEntries(ctx context.Context, q querier, query string, args ...any) ([]fuel.FuelEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []fuel.FuelEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (*fuel.FuelEntry, error) {
	var (
		e                            fuel.FuelEntry
		entryDate                    string
		liters, totalAmount          string
		station, brand, grade, notes sql.NullString
		unitPrice                    string
		distance                     sql.NullInt64
		consumption, costPerKm       sql.NullString
		createdAt, updatedAt         string
	)

	err := row.Scan(&e.ID, &e.UserID, &e.VehicleID, &entryDate, &e.CreatedSeq,
		&e.Odometer, &liters, &totalAmount, &station, &brand, &grade, &notes,
		&unitPrice, &distance, &consumption, &costPerKm, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.EntryDate, _ = fuel.ParseDate(entryDate)
	e.Liters = fuel.MustParseDecimal(liters)
	e.TotalAmount = fuel.MustParseDecimal(totalAmount)
	e.StationName = station.String
	e.FuelBrand = brand.String
	e.FuelGrade = grade.String
	e.Notes = notes.String
	e.UnitPrice = fuel.MustParseDecimal(unitPrice)
	if distance.Valid {
		d := distance.Int64
		e.DistanceSinceLast = &d
	}
	if consumption.Valid {
		c := fuel.MustParseDecimal(consumption.String)
		e.ConsumptionL100Km = &c
	}
	if costPerKm.Valid {
		c := fuel.MustParseDecimal(costPerKm.String)
		e.CostPerKm = &c
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

// =============================================================================
// TRANSACTIONAL STORE (fuel.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The mutex is
// taken exactly once here; the transaction view below calls the unexported
// lock-free methods.
func (s *Store) WithTx(ctx context.Context, fn func(store fuel.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveVehicle(ctx context.Context, v *fuel.Vehicle) error {
	return saveVehicle(ctx, ts.tx, v)
}

func (ts *txStore) UpdateVehicle(ctx context.Context, v *fuel.Vehicle) error {
	return updateVehicle(ctx, ts.tx, v)
}

func (ts *txStore) DeleteVehicle(ctx context.Context, id fuel.VehicleID, userID fuel.UserID) error {
	return deleteVehicle(ctx, ts.tx, id, userID)
}

func (ts *txStore) GetVehicle(ctx context.Context, id fuel.VehicleID, userID fuel.UserID) (*fuel.Vehicle, error) {
	return getVehicle(ctx, ts.tx, id, userID)
}

func (ts *txStore) ListVehicles(ctx context.Context, userID fuel.UserID) ([]fuel.Vehicle, error) {
	return listVehicles(ctx, ts.tx, userID)
}

func (ts *txStore) AllVehicles(ctx context.Context) ([]fuel.Vehicle, error) {
	return allVehicles(ctx, ts.tx)
}

func (ts *txStore) InsertEntry(ctx context.Context, e *fuel.FuelEntry) error {
	return insertEntry(ctx, ts.tx, e)
}

func (ts *txStore) UpdateEntry(ctx context.Context, e *fuel.FuelEntry) error {
	return updateEntry(ctx, ts.tx, e)
}

func (ts *txStore) DeleteEntry(ctx context.Context, id fuel.EntryID, userID fuel.UserID) error {
	return deleteEntry(ctx, ts.tx, id, userID)
}

func (ts *txStore) GetEntry(ctx context.Context, id fuel.EntryID, userID fuel.UserID) (*fuel.FuelEntry, error) {
	return getEntry(ctx, ts.tx, id, userID)
}

func (ts *txStore) ListEntries(ctx context.Context, userID fuel.UserID, f fuel.EntryFilter) ([]fuel.FuelEntry, error) {
	return listEntries(ctx, ts.tx, userID, f)
}

func (ts *txStore) EntriesForVehicle(ctx context.Context, vehicleID fuel.VehicleID) ([]fuel.FuelEntry, error) {
	return entriesForVehicle(ctx, ts.tx, vehicleID)
}

func (ts *txStore) Predecessor(ctx context.Context, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	return predecessor(ctx, ts.tx, vehicleID, date, seq, exclude)
}

func (ts *txStore) Successor(ctx context.Context, vehicleID fuel.VehicleID, date fuel.Date, seq int64, exclude fuel.EntryID) (*fuel.FuelEntry, error) {
	return successor(ctx, ts.tx, vehicleID, date, seq, exclude)
}

func (ts *txStore) UpdateDerived(ctx context.Context, entries []*fuel.FuelEntry) error {
	return updateDerived(ctx, ts.tx, entries)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"fuel_entries", "vehicles"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
