/*
handlers.go - HTTP API handlers for the fuel metrics engine

PURPOSE:
  Exposes the fuel tracking engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Vehicles:
    GET    /api/vehicles                  List the user's vehicles
    POST   /api/vehicles                  Create vehicle
    GET    /api/vehicles/{id}             Get vehicle details
    PUT    /api/vehicles/{id}             Update vehicle
    DELETE /api/vehicles/{id}             Delete vehicle and its entries
    POST   /api/vehicles/{id}/recalculate Force a full metrics rebuild

  Entries:
    GET    /api/entries          List entries (filterable), newest first
    POST   /api/entries          Create entry (runs the cascade)
    GET    /api/entries/{id}     Get entry details
    PUT    /api/entries/{id}     Update entry (runs the cascade)
    DELETE /api/entries/{id}     Delete entry (full rebuild)

  Statistics:
    GET    /api/statistics/dashboard  Windowed aggregates and time series
    GET    /api/statistics/brands     Lifetime per-brand aggregates
    GET    /api/statistics/grades     Lifetime per-grade aggregates

IDENTITY:
  Requests carry the user in the X-User-ID header; the router rejects
  requests without it. Ownership mismatches surface as 404, never 403.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Name conflicts
  - 500: Internal errors
  Odometer rejections additionally carry the conflicting neighbor.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - fuel/engine.go: The mutation logic these delegate to
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tanklog/fuel-engine/fuel"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  fuel.TxStore
	Engine *fuel.Engine
	Stats  *fuel.Aggregator

	currentScenario string
}

// NewHandler creates a new handler around the given store and cache.
func NewHandler(store fuel.TxStore, cache fuel.StatsCache) *Handler {
	return &Handler{
		Store:  store,
		Engine: fuel.NewEngine(store, cache),
		Stats:  fuel.NewAggregator(store, cache),
	}
}

// userHeader carries the authenticated user's identifier.
const userHeader = "X-User-ID"

func userFrom(r *http.Request) fuel.UserID {
	return fuel.UserID(r.Header.Get(userHeader))
}

// =============================================================================
// VEHICLE HANDLERS
// =============================================================================

// ListVehicles returns the user's vehicles.
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Store.ListVehicles(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vehicles", err)
		return
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i := range vehicles {
		dtos[i] = toVehicleDTO(&vehicles[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetVehicle returns a single vehicle.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := fuel.VehicleID(chi.URLParam(r, "id"))

	v, err := h.Store.GetVehicle(r.Context(), id, userFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get vehicle", err)
		return
	}
	if v == nil {
		writeDomainError(w, fuel.ErrVehicleNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toVehicleDTO(v))
}

// CreateVehicle creates a new vehicle.
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Engine.CreateVehicle(r.Context(), userFrom(r), vehicleInput(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVehicleDTO(v))
}

// UpdateVehicle applies new fields to a vehicle. Lowering or raising the
// initial odometer triggers a full metrics rebuild inside the engine.
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id := fuel.VehicleID(chi.URLParam(r, "id"))

	var req VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Engine.UpdateVehicle(r.Context(), userFrom(r), id, vehicleInput(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVehicleDTO(v))
}

// DeleteVehicle removes a vehicle and every entry it owns.
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := fuel.VehicleID(chi.URLParam(r, "id"))

	if err := h.Engine.DeleteVehicle(r.Context(), userFrom(r), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecalculateVehicle forces a full rebuild of a vehicle's derived metrics.
func (h *Handler) RecalculateVehicle(w http.ResponseWriter, r *http.Request) {
	id := fuel.VehicleID(chi.URLParam(r, "id"))

	walked, err := h.Engine.RecalculateVehicle(r.Context(), userFrom(r), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries_recalculated": walked})
}

func vehicleInput(req VehicleRequest) fuel.VehicleInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return fuel.VehicleInput{
		Name:            req.Name,
		Make:            req.Make,
		Model:           req.Model,
		Year:            req.Year,
		FuelType:        req.FuelType,
		IsActive:        active,
		InitialOdometer: req.InitialOdometer,
	}
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns the user's entries, newest first.
// Filters: vehicle_id, date_after, date_before, fuel_brand, fuel_grade,
// station_name.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f fuel.EntryFilter
	if v := q.Get("vehicle_id"); v != "" {
		id := fuel.VehicleID(v)
		f.VehicleID = &id
	}
	if v := q.Get("date_after"); v != "" {
		d, err := fuel.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_after format (use YYYY-MM-DD)", err)
			return
		}
		f.DateAfter = &d
	}
	if v := q.Get("date_before"); v != "" {
		d, err := fuel.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_before format (use YYYY-MM-DD)", err)
			return
		}
		f.DateBefore = &d
	}
	f.FuelBrand = q.Get("fuel_brand")
	f.FuelGrade = q.Get("fuel_grade")
	f.StationName = q.Get("station_name")

	entries, err := h.Store.ListEntries(r.Context(), userFrom(r), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// GetEntry returns a single entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := fuel.EntryID(chi.URLParam(r, "id"))

	e, err := h.Store.GetEntry(r.Context(), id, userFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get entry", err)
		return
	}
	if e == nil {
		writeDomainError(w, fuel.ErrEntryNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// CreateEntry creates a new fuel entry and returns it with its computed
// derived fields.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}

	e, err := h.Engine.CreateEntry(r.Context(), userFrom(r), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEntryDTO(e))
}

// UpdateEntry applies new input fields to an entry.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := fuel.EntryID(chi.URLParam(r, "id"))

	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}

	e, err := h.Engine.UpdateEntry(r.Context(), userFrom(r), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// DeleteEntry removes an entry and rebuilds the vehicle's remaining metrics.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := fuel.EntryID(chi.URLParam(r, "id"))

	if err := h.Engine.DeleteEntry(r.Context(), userFrom(r), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeEntryInput(w http.ResponseWriter, r *http.Request) (fuel.EntryInput, bool) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return fuel.EntryInput{}, false
	}

	date, err := fuel.ParseDate(req.EntryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry_date format (use YYYY-MM-DD)", err)
		return fuel.EntryInput{}, false
	}

	return fuel.EntryInput{
		VehicleID:   fuel.VehicleID(req.VehicleID),
		EntryDate:   date,
		Odometer:    req.Odometer,
		StationName: req.StationName,
		FuelBrand:   req.FuelBrand,
		FuelGrade:   req.FuelGrade,
		Liters:      req.Liters,
		TotalAmount: req.TotalAmount,
		Notes:       req.Notes,
	}, true
}

// =============================================================================
// STATISTICS HANDLERS
// =============================================================================

// GetDashboard returns windowed aggregates and time series.
// Query: vehicle_id (optional), period (30d|90d|ytd|custom, default 30d),
// date_after/date_before (required for period=custom).
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pt := fuel.PeriodType(q.Get("period"))
	if pt == "" {
		pt = fuel.PeriodLast30Days
	}

	var vehicleID *fuel.VehicleID
	if v := q.Get("vehicle_id"); v != "" {
		id := fuel.VehicleID(v)
		vehicleID = &id
	}

	var after, before *fuel.Date
	if v := q.Get("date_after"); v != "" {
		d, err := fuel.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_after format (use YYYY-MM-DD)", err)
			return
		}
		after = &d
	}
	if v := q.Get("date_before"); v != "" {
		d, err := fuel.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_before format (use YYYY-MM-DD)", err)
			return
		}
		before = &d
	}

	stats, err := h.Stats.Dashboard(r.Context(), userFrom(r), vehicleID, pt, after, before)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDashboardDTO(stats))
}

// GetBrandStats returns lifetime per-brand aggregates.
func (h *Handler) GetBrandStats(w http.ResponseWriter, r *http.Request) {
	h.groupStats(w, r, h.Stats.BrandStats)
}

// GetGradeStats returns lifetime per-grade aggregates.
func (h *Handler) GetGradeStats(w http.ResponseWriter, r *http.Request) {
	h.groupStats(w, r, h.Stats.GradeStats)
}

func (h *Handler) groupStats(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, userID fuel.UserID, vehicleID *fuel.VehicleID) ([]fuel.GroupStats, error)) {

	var vehicleID *fuel.VehicleID
	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		id := fuel.VehicleID(v)
		vehicleID = &id
	}

	groups, err := fn(r.Context(), userFrom(r), vehicleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupStatsDTOs(groups))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps fuel package errors to HTTP responses, attaching
// the machine-readable code and, for odometer rejections, the conflicting
// neighbor.
func writeDomainError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: fuel.ErrorCode(err)}

	status := http.StatusInternalServerError
	switch {
	case fuel.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, fuel.ErrVehicleNameTaken):
		status = http.StatusConflict
	case fuel.IsClientError(err):
		status = http.StatusBadRequest
	}

	var conflict *fuel.OdometerConflictError
	if errors.As(err, &conflict) {
		resp.Details = conflictDetails(conflict)
	}
	var initial *fuel.InitialOdometerError
	if errors.As(err, &initial) {
		date := initial.EntryDate.String()
		resp.Details = OdometerConflictDetails{
			Odometer:     initial.InitialOdometer,
			NextOdometer: &initial.EntryOdometer,
			NextDate:     &date,
		}
	}

	writeJSON(w, status, resp)
}

func conflictDetails(c *fuel.OdometerConflictError) OdometerConflictDetails {
	d := OdometerConflictDetails{Odometer: c.Odometer}
	switch {
	case errors.Is(c, fuel.ErrOdometerNotAboveInitial):
		d.InitialOdometer = &c.ConflictOdometer
	case errors.Is(c, fuel.ErrOdometerNotAbovePredecessor):
		date := c.ConflictDate.String()
		d.PreviousOdometer = &c.ConflictOdometer
		d.PreviousDate = &date
	default:
		date := c.ConflictDate.String()
		d.NextOdometer = &c.ConflictOdometer
		d.NextDate = &date
	}
	return d
}
