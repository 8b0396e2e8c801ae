/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ROUNDING:
  The engine keeps full decimal precision internally. Presentation rounding
  happens exactly here:
  - consumption  1 decimal place
  - unit price   2 decimal places
  - cost per km  4 decimal places
  Decimal values are rendered as JSON strings so clients never lose
  precision to float64.

VALIDATION:
  Validation is done in the fuel package, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - fuel/types.go: The domain model these project
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tanklog/fuel-engine/fuel"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// VehicleDTO represents a vehicle in API responses.
type VehicleDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Make            string `json:"make,omitempty"`
	Model           string `json:"model,omitempty"`
	Year            int    `json:"year,omitempty"`
	FuelType        string `json:"fuel_type,omitempty"`
	IsActive        bool   `json:"is_active"`
	InitialOdometer int64  `json:"initial_odometer"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// VehicleRequest is the request body for creating or updating a vehicle.
type VehicleRequest struct {
	Name            string `json:"name"`
	Make            string `json:"make"`
	Model           string `json:"model"`
	Year            int    `json:"year"`
	FuelType        string `json:"fuel_type"`
	IsActive        *bool  `json:"is_active,omitempty"` // defaults to true
	InitialOdometer int64  `json:"initial_odometer"`
}

// EntryDTO represents a fuel entry in API responses. Derived fields are
// null until the engine has computed them, and consumption/cost_per_km stay
// null when the entry has no positive distance.
type EntryDTO struct {
	ID          string `json:"id"`
	VehicleID   string `json:"vehicle_id"`
	EntryDate   string `json:"entry_date"`
	Odometer    int64  `json:"odometer"`
	Liters      string `json:"liters"`
	TotalAmount string `json:"total_amount"`
	StationName string `json:"station_name,omitempty"`
	FuelBrand   string `json:"fuel_brand,omitempty"`
	FuelGrade   string `json:"fuel_grade,omitempty"`
	Notes       string `json:"notes,omitempty"`

	UnitPrice         string  `json:"unit_price"`
	DistanceSinceLast *int64  `json:"distance_since_last"`
	Consumption       *string `json:"consumption_l_100km"`
	CostPerKm         *string `json:"cost_per_km"`

	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// EntryRequest is the request body for creating or updating a fuel entry.
// decimal.Decimal unmarshals from both JSON numbers and strings.
type EntryRequest struct {
	VehicleID   string          `json:"vehicle_id"`
	EntryDate   string          `json:"entry_date"` // YYYY-MM-DD
	Odometer    int64           `json:"odometer"`
	Liters      decimal.Decimal `json:"liters"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	StationName string          `json:"station_name"`
	FuelBrand   string          `json:"fuel_brand"`
	FuelGrade   string          `json:"fuel_grade"`
	Notes       string          `json:"notes"`
}

// TimeSeriesPointDTO is one sparse data point in a dashboard series.
type TimeSeriesPointDTO struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// DashboardDTO represents the windowed statistics response.
type DashboardDTO struct {
	PeriodType string `json:"period_type"`
	DateAfter  string `json:"date_after"`
	DateBefore string `json:"date_before"`

	FillUpCount   int    `json:"fill_up_count"`
	TotalLiters   string `json:"total_liters"`
	TotalSpent    string `json:"total_spent"`
	TotalDistance int64  `json:"total_distance"`

	AverageConsumption    *string `json:"average_consumption"`
	AverageCostPerKm      *string `json:"average_cost_per_km"`
	AverageUnitPrice      *string `json:"average_unit_price"`
	AverageDistancePerDay *string `json:"average_distance_per_day"`
	MinConsumption        *string `json:"min_consumption"`
	MaxConsumption        *string `json:"max_consumption"`

	ConsumptionSeries []TimeSeriesPointDTO `json:"consumption_series"`
	UnitPriceSeries   []TimeSeriesPointDTO `json:"unit_price_series"`
	CostPerKmSeries   []TimeSeriesPointDTO `json:"cost_per_km_series"`
}

// GroupStatsDTO is a lifetime aggregate for one fuel brand or grade.
type GroupStatsDTO struct {
	Key                string  `json:"key"`
	FillCount          int     `json:"fill_count"`
	AverageUnitPrice   *string `json:"average_unit_price"`
	AverageConsumption *string `json:"average_consumption"`
	AverageCostPerKm   *string `json:"average_cost_per_km"`
}

// ErrorResponse is the standard error response. Monotonicity rejections
// carry the conflicting boundary in Details so clients can show the user
// exactly which neighbor was in the way.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OdometerConflictDetails is the Details payload for odometer rejections.
type OdometerConflictDetails struct {
	Odometer         int64   `json:"odometer"`
	InitialOdometer  *int64  `json:"initial_odometer,omitempty"`
	PreviousOdometer *int64  `json:"previous_odometer,omitempty"`
	PreviousDate     *string `json:"previous_date,omitempty"`
	NextOdometer     *int64  `json:"next_odometer,omitempty"`
	NextDate         *string `json:"next_date,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toVehicleDTO(v *fuel.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:              string(v.ID),
		Name:            v.Name,
		Make:            v.Make,
		Model:           v.Model,
		Year:            v.Year,
		FuelType:        v.FuelType,
		IsActive:        v.IsActive,
		InitialOdometer: v.InitialOdometer,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       v.UpdatedAt.Format(time.RFC3339),
	}
}

func toEntryDTO(e *fuel.FuelEntry) EntryDTO {
	return EntryDTO{
		ID:                string(e.ID),
		VehicleID:         string(e.VehicleID),
		EntryDate:         e.EntryDate.String(),
		Odometer:          e.Odometer,
		Liters:            e.Liters.String(),
		TotalAmount:       e.TotalAmount.String(),
		StationName:       e.StationName,
		FuelBrand:         e.FuelBrand,
		FuelGrade:         e.FuelGrade,
		Notes:             e.Notes,
		UnitPrice:         e.UnitPrice.StringFixed(2),
		DistanceSinceLast: e.DistanceSinceLast,
		Consumption:       roundPtr(e.ConsumptionL100Km, 1),
		CostPerKm:         roundPtr(e.CostPerKm, 4),
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         e.UpdatedAt.Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []fuel.FuelEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toEntryDTO(&entries[i])
	}
	return dtos
}

func toDashboardDTO(s *fuel.DashboardStats) DashboardDTO {
	return DashboardDTO{
		PeriodType:            string(s.PeriodType),
		DateAfter:             s.Period.After.String(),
		DateBefore:            s.Period.Before.String(),
		FillUpCount:           s.FillUpCount,
		TotalLiters:           s.TotalLiters.StringFixed(2),
		TotalSpent:            s.TotalSpent.StringFixed(2),
		TotalDistance:         s.TotalDistance,
		AverageConsumption:    roundPtr(s.AverageConsumption, 1),
		AverageCostPerKm:      roundPtr(s.AverageCostPerKm, 4),
		AverageUnitPrice:      roundPtr(s.AverageUnitPrice, 2),
		AverageDistancePerDay: roundPtr(s.AverageDistancePerDay, 1),
		MinConsumption:        roundPtr(s.MinConsumption, 1),
		MaxConsumption:        roundPtr(s.MaxConsumption, 1),
		ConsumptionSeries:     toSeriesDTO(s.ConsumptionSeries, 1),
		UnitPriceSeries:       toSeriesDTO(s.UnitPriceSeries, 2),
		CostPerKmSeries:       toSeriesDTO(s.CostPerKmSeries, 4),
	}
}

func toSeriesDTO(points []fuel.TimeSeriesPoint, places int32) []TimeSeriesPointDTO {
	dtos := make([]TimeSeriesPointDTO, len(points))
	for i, p := range points {
		dtos[i] = TimeSeriesPointDTO{Date: p.Date.String(), Value: p.Value.StringFixed(places)}
	}
	return dtos
}

func toGroupStatsDTOs(groups []fuel.GroupStats) []GroupStatsDTO {
	dtos := make([]GroupStatsDTO, len(groups))
	for i, g := range groups {
		dtos[i] = GroupStatsDTO{
			Key:                g.Key,
			FillCount:          g.FillCount,
			AverageUnitPrice:   roundPtr(g.AverageUnitPrice, 2),
			AverageConsumption: roundPtr(g.AverageConsumption, 1),
			AverageCostPerKm:   roundPtr(g.AverageCostPerKm, 4),
		}
	}
	return dtos
}

func roundPtr(d *decimal.Decimal, places int32) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(places)
	return &s
}
