/*
errors.go - Centralized error types for the fuel metrics engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Validation failures are structured so the API layer can render exactly
  which rule and which conflicting neighbor caused the rejection.

ERROR CATEGORIES:
  1. Monotonicity errors - odometer ordering violations (carry the neighbor)
  2. Input errors - future dates, non-positive quantities
  3. Period errors - invalid statistics window requests
  4. Not-found errors - ownership/scoping mismatches

USAGE:
  Handlers classify with the helpers:

    if fuel.IsClientError(err) { ... 400 ... }
    if fuel.IsNotFound(err)    { ... 404 ... }

  and extract neighbor context with errors.As:

    var conflict *fuel.OdometerConflictError
    if errors.As(err, &conflict) { ... }

SEE ALSO:
  - validate.go: Produces the monotonicity errors
  - period.go: Produces the period errors
  - api/handlers.go: Maps these to HTTP responses
*/
package fuel

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOdometerNotAboveInitial is returned when a candidate odometer does
	// not exceed the vehicle's initial odometer.
	ErrOdometerNotAboveInitial = errors.New("odometer not above initial odometer")

	// ErrOdometerNotAbovePredecessor is returned when a candidate odometer
	// does not exceed the previous entry's odometer.
	ErrOdometerNotAbovePredecessor = errors.New("odometer not above previous entry")

	// ErrOdometerNotBelowSuccessor is returned when a candidate odometer is
	// not below the next entry's odometer.
	ErrOdometerNotBelowSuccessor = errors.New("odometer not below next entry")

	// ErrEntryDateInFuture is returned when an entry date is beyond today.
	ErrEntryDateInFuture = errors.New("entry date is in the future")

	// ErrNonPositiveQuantity is returned when liters or total amount is <= 0.
	ErrNonPositiveQuantity = errors.New("quantity must be greater than zero")

	// ErrInitialOdometerTooHigh is returned when a vehicle's initial odometer
	// would exceed its earliest entry's odometer.
	ErrInitialOdometerTooHigh = errors.New("initial odometer above earliest entry")

	// ErrInvalidPeriodType is returned for an unrecognized period code.
	ErrInvalidPeriodType = errors.New("invalid period type")

	// ErrCustomPeriodMissingBounds is returned when period=custom lacks
	// explicit start or end dates.
	ErrCustomPeriodMissingBounds = errors.New("custom period requires explicit bounds")

	// ErrCustomPeriodTooLong is returned when a custom period exceeds 365 days.
	ErrCustomPeriodTooLong = errors.New("custom period exceeds 365 days")

	// ErrVehicleNotFound is returned when a vehicle does not exist for the
	// requesting user. Ownership mismatches are reported as not-found, never
	// as forbidden, so other users' resources are not discoverable.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrEntryNotFound is the entry analogue of ErrVehicleNotFound.
	ErrEntryNotFound = errors.New("fuel entry not found")

	// ErrVehicleNameTaken is returned when a user already has a vehicle with
	// the requested name.
	ErrVehicleNameTaken = errors.New("vehicle name already in use")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OdometerConflictError reports a monotonicity violation together with the
// conflicting boundary: the vehicle's initial odometer, or the neighboring
// entry's odometer and date. It unwraps to one of the three odometer sentinels.
type OdometerConflictError struct {
	rule error

	Odometer         int64 // the rejected candidate reading
	ConflictOdometer int64 // initial odometer or neighbor odometer
	ConflictDate     Date  // zero for the initial-odometer rule
}

func (e *OdometerConflictError) Error() string {
	switch e.rule {
	case ErrOdometerNotAboveInitial:
		return fmt.Sprintf("odometer %d km must be greater than the vehicle's initial odometer (%d km)",
			e.Odometer, e.ConflictOdometer)
	case ErrOdometerNotAbovePredecessor:
		return fmt.Sprintf("odometer %d km must be greater than the previous entry (%d km on %s)",
			e.Odometer, e.ConflictOdometer, e.ConflictDate)
	default:
		return fmt.Sprintf("odometer %d km must be less than the next entry (%d km on %s)",
			e.Odometer, e.ConflictOdometer, e.ConflictDate)
	}
}

func (e *OdometerConflictError) Unwrap() error { return e.rule }

func notAboveInitial(odometer, initial int64) *OdometerConflictError {
	return &OdometerConflictError{rule: ErrOdometerNotAboveInitial, Odometer: odometer, ConflictOdometer: initial}
}

func notAbovePredecessor(odometer int64, prev *FuelEntry) *OdometerConflictError {
	return &OdometerConflictError{
		rule:             ErrOdometerNotAbovePredecessor,
		Odometer:         odometer,
		ConflictOdometer: prev.Odometer,
		ConflictDate:     prev.EntryDate,
	}
}

func notBelowSuccessor(odometer int64, next *FuelEntry) *OdometerConflictError {
	return &OdometerConflictError{
		rule:             ErrOdometerNotBelowSuccessor,
		Odometer:         odometer,
		ConflictOdometer: next.Odometer,
		ConflictDate:     next.EntryDate,
	}
}

// QuantityError reports which field failed the positivity check.
type QuantityError struct {
	Field string // "liters" or "total_amount" or "odometer"
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s must be greater than zero", e.Field)
}

func (e *QuantityError) Unwrap() error { return ErrNonPositiveQuantity }

// InitialOdometerError reports the earliest entry the new initial odometer
// would collide with.
type InitialOdometerError struct {
	InitialOdometer int64
	EntryOdometer   int64
	EntryDate       Date
}

func (e *InitialOdometerError) Error() string {
	return fmt.Sprintf("initial odometer %d km cannot exceed the earliest fuel entry odometer (%d km on %s)",
		e.InitialOdometer, e.EntryOdometer, e.EntryDate)
}

func (e *InitialOdometerError) Unwrap() error { return ErrInitialOdometerTooHigh }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrOdometerNotAboveInitial) ||
		errors.Is(err, ErrOdometerNotAbovePredecessor) ||
		errors.Is(err, ErrOdometerNotBelowSuccessor) ||
		errors.Is(err, ErrEntryDateInFuture) ||
		errors.Is(err, ErrNonPositiveQuantity) ||
		errors.Is(err, ErrInitialOdometerTooHigh) ||
		errors.Is(err, ErrInvalidPeriodType) ||
		errors.Is(err, ErrCustomPeriodMissingBounds) ||
		errors.Is(err, ErrCustomPeriodTooLong) ||
		errors.Is(err, ErrVehicleNameTaken)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVehicleNotFound) || errors.Is(err, ErrEntryNotFound)
}

// ErrorCode returns the machine-readable code the API attaches to validation
// failures. Unknown errors map to "internal_error".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrOdometerNotAboveInitial):
		return "odometer_le_initial"
	case errors.Is(err, ErrOdometerNotAbovePredecessor):
		return "odometer_le_previous"
	case errors.Is(err, ErrOdometerNotBelowSuccessor):
		return "odometer_ge_next"
	case errors.Is(err, ErrEntryDateInFuture):
		return "entry_date_in_future"
	case errors.Is(err, ErrNonPositiveQuantity):
		return "non_positive_quantity"
	case errors.Is(err, ErrInitialOdometerTooHigh):
		return "initial_odometer_too_high"
	case errors.Is(err, ErrInvalidPeriodType):
		return "invalid_period"
	case errors.Is(err, ErrCustomPeriodMissingBounds):
		return "missing_dates"
	case errors.Is(err, ErrCustomPeriodTooLong):
		return "period_too_long"
	case errors.Is(err, ErrVehicleNameTaken):
		return "vehicle_name_taken"
	case errors.Is(err, ErrVehicleNotFound), errors.Is(err, ErrEntryNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
