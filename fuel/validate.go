/*
validate.go - Write validation for fuel entries

PURPOSE:
  Rejects writes that would break the global odometer monotonicity
  invariant, before any calculator or cascade work happens. Also hosts the
  cheap field checks (date not in the future, positive quantities) so every
  write path validates through one door.

MONOTONICITY:
  For a fixed vehicle, entries ordered by (entry_date, created_seq) must
  have strictly increasing odometer readings, and every reading must
  strictly exceed the vehicle's initial odometer. The check compares the
  candidate against the vehicle's initial odometer and against both
  ordering neighbors; each rejection carries the conflicting boundary so
  clients can render a precise message.

UPDATE SKIP:
  When neither odometer nor vehicle changed on an update, the check is
  skipped entirely: editing notes must not re-trigger ordering validation
  or a cascade. The engine owns that decision; see engine.go.
*/
package fuel

import "context"

// ValidateEntryInput checks the field-level rules every write must satisfy:
// entry date not in the future (relative to today), positive odometer,
// liters and total amount strictly positive.
func ValidateEntryInput(e *FuelEntry, today Date) error {
	if e.EntryDate.After(today) {
		return ErrEntryDateInFuture
	}
	if e.Odometer <= 0 {
		return &QuantityError{Field: "odometer"}
	}
	if !e.Liters.IsPositive() {
		return &QuantityError{Field: "liters"}
	}
	if !e.TotalAmount.IsPositive() {
		return &QuantityError{Field: "total_amount"}
	}
	return nil
}

// ValidateMonotonicity checks a candidate (odometer, date, seq) against the
// vehicle's initial odometer and its ordering neighbors. exclude is the id
// of the entry being edited, or empty for a new entry; seq is the entry's
// stored created_seq for updates and ProbeSeqNow for creates.
func ValidateMonotonicity(ctx context.Context, s Store, v *Vehicle, odometer int64, date Date, seq int64, exclude EntryID) error {
	if odometer <= v.InitialOdometer {
		return notAboveInitial(odometer, v.InitialOdometer)
	}

	prev, err := s.Predecessor(ctx, v.ID, date, seq, exclude)
	if err != nil {
		return err
	}
	if prev != nil && odometer <= prev.Odometer {
		return notAbovePredecessor(odometer, prev)
	}

	next, err := s.Successor(ctx, v.ID, date, seq, exclude)
	if err != nil {
		return err
	}
	if next != nil && odometer >= next.Odometer {
		return notBelowSuccessor(odometer, next)
	}

	return nil
}

// ValidateInitialOdometer checks that a vehicle's initial odometer does not
// reach the earliest entry's reading. entries must be in ordering-key order.
func ValidateInitialOdometer(initialOdometer int64, entries []FuelEntry) error {
	if len(entries) == 0 {
		return nil
	}
	first := entries[0]
	if initialOdometer >= first.Odometer {
		return &InitialOdometerError{
			InitialOdometer: initialOdometer,
			EntryOdometer:   first.Odometer,
			EntryDate:       first.EntryDate,
		}
	}
	return nil
}
