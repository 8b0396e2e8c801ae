/*
calculator.go - Per-entry derived field computation

PURPOSE:
  Pure, stateless computation of one entry's derived fields given its
  immediate predecessor (or the vehicle's initial odometer when it has
  none). This is the only place derived fields are assigned.

RULES:
  1. unit_price = total_amount / liters. Always computed; it is the one
     field independent of sequence position.
  2. distance_since_last = odometer - predecessor.odometer, or
     odometer - initial_odometer for the first entry in the sequence.
  3. consumption_l_100km = liters / distance * 100 and
     cost_per_km = total_amount / distance, only when distance > 0.
  4. A zero or negative distance leaves consumption and cost nil. It is
     unreachable while monotonicity holds, but the calculator must never
     divide by zero regardless of upstream state.

PRECISION:
  All arithmetic is decimal. Values keep full precision internally;
  rounding (consumption 1dp, unit price 2dp, cost/km 4dp) happens only
  at the presentation layer.

SEE ALSO:
  - engine.go: Drives the calculator along the ordered sequence
  - validate.go: Enforces the monotonicity that makes rule 4 unreachable
*/
package fuel

import "github.com/shopspring/decimal"

// Calculate assigns e's derived fields from its predecessor, or from
// initialOdometer when prev is nil. The caller guarantees Liters > 0.
func Calculate(e *FuelEntry, prev *FuelEntry, initialOdometer int64) {
	e.UnitPrice = e.TotalAmount.Div(e.Liters)

	base := initialOdometer
	if prev != nil {
		base = prev.Odometer
	}

	distance := e.Odometer - base
	e.DistanceSinceLast = &distance

	if distance <= 0 {
		e.ConsumptionL100Km = nil
		e.CostPerKm = nil
		return
	}

	dist := decimal.NewFromInt(distance)
	consumption := e.Liters.Div(dist).Mul(hundred)
	costPerKm := e.TotalAmount.Div(dist)
	e.ConsumptionL100Km = &consumption
	e.CostPerKm = &costPerKm
}

// Recalculate runs the calculator over the full ordered sequence, carrying
// the predecessor chain through the walk. It returns the entries whose
// derived fields changed, ready for a single bulk persist.
func Recalculate(entries []*FuelEntry, initialOdometer int64) []*FuelEntry {
	var changed []*FuelEntry
	var prev *FuelEntry
	for _, e := range entries {
		before := snapshotDerived(e)
		Calculate(e, prev, initialOdometer)
		if !before.equal(e) {
			changed = append(changed, e)
		}
		prev = e
	}
	return changed
}

type derivedSnapshot struct {
	unitPrice   decimal.Decimal
	distance    *int64
	consumption *decimal.Decimal
	costPerKm   *decimal.Decimal
}

func snapshotDerived(e *FuelEntry) derivedSnapshot {
	return derivedSnapshot{
		unitPrice:   e.UnitPrice,
		distance:    e.DistanceSinceLast,
		consumption: e.ConsumptionL100Km,
		costPerKm:   e.CostPerKm,
	}
}

func (s derivedSnapshot) equal(e *FuelEntry) bool {
	return s.unitPrice.Equal(e.UnitPrice) &&
		int64PtrEqual(s.distance, e.DistanceSinceLast) &&
		decimalPtrEqual(s.consumption, e.ConsumptionL100Km) &&
		decimalPtrEqual(s.costPerKm, e.CostPerKm)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
