package fuel

// =============================================================================
// PERIOD - Date window for dashboard statistics
// =============================================================================

// PeriodType is the requested statistics window kind.
type PeriodType string

const (
	PeriodLast30Days PeriodType = "30d"
	PeriodLast90Days PeriodType = "90d"
	PeriodYearToDate PeriodType = "ytd"
	PeriodCustom     PeriodType = "custom"
)

// Period is an inclusive [After, Before] date window.
type Period struct {
	After  Date
	Before Date
}

// Contains returns true if d is within the window.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.After) && d.BeforeOrEqual(p.Before)
}

// Days returns the inclusive window length in days.
func (p Period) Days() int {
	return DaysBetween(p.After, p.Before) + 1
}

func (p Period) String() string {
	return "[" + p.After.String() + ", " + p.Before.String() + "]"
}

// maxCustomPeriodDays caps custom windows; larger windows are rejected
// rather than computed.
const maxCustomPeriodDays = 365

// ResolvePeriod maps a period type to a concrete window relative to today.
// Custom periods require both explicit bounds and may span at most 365 days.
func ResolvePeriod(pt PeriodType, after, before *Date, today Date) (Period, error) {
	switch pt {
	case PeriodLast30Days:
		return Period{After: today.AddDays(-30), Before: today}, nil
	case PeriodLast90Days:
		return Period{After: today.AddDays(-90), Before: today}, nil
	case PeriodYearToDate:
		return Period{After: StartOfYear(today.Year()), Before: today}, nil
	case PeriodCustom:
		if after == nil || before == nil {
			return Period{}, ErrCustomPeriodMissingBounds
		}
		if DaysBetween(*after, *before) > maxCustomPeriodDays {
			return Period{}, ErrCustomPeriodTooLong
		}
		return Period{After: *after, Before: *before}, nil
	default:
		return Period{}, ErrInvalidPeriodType
	}
}
