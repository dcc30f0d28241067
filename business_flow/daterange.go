package businessflow

import (
	"strings"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/utils"
)

// DateRange is a half-open [Start, End) interval of whole UTC days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses inclusive YYYY-MM-DD bounds into a half-open range
// ending at midnight after endDate
func ParseDateRange(startDate, endDate string) (DateRange, error) {
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return DateRange{}, NewBusinessError("DATE_RANGE_REQUIRED", "Start date and end date are required", ErrDateRangeRequired)
	}

	start, err := time.ParseInLocation(utils.DateLayout, startDate, time.UTC)
	if err != nil {
		return DateRange{}, NewBusinessErrorf("INVALID_DATE_FORMAT", "Invalid start_date %q, use YYYY-MM-DD", ErrInvalidDateFormat, startDate)
	}
	end, err := time.ParseInLocation(utils.DateLayout, endDate, time.UTC)
	if err != nil {
		return DateRange{}, NewBusinessErrorf("INVALID_DATE_FORMAT", "Invalid end_date %q, use YYYY-MM-DD", ErrInvalidDateFormat, endDate)
	}
	if start.After(end) {
		return DateRange{}, NewBusinessError("VALIDATION_ERROR", "start_date must not be after end_date", ErrValidation)
	}

	return DateRange{Start: start, End: end.AddDate(0, 0, 1)}, nil
}

// LastDay returns the inclusive end date
func (r DateRange) LastDay() time.Time {
	return r.End.AddDate(0, 0, -1)
}
