package domain

import (
	"fmt"
	"time"
)

// Request identifies one GFS file and the indexing resolution to apply to
// it. It is immutable once built and fully determines the fetch and the
// output metadata columns.
type Request struct {
	Date         time.Time // model run date, midnight UTC
	Cycle        int       // model cycle hour: 0, 6, 12, or 18
	ForecastHour int       // hours ahead of the cycle time, 0 to 384
	H3Resolution int       // H3 cell resolution, 0 to 15
}

// Validate checks the request against the GFS publication schedule and the
// H3 resolution range.
func (r Request) Validate() error {
	switch r.Cycle {
	case 0, 6, 12, 18:
	default:
		return fmt.Errorf("cycle must be one of 0, 6, 12, 18, got %d", r.Cycle)
	}
	if r.ForecastHour < 0 || r.ForecastHour > 384 {
		return fmt.Errorf("forecast hour must be in [0, 384], got %d", r.ForecastHour)
	}
	if r.H3Resolution < 0 || r.H3Resolution > 15 {
		return fmt.Errorf("h3 resolution must be in [0, 15], got %d", r.H3Resolution)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// RunTime returns the model run time: date + cycle hours.
func (r Request) RunTime() time.Time {
	return r.Date.Add(time.Duration(r.Cycle) * time.Hour)
}

// ForecastTime returns the valid time of the forecast: run time + forecast
// hour.
func (r Request) ForecastTime() time.Time {
	return r.RunTime().Add(time.Duration(r.ForecastHour) * time.Hour)
}
