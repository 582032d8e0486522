package filter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// pickupLayouts are tried in order. Fractional seconds are accepted by all of them.
var pickupLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05",
}

// ParsePickupTime parses a pickup timestamp ("YYYY-MM-DD HH:MM:SS" with an
// optional zone token). Values that match no layout return a parse error.
func ParsePickupTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range pickupLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, errhandling.NewParseError(trip.ColPickupDatetime, value, firstErr)
}

// ISOWeekday returns the weekday numbered 1 (Monday) to 7 (Sunday).
func ISOWeekday(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// TemporalModule derives calendar fields from pickup_datetime:
// pickup_time, pickup_year, pickup_month, pickup_hour and pickup_day.
// pickup_time and pickup_hour both hold the hour. pickup_day is the ISO weekday.
// Unparseable timestamps leave all five fields null and keep the row.
type TemporalModule struct{}

// NewTemporal creates the temporal deriver.
func NewTemporal() *TemporalModule { return &TemporalModule{} }

// Name implements Module.
func (m *TemporalModule) Name() string { return "temporal" }

// Process implements Module.
func (m *TemporalModule) Process(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	raw, present, err := frame.Strings(df, trip.ColPickupDatetime)
	if err != nil {
		return df, err
	}

	n := len(raw)
	hour := make([]int, n)
	year := make([]int, n)
	month := make([]int, n)
	day := make([]int, n)
	valid := make([]bool, n)

	failures := 0
	var firstErr error
	for i, value := range raw {
		if !present[i] {
			continue
		}
		t, err := ParsePickupTime(value)
		if err != nil {
			if errhandling.IsFatal(err) {
				return df, err
			}
			failures++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		hour[i] = t.Hour()
		year[i] = t.Year()
		month[i] = int(t.Month())
		day[i] = ISOWeekday(t)
		valid[i] = true
	}

	if failures > 0 {
		logger.Warn("unparseable pickup timestamps set to null",
			slog.Int("count", failures),
			slog.String("category", string(errhandling.GetErrorCategory(firstErr))),
			slog.String("first_error", firstErr.Error()),
		)
	}

	out := df.
		Mutate(frame.IntSeries(trip.ColPickupTime, hour, valid)).
		Mutate(frame.IntSeries(trip.ColPickupYear, year, valid)).
		Mutate(frame.IntSeries(trip.ColPickupMonth, month, valid)).
		Mutate(frame.IntSeries(trip.ColPickupHour, hour, valid)).
		Mutate(frame.IntSeries(trip.ColPickupDay, day, valid))
	return out, nil
}

var _ Module = (*TemporalModule)(nil)
