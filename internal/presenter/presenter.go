// Package presenter turns a weather report into display-ready text.
package presenter

import (
	"math"
	"strconv"
	"time"

	"github.com/kjstillabower/weathernow/internal/conditions"
	"github.com/kjstillabower/weathernow/internal/models"
)

// NotAvailable is shown for any missing or null value.
const NotAvailable = "N/A"

// MaxForecastDays caps the number of forecast days shown.
const MaxForecastDays = 7

// View is the display form of a report.
type View struct {
	Location    string          `json:"location"`
	Date        string          `json:"date"`
	Icon        conditions.Icon `json:"icon"`
	Description string          `json:"description"`
	Temperature int             `json:"temperature"`
	Unit        string          `json:"unit"`
	Wind        string          `json:"wind"`
	Direction   string          `json:"direction"`
	Humidity    string          `json:"humidity"`
	Visibility  string          `json:"visibility"`
	Days        []Day           `json:"days"`
}

// Day is one forecast row.
type Day struct {
	Label string          `json:"label"`
	Icon  conditions.Icon `json:"icon"`
	Max   string          `json:"max"`
	Min   string          `json:"min"`
}

// Presenter maps reports to views. The clock decides the date heading.
type Presenter struct {
	clock func() time.Time
}

// New creates a Presenter. A nil clock uses time.Now.
func New(clock func() time.Time) *Presenter {
	if clock == nil {
		clock = time.Now
	}
	return &Presenter{clock: clock}
}

// Present builds the View for report.
func (p *Presenter) Present(report models.Report) View {
	zone := time.FixedZone(report.Timezone, report.UTCOffsetSeconds)
	cur := report.Current

	v := View{
		Location:    report.Location,
		Date:        p.clock().In(zone).Format("Monday, January 2"),
		Icon:        conditions.IconFor(cur.WeatherCode),
		Description: conditions.Description(cur.WeatherCode),
		Temperature: round(cur.Temperature),
		Unit:        "C",
		Wind:        formatNumber(cur.WindSpeed) + " km/h",
		Direction:   formatNumber(cur.WindDirection) + "°",
		Humidity:    NotAvailable,
		Visibility:  NotAvailable,
	}

	if h := report.Hourly; h != nil && len(h.Time) > 0 {
		i := hourlyIndex(h.Time, cur.Time)
		if val, ok := at(h.RelativeHumidity, i); ok {
			v.Humidity = strconv.Itoa(round(val)) + "%"
		}
		if val, ok := at(h.Visibility, i); ok {
			v.Visibility = strconv.Itoa(round(val/1000)) + " km"
		}
	}

	v.Days = days(report.Daily)
	return v
}

func days(d *models.Daily) []Day {
	if d == nil {
		return nil
	}
	n := len(d.Time)
	if n > MaxForecastDays {
		n = MaxForecastDays
	}
	out := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		day := Day{
			Label: dayLabel(i, d.Time[i]),
			Icon:  conditions.IconFor(-1),
			Max:   NotAvailable,
			Min:   NotAvailable,
		}
		if i < len(d.WeatherCode) && d.WeatherCode[i] != nil {
			day.Icon = conditions.IconFor(*d.WeatherCode[i])
		}
		if val, ok := at(d.TemperatureMax, i); ok {
			day.Max = strconv.Itoa(round(val)) + "°"
		}
		if val, ok := at(d.TemperatureMin, i); ok {
			day.Min = strconv.Itoa(round(val)) + "°"
		}
		out = append(out, day)
	}
	return out
}

func dayLabel(i int, date string) string {
	if i == 0 {
		return "Today"
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Mon")
}

// hourlyIndex returns the last slot at or before current, or 0 when none is.
// Timestamps share the ISO-8601 local format so string order is time order.
func hourlyIndex(times []string, current string) int {
	idx := 0
	for i, t := range times {
		if t > current {
			break
		}
		idx = i
	}
	return idx
}

func at(values []*float64, i int) (float64, bool) {
	if i < 0 || i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// round rounds half up, so -2.5 becomes -2.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
