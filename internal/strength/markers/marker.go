package markers

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. It marshals as
// "2006-01-02" and maps to the postgres DATE type.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date: %s", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src any) error {
	t, ok := src.(time.Time)
	if !ok {
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Marker is one user-defined health metric (bodyweight, sleep hours,
// resting heart rate) tracked over time.
type Marker struct {
	ID     int    `json:"marker_id"`
	Name   string `json:"marker_name"`
	Colour string `json:"colour"`
	UserID int    `json:"user_id"`
}

// MarkerPatch is a partial marker update: nil fields stay unchanged.
type MarkerPatch struct {
	Name   *string `json:"name,omitempty"`
	Colour *string `json:"color,omitempty"`
}

// LogEntry is one recorded value of a marker.
type LogEntry struct {
	Value  float64 `json:"value"`
	Date   Date    `json:"date"`
	UserID int     `json:"user_id"`
}

// TimelineEntry is one point of a marker's value history.
type TimelineEntry struct {
	Value float64 `json:"value"`
	Date  Date    `json:"date"`
}

// Analytics is an aggregate of a marker's values over a date range.
type Analytics struct {
	Value      float64 `json:"value"`
	MetricType string  `json:"metric_type"`
	StartDate  Date    `json:"start_date"`
	EndDate    Date    `json:"end_date"`
}

const (
	MetricSum     = "sum"
	MetricAverage = "average"
)

var (
	ErrMarkerNotFound = errors.New("marker not found")
	ErrEmptyPatch     = errors.New("nothing to update")
)
