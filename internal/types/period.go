// Package types implements special types for Splitzy-Pay.
package types

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Period is a calendar month in a specific year. Budgets are allocated
// per Period and expense spend is summed per Period.
type Period time.Time

// NewPeriod returns the Period for the given year and month.
func NewPeriod(year int, month time.Month) Period {
	return Period(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// PeriodOf returns the Period in which a time occurs in that time's location.
func PeriodOf(t time.Time) Period {
	year, month, _ := t.Date()
	return Period(time.Date(year, month, 1, 0, 0, 0, 0, t.Location()))
}

// String returns the period formatted as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", time.Time(p).Year(), time.Time(p).Month())
}

// MarshalJSON implements the json.Marshaler interface.
func (p Period) MarshalJSON() ([]byte, error) {
	return time.Time(p).MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// Accepted formats are RFC3339, "2006-01-02" and "2006-01"; everything
// except the year and the month is ignored.
func (p *Period) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		return nil
	}

	pattern := "2006-01-02T15:04:05Z07:00"
	if match, err := regexp.MatchString("^[0-9]{4}-[0-9]{2}-[0-9]{2}$", value); err == nil && match {
		pattern = "2006-01-02"
	} else if match, err := regexp.MatchString("^[0-9]{4}-[0-9]{2}$", value); err == nil && match {
		pattern = "2006-01"
	}

	t, err := time.Parse(pattern, value)
	if err != nil {
		return err
	}

	*p = NewPeriod(t.Year(), t.Month())
	return nil
}

// ParsePeriod parses a "YYYY-MM" string and returns the Period it represents.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, err
	}

	return PeriodOf(t), nil
}

// Scan reads the value from the database.
func (p *Period) Scan(value interface{}) (err error) {
	nullTime := &sql.NullTime{}
	err = nullTime.Scan(value)
	*p = Period(nullTime.Time)
	return err
}

// Value returns the value for the SQL driver to write to the database.
func (p Period) Value() (driver.Value, error) {
	year, month, _ := time.Time(p).Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}

// GormDataType defines the data type used by gorm for the type.
func (Period) GormDataType() string {
	return "date"
}

// IsZero reports if the period is the zero value.
func (p Period) IsZero() bool {
	return time.Time(p).IsZero()
}

// Next returns the period directly after p.
func (p Period) Next() Period {
	return Period(time.Time(p).AddDate(0, 1, 0))
}

// Equal reports whether p and q represent the same period.
func (p Period) Equal(q Period) bool {
	return time.Time(p).Equal(time.Time(q))
}

// Contains reports whether the time instant is in the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == time.Time(p).Year() && t.Month() == time.Time(p).Month()
}
