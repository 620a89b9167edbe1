// Package domain defines the persistence models of the community bot store.
// This file contains Timestamp, the text-encoded point in time used by every
// table that carries a "Timestamp" column.
package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/schema"
)

// TimestampLayout is the layout written to the database. It matches the
// textual form produced by the bot that created the schema, so rows written by
// either implementation compare and sort identically as text.
const TimestampLayout = "2006-01-02 15:04:05.999999"

// parseLayouts are tried in order when reading a stored timestamp.
var parseLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07:00",
}

// Timestamp is a UTC time stored as TEXT.
//
// The zero value is stored as NULL and reads back as the zero value.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns t truncated to microseconds and converted to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp { return NewTimestamp(time.Now()) }

// ParseTimestamp parses any of the accepted textual layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("domain: unrecognised timestamp %q", s)
}

// String renders the timestamp in TimestampLayout.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

// Scan implements sql.Scanner. Drivers may hand back TEXT as string or []byte,
// and some convert date-like columns to time.Time on their own.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Timestamp{}
		return nil
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	default:
		return fmt.Errorf("domain: cannot scan %T into Timestamp", src)
	}
}

// GormDataType keeps GORM from inspecting the embedded time.Time.
func (Timestamp) GormDataType() string { return string(schema.String) }
