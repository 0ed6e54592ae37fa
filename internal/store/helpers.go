package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func nullableDate(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(dateLayout)
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

// parseTimeString accepts RFC3339 text (sqlite) and the driver rendering of
// timestamptz/date values (postgres).
func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// dateString renders a stored date as YYYY-MM-DD regardless of backend.
func dateString(value sql.NullString) string {
	if !value.Valid || value.String == "" {
		return ""
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return value.String
	}
	return t.UTC().Format(dateLayout)
}
