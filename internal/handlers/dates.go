package handlers

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"qc-tracker/backend/internal/apperrors"
)

const dateOnlyLayout = "2006-01-02"

// flexDate decodes a JSON date given as RFC 3339, YYYY-MM-DD, null or "".
type flexDate struct {
	Time *time.Time
}

func (d *flexDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Time = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return apperrors.Validation("", "dates must be strings in YYYY-MM-DD or RFC 3339 format")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = nil
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return apperrors.Validation("", "Invalid date %q, expected YYYY-MM-DD or RFC 3339", raw)
	}
	d.Time = &t
	return nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(dateOnlyLayout, raw, time.UTC)
}
