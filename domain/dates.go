package domain

import (
	"fmt"
	"time"
)

// The backend parses and emits dates as dd/MM/yyyy, while date inputs on
// this side use ISO yyyy-MM-dd. Conversion happens at the wire boundary in
// both directions.
const (
	ServerDateLayout = "02/01/2006"
	ClientDateLayout = "2006-01-02"
)

// ToServerDate converts an ISO "YYYY-MM-DD" date into the "DD/MM/YYYY"
// form the backend expects.
func ToServerDate(iso string) (string, error) {
	t, err := time.Parse(ClientDateLayout, iso)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %v", iso, err)
	}
	return t.Format(ServerDateLayout), nil
}

// ToClientDate converts a backend "DD/MM/YYYY" date into ISO "YYYY-MM-DD".
func ToClientDate(dmy string) (string, error) {
	t, err := time.Parse(ServerDateLayout, dmy)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %v", dmy, err)
	}
	return t.Format(ClientDateLayout), nil
}

// ParseServerDate parses a backend "DD/MM/YYYY" date.
func ParseServerDate(dmy string) (time.Time, error) {
	return time.Parse(ServerDateLayout, dmy)
}

// ParseClientDate parses an ISO "YYYY-MM-DD" date.
func ParseClientDate(iso string) (time.Time, error) {
	return time.Parse(ClientDateLayout, iso)
}

// Today returns the current date in the client layout, midnight local time.
func Today() string {
	return time.Now().Format(ClientDateLayout)
}
