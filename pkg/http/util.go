package http

import (
	"time"

	xutil "RegimeWatch/pkg/util"
)

// ParseSince parses an optional "since" query value.
// Empty input yields the zero time.
func ParseSince(s string) (time.Time, *AppError) {
	if s == "" {
		return time.Time{}, nil
	}
	t, ok := xutil.ParseTime(s)
	if !ok {
		return time.Time{}, InvalidTimeError("since", s)
	}
	return t, nil
}
