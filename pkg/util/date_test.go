package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeUnixMilli(t *testing.T) {
    ms := time.Date(2024, 10, 10, 10, 10, 10, 500e6, time.UTC).UnixMilli()
    got, ok := ParseTime(strconv.FormatInt(ms, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UnixMilli() != ms {
        t.Fatalf("unexpected unix ms %v", got.UnixMilli())
    }
}

func TestFromUnixMilli(t *testing.T) {
    if got := FromUnixMilli(1700000000123); got.UnixMilli() != 1700000000123 {
        t.Fatalf("unexpected %v", got)
    }
    if got := FromUnixMilli(0); got.IsZero() {
        t.Fatalf("expected now for zero timestamp")
    }
}

func TestParseIntDefault(t *testing.T) {
    if ParseIntDefault("7", 3) != 7 {
        t.Fatalf("expected parsed value")
    }
    if ParseIntDefault("x", 3) != 3 || ParseIntDefault("", 3) != 3 {
        t.Fatalf("expected default")
    }
}
