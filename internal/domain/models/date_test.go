package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2026-08-30" {
		t.Fatalf("roundtrip mismatch: %q", d.String())
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := ParseDate("30/08/2026"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDateOfTruncatesTime(t *testing.T) {
	ts := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	d := DateOf(ts)
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Fatalf("time component not truncated: %v", d.Time)
	}
}

func TestAddDays(t *testing.T) {
	d, _ := ParseDate("2026-08-30")
	if got := d.AddDays(-7).String(); got != "2026-08-23" {
		t.Fatalf("AddDays(-7) = %q", got)
	}
	if got := d.AddDays(2).String(); got != "2026-09-01" {
		t.Fatalf("AddDays(2) = %q", got)
	}
}

func TestDateJSONRoundtrip(t *testing.T) {
	d, _ := ParseDate("2026-08-30")
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-08-30"` {
		t.Fatalf("unexpected wire form %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("roundtrip mismatch: %v vs %v", back, d)
	}
}

func TestDateUnmarshalRejectsNonString(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`20260830`), &d); err == nil {
		t.Fatalf("expected error for non-string date")
	}
}
