package db

import (
	"testing"
	"time"
)

func TestWeekdaysCSVRoundTrip(t *testing.T) {
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	csv := weekdaysToCSV(days)
	if csv != "1,2,3,4,5" {
		t.Fatalf("unexpected csv %q", csv)
	}
	back := weekdaysFromCSV(csv)
	if len(back) != len(days) {
		t.Fatalf("expected %d days, got %d", len(days), len(back))
	}
	for i := range days {
		if back[i] != days[i] {
			t.Fatalf("day %d: expected %v, got %v", i, days[i], back[i])
		}
	}
}

func TestWeekdaysFromCSVSkipsGarbage(t *testing.T) {
	got := weekdaysFromCSV("1,x,9,5")
	if len(got) != 2 || got[0] != time.Monday || got[1] != time.Friday {
		t.Fatalf("unexpected result %v", got)
	}
	if weekdaysFromCSV("") != nil {
		t.Fatalf("empty csv must yield nil")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	raw, err := marshalConfig(map[string]string{"url": "https://example.com/hook"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cfg := unmarshalConfig(raw)
	if cfg["url"] != "https://example.com/hook" {
		t.Fatalf("unexpected config %v", cfg)
	}

	empty, err := marshalConfig(nil)
	if err != nil {
		t.Fatalf("marshal empty: %v", err)
	}
	if string(empty) != "{}" {
		t.Fatalf("expected empty object, got %s", empty)
	}
	if unmarshalConfig(empty) != nil {
		t.Fatalf("empty object must map back to nil")
	}
}
