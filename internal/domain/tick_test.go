package domain

import (
	"testing"
)

func TestTickInsertionOrder(t *testing.T) {
	tick := NewTick()
	tick.Set("timestamp", 1000)
	tick.Set("open", 1.1)
	tick.Set("high", 1.2)
	tick.Set("low", 1.0)
	tick.Set("close", 1.15)

	want := []string{"timestamp", "open", "high", "low", "close"}
	got := tick.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() returned %d fields, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], name)
		}
	}

	// Updating an existing field must not move it.
	tick.Set("open", 1.12)
	if tick.Names()[1] != "open" {
		t.Errorf("updating open moved it to position %v", tick.Names())
	}
	if v, _ := tick.Get("open"); v != 1.12 {
		t.Errorf("Get(open) = %v, want 1.12", v)
	}
}

func TestTickDelete(t *testing.T) {
	tick := NewTick()
	tick.Set("timestamp", 1000)
	tick.Set("testingGroups", 3)
	tick.Set("close", 1.15)

	tick.Delete("testingGroups")

	if _, ok := tick.Get("testingGroups"); ok {
		t.Error("testingGroups still present after Delete")
	}
	names := tick.Names()
	if len(names) != 2 || names[0] != "timestamp" || names[1] != "close" {
		t.Errorf("Names() after Delete = %v, want [timestamp close]", names)
	}
	if v, ok := tick.Get("close"); !ok || v != 1.15 {
		t.Errorf("Get(close) after Delete = %v, %v", v, ok)
	}
}

func TestTickJSONRoundTripPreservesOrder(t *testing.T) {
	tick := NewTick()
	tick.Set("timestamp", 1450305600)
	tick.Set("open", 1.0921)
	tick.Set("close", 1.0925)
	tick.Set("rsi", 54.3)

	data, err := tick.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	parsed, err := ParseTick(data)
	if err != nil {
		t.Fatalf("ParseTick: %v", err)
	}

	if parsed.Len() != tick.Len() {
		t.Fatalf("round trip lost fields: got %d, want %d", parsed.Len(), tick.Len())
	}
	for i, name := range tick.Names() {
		if parsed.Names()[i] != name {
			t.Errorf("field %d = %q after round trip, want %q", i, parsed.Names()[i], name)
		}
		want, _ := tick.Get(name)
		got, _ := parsed.Get(name)
		if got != want {
			t.Errorf("%s = %v after round trip, want %v", name, got, want)
		}
	}
}

func TestParseTickRejectsNonNumeric(t *testing.T) {
	if _, err := ParseTick([]byte(`{"close": "high"}`)); err == nil {
		t.Error("ParseTick accepted a non-numeric field")
	}
}

func TestBuildDataIndex(t *testing.T) {
	index := BuildDataIndex([]string{"timestamp", "open", "high", "low", "close", "rsi"})

	wants := map[string]int{"timestamp": 0, "open": 1, "high": 2, "low": 3, "close": 4, "rsi": 5}
	for name, want := range wants {
		col, err := index.Column(name)
		if err != nil {
			t.Fatalf("Column(%s): %v", name, err)
		}
		if col != want {
			t.Errorf("Column(%s) = %d, want %d", name, col, want)
		}
	}

	if _, err := index.Column("macd"); err == nil {
		t.Error("Column(macd) should fail for an unknown feature")
	}
}
