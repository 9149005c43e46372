package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEntityTypeScan(t *testing.T) {
	cases := []struct {
		in   interface{}
		want EntityType
	}{
		{"role", EntityRole},
		{[]byte("permission"), EntityPermission},
		{"branch", EntityBranch},
		{"department", EntityDepartment},
		{"degree", EntityDegree},
		{"school", EntityUnknown},
		{nil, EntityUnknown},
	}
	for _, c := range cases {
		var got EntityType
		if err := got.Scan(c.in); err != nil {
			t.Fatalf("Scan(%v) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Scan(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	var et EntityType
	if err := et.Scan(42); err == nil {
		t.Fatal("expected error for integer column")
	}
}

func TestEntityTypeValueRejectsUnknown(t *testing.T) {
	if _, err := EntityUnknown.Value(); err == nil {
		t.Fatal("unknown entity type must not be stored")
	}
	v, err := EntityDegree.Value()
	if err != nil || v != "degree" {
		t.Fatalf("Value() = (%v,%v)", v, err)
	}
}

func TestStringListScan(t *testing.T) {
	var l StringList
	if err := l.Scan(`["employee","teacher"]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 2 || l[1] != "teacher" {
		t.Fatalf("unexpected list %v", l)
	}
	if err := l.Scan(nil); err != nil || l == nil || len(l) != 0 {
		t.Fatalf("nil column should give empty list, got %v (%v)", l, err)
	}
	v, _ := StringList(nil).Value()
	if v != "[]" {
		t.Fatalf("nil list should store [], got %v", v)
	}
}

func TestSessionJSON(t *testing.T) {
	s := Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC)}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"expiresAt":"2026-01-02T03:04:05.006Z"`) {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestDegreeLabel(t *testing.T) {
	kh := "បរិញ្ញាបត្រ"
	if got := (Degree{ID: 3, NameKh: &kh}).Label(); got != kh {
		t.Fatalf("Label() = %q", got)
	}
	if got := (Degree{ID: 3}).Label(); got != "3" {
		t.Fatalf("Label() = %q", got)
	}
}

func TestLegitIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := LegitID()
		if len(id) != 32 {
			t.Fatalf("unexpected id length %d", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
