package platform

import (
	"testing"
	"time"
)

func TestParsePoint_Valid(t *testing.T) {
	p, err := ParsePoint("100, 200")
	if err != nil {
		t.Fatal(err)
	}
	if p.X != 100 || p.Y != 200 {
		t.Errorf("got %+v, want {100 200}", p)
	}
}

func TestParsePoint_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10",
		"10,20,30",
		"a,b",
	}
	for _, s := range tests {
		if _, err := ParsePoint(s); err == nil {
			t.Errorf("ParsePoint(%q) should fail", s)
		}
	}
}

func TestTap(t *testing.T) {
	g := Tap(100, 200, 50*time.Millisecond)
	p, hold, ok := g.IsTap()
	if !ok {
		t.Fatal("Tap should produce a tap gesture")
	}
	if p != (Point{100, 200}) || hold != 50*time.Millisecond {
		t.Errorf("got %+v hold %v", p, hold)
	}
}

func TestIsTap_RejectsMovingStroke(t *testing.T) {
	g := Gesture{Strokes: []Stroke{{Path: []Point{{0, 0}, {10, 10}}}}}
	if _, _, ok := g.IsTap(); ok {
		t.Error("moving stroke is not a tap")
	}
	if _, _, ok := (Gesture{}).IsTap(); ok {
		t.Error("empty gesture is not a tap")
	}
}

func TestCenteredMarker(t *testing.T) {
	m := CenteredMarker(100, 200, 88, Appearance{Alpha: 0, Scale: 0.85})
	if m.X != 56 || m.Y != 156 || m.Size != 88 {
		t.Errorf("got %+v", m)
	}
}
