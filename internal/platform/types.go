package platform

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X, Y int
}

// ParsePoint parses an "x,y" string.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid point %q: expected x,y", s)
	}
	vals := make([]int, 2)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
		}
		vals[i] = v
	}
	return Point{X: vals[0], Y: vals[1]}, nil
}

// Stroke is one continuous pointer path.
type Stroke struct {
	Path     []Point
	Start    time.Duration // delay from gesture start
	Duration time.Duration
}

// Gesture is a set of strokes dispatched together.
type Gesture struct {
	Strokes []Stroke
}

// Tap returns a single-stroke gesture that holds one point for hold.
func Tap(x, y int, hold time.Duration) Gesture {
	return Gesture{Strokes: []Stroke{{
		Path:     []Point{{X: x, Y: y}},
		Duration: hold,
	}}}
}

// IsTap reports whether g is a single stationary stroke, and returns its
// point and hold time.
func (g Gesture) IsTap() (Point, time.Duration, bool) {
	if len(g.Strokes) != 1 || len(g.Strokes[0].Path) == 0 {
		return Point{}, 0, false
	}
	s := g.Strokes[0]
	p := s.Path[0]
	for _, q := range s.Path[1:] {
		if q != p {
			return Point{}, 0, false
		}
	}
	return p, s.Duration, true
}

// Appearance is the visual state of an overlay marker.
type Appearance struct {
	Alpha float64
	Scale float64
}

// MarkerSpec positions a new overlay marker. X and Y are the marker's
// top-left corner; Size is its edge length in pixels.
type MarkerSpec struct {
	X, Y    int
	Size    int
	Initial Appearance
}

// CenteredMarker returns a spec for a marker of the given size centred on
// (x, y).
func CenteredMarker(x, y, size int, initial Appearance) MarkerSpec {
	return MarkerSpec{X: x - size/2, Y: y - size/2, Size: size, Initial: initial}
}
