// Package waveform turns frequency snapshots into SVG polyline paths and
// redraws them on a frame clock.
package waveform

import (
	"strconv"
	"strings"
)

const (
	DefaultWidth     = 300
	DefaultHeight    = 96
	DefaultFrameRate = 60
)

// Point is a vertex in canvas coordinates, origin at the top left.
type Point struct {
	X float64
	Y float64
}

// Path is one rendered frame.
type Path struct {
	Width  float64
	Height float64
	Points []Point
}

// Render maps each magnitude m of snapshot to a vertex at x = i*W/N and
// y = H/2 - (m/128)*(H/2). The path is anchored at (0, H/2) and (W, H/2), so
// it always has len(snapshot)+2 points.
func Render(snapshot []byte, width, height float64) Path {
	n := len(snapshot)
	mid := height / 2
	points := make([]Point, 0, n+2)

	points = append(points, Point{X: 0, Y: mid})
	for i, m := range snapshot {
		v := float64(m) / 128
		y := v * height / 2
		points = append(points, Point{
			X: float64(i) * width / float64(n),
			Y: mid - y,
		})
	}
	points = append(points, Point{X: width, Y: mid})

	return Path{Width: width, Height: height, Points: points}
}

// String returns the SVG path data, for example "M0,48 L0,48 L150,20 L300,48".
func (p Path) String() string {
	if len(p.Points) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(p.Points) * 16)
	for i, pt := range p.Points {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteString(" L")
		}
		b.WriteString(formatCoord(pt.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(pt.Y))
	}
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
