// Package draw implements the pointer-driven raster capture surface
// used to sketch card options.
package draw

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Point is a surface coordinate in pixels
type Point struct {
	X, Y int
}

// Surface is a raster drawing surface. Strokes are rasterized as they
// arrive; the surface keeps no stroke history beyond the pixels.
//
// Surface is not safe for concurrent use; it belongs to a single
// capture dialog at a time.
type Surface struct {
	raster    *image.RGBA
	ink       color.RGBA
	brushSize int

	stroking bool
	last     Point
	hasInk   bool
}

// NewSurface creates a white surface of the given dimensions
func NewSurface(width, height int) *Surface {
	s := &Surface{
		raster:    image.NewRGBA(image.Rect(0, 0, width, height)),
		ink:       color.RGBA{A: 255},
		brushSize: 3,
	}
	s.wipe()
	return s
}

// HasInk reports whether any stroke has begun since the last Clear.
// The capture dialog uses it to decide whether to show the placeholder
// hint.
func (s *Surface) HasInk() bool {
	return s.hasInk
}

// BeginStroke starts a new stroke at p and inks its first point
func (s *Surface) BeginStroke(p Point) {
	s.stroking = true
	s.hasInk = true
	s.last = p
	s.stamp(p)
}

// ExtendStroke continues the active stroke to p. Calls before
// BeginStroke are ignored.
func (s *Surface) ExtendStroke(p Point) {
	if !s.stroking {
		return
	}
	s.line(s.last, p)
	s.last = p
}

// EndStroke finishes the active stroke
func (s *Surface) EndStroke() {
	s.stroking = false
}

// Clear wipes the raster back to white and resets the ink flag
func (s *Surface) Clear() {
	s.wipe()
	s.stroking = false
	s.hasInk = false
}

// ExportImage serializes the current raster as a PNG payload
func (s *Surface) ExportImage() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.raster); err != nil {
		return nil, fmt.Errorf("failed to encode drawing: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Surface) wipe() {
	bounds := s.raster.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			s.raster.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
}

// stamp inks a square brush footprint centered on p, clipped to the
// surface bounds
func (s *Surface) stamp(p Point) {
	bounds := s.raster.Bounds()
	r := s.brushSize / 2
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			x, y := p.X+dx, p.Y+dy
			if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
				s.raster.SetRGBA(x, y, s.ink)
			}
		}
	}
}

// line rasterizes a straight segment from a to b using Bresenham's
// algorithm, stamping the brush at every step
func (s *Surface) line(a, b Point) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx := 1
	if a.X > b.X {
		sx = -1
	}
	sy := 1
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	x, y := a.X, a.Y
	for {
		s.stamp(Point{X: x, Y: y})
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
