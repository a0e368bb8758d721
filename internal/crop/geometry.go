package crop

import (
	"fmt"
	"image"
	"math"
)

// Point is a position in either screen or image space.
type Point struct {
	X, Y float64
}

// Region is the crop rectangle in source image pixels, independent of how
// large the image is shown on screen.
type Region struct {
	X, Y          float64
	Width, Height float64
}

// DefaultRegion returns the region a new session starts with: centred
// horizontally, 60% wide and 30% tall, starting 20% in from the top left.
func DefaultRegion(size image.Point) Region {
	w, h := float64(size.X), float64(size.Y)
	return Region{X: 0.2 * w, Y: 0.2 * h, Width: 0.6 * w, Height: 0.3 * h}
}

// Rect converts the region into pixel bounds. The origin is floored and the
// size truncated, matching how a canvas sized to the region is allocated.
func (r Region) Rect() image.Rectangle {
	x := int(math.Floor(r.X))
	y := int(math.Floor(r.Y))
	return image.Rect(x, y, x+int(r.Width), y+int(r.Height))
}

// Encodable reports whether Confirm can rasterise the region: every field
// finite, each side at most MaxSide and the area at most MaxPixels.
func (r Region) Encodable() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
			return false
		}
	}
	return r.Width <= MaxSide && r.Height <= MaxSide && r.Width*r.Height <= MaxPixels
}

// Contains reports whether p lies strictly inside the region.
func (r Region) Contains(p Point) bool {
	return p.X > r.X && p.X < r.X+r.Width && p.Y > r.Y && p.Y < r.Y+r.Height
}

// Corner returns the anchor point of a corner handle.
func (r Region) Corner(h Handle) Point {
	p := Point{X: r.X, Y: r.Y}
	if h.east() {
		p.X += r.Width
	}
	if h.south() {
		p.Y += r.Height
	}
	return p
}

func (r Region) String() string {
	return fmt.Sprintf("{%g,%g,%g,%g}", r.X, r.Y, r.Width, r.Height)
}

// DisplayRect is where the rendering surface is shown on screen, in screen
// coordinates.
type DisplayRect struct {
	Left, Top     float64
	Width, Height float64
}

// Scale maps display pixels to surface buffer pixels per axis.
type Scale struct {
	X, Y float64
}

// DisplayScale returns the ratio of the surface's intrinsic buffer size to
// its displayed size. Surfaces shown smaller than their buffer (common on
// phones) yield a scale above 1. A zero display extent maps to 1.
func DisplayScale(display DisplayRect, buffer image.Point) Scale {
	s := Scale{X: 1, Y: 1}
	if display.Width > 0 {
		s.X = float64(buffer.X) / display.Width
	}
	if display.Height > 0 {
		s.Y = float64(buffer.Y) / display.Height
	}
	return s
}

// ToBuffer converts a screen position into buffer coordinates.
func (d DisplayRect) ToBuffer(p Point, buffer image.Point) Point {
	s := DisplayScale(d, buffer)
	return Point{X: (p.X - d.Left) * s.X, Y: (p.Y - d.Top) * s.Y}
}

// PointerEvent is one pointer sample as delivered by the embedding
// application: the screen position and where the surface currently sits.
type PointerEvent struct {
	X, Y    float64
	Display DisplayRect
}
