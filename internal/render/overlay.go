package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// OverlayStyle configures the crop overlay painted on top of a label.
type OverlayStyle struct {
	Dim    color.RGBA
	Border color.RGBA
	Handle color.RGBA
	// BorderWidth is the stroke width in pixels. When zero the width scales
	// with the destination so the border stays visible on large photos.
	BorderWidth int
	// HandleSize is the configured handle size. The drawn square has a side
	// of 2*HandleSize/1.5.
	HandleSize float64
}

// DefaultOverlayStyle returns the dark dim, red border and white handles the
// scanner has always used.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		Dim:        color.RGBA{0, 0, 0, 153},
		Border:     color.RGBA{0xE5, 0x39, 0x35, 0xFF},
		Handle:     color.RGBA{255, 255, 255, 255},
		HandleSize: 40,
	}
}

// BorderWidthFor returns the stroke width used for an image of the given
// width when no explicit width is configured.
func BorderWidthFor(width int) int {
	w := width / 150
	if w < 4 {
		return 4
	}
	return w
}

// Overlay paints src across dst, dims everything outside box, strokes the box
// border and draws a square handle on each corner. box is in dst coordinates
// and may extend past the edges of dst.
func Overlay(dst draw.Image, src image.Image, box image.Rectangle, style OverlayStyle) {
	b := dst.Bounds()
	if src != nil {
		draw.Draw(dst, b, src, src.Bounds().Min, draw.Src)
	}
	dim := image.NewUniform(style.Dim)
	for _, r := range DimRects(b, box) {
		draw.Draw(dst, r, dim, image.Point{}, draw.Over)
	}
	lw := style.BorderWidth
	if lw <= 0 {
		lw = BorderWidthFor(b.Dx())
	}
	strokeRect(dst, box, style.Border, lw)
	handle := image.NewUniform(style.Handle)
	for _, hr := range HandleRects(box, style.HandleSize) {
		draw.Draw(dst, hr, handle, image.Point{}, draw.Src)
	}
}

// DimRects returns the four rectangles above, below, left of and right of box
// within bounds. Rectangles that fall outside bounds come back empty.
func DimRects(bounds, box image.Rectangle) []image.Rectangle {
	rects := []image.Rectangle{
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, box.Min.Y), // above
		image.Rect(bounds.Min.X, box.Max.Y, bounds.Max.X, bounds.Max.Y), // below
		image.Rect(bounds.Min.X, box.Min.Y, box.Min.X, box.Max.Y),       // left
		image.Rect(box.Max.X, box.Min.Y, bounds.Max.X, box.Max.Y),       // right
	}
	for i, r := range rects {
		rects[i] = r.Intersect(bounds)
	}
	return rects
}

// HandleRects returns the corner handle squares of box in NW, NE, SE, SW
// order.
func HandleRects(box image.Rectangle, handleSize float64) []image.Rectangle {
	s := handleSize / 1.5
	square := func(x, y int) image.Rectangle {
		fx, fy := float64(x), float64(y)
		return image.Rect(
			int(math.Round(fx-s)), int(math.Round(fy-s)),
			int(math.Round(fx+s)), int(math.Round(fy+s)),
		)
	}
	return []image.Rectangle{
		square(box.Min.X, box.Min.Y),
		square(box.Max.X, box.Min.Y),
		square(box.Max.X, box.Max.Y),
		square(box.Min.X, box.Max.Y),
	}
}

// strokeRect draws a border of the given thickness centred on the edges of r.
func strokeRect(dst draw.Image, r image.Rectangle, col color.Color, thick int) {
	if thick <= 0 {
		return
	}
	h0 := thick / 2
	h1 := thick - h0
	u := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(r.Min.X-h0, r.Min.Y-h0, r.Max.X+h1, r.Min.Y+h1),
		image.Rect(r.Min.X-h0, r.Max.Y-h0, r.Max.X+h1, r.Max.Y+h1),
		image.Rect(r.Min.X-h0, r.Min.Y-h0, r.Min.X+h1, r.Max.Y+h1),
		image.Rect(r.Max.X-h0, r.Min.Y-h0, r.Max.X+h1, r.Max.Y+h1),
	}
	for _, e := range edges {
		draw.Draw(dst, e, u, image.Point{}, draw.Src)
	}
}

// DrawRect draws a border of the given thickness just inside rect.
func DrawRect(dst draw.Image, rect image.Rectangle, col color.Color, thick int) {
	if thick <= 0 || rect.Empty() {
		return
	}
	u := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick),
		image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y),
		image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(rect), u, image.Point{}, draw.Src)
	}
}
