package render

import (
	"image"
	"image/draw"
)

// CropImage returns a copy of rect from src with its origin at zero. Parts of
// rect outside src are left transparent.
func CropImage(src image.Image, rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if src == nil || rect.Empty() {
		return out
	}
	in := rect.Intersect(src.Bounds())
	if !in.Empty() {
		draw.Draw(out, in.Sub(rect.Min), src, in.Min, draw.Src)
	}
	return out
}
