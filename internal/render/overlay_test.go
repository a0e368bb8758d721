package render

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDimRectsCoverOutsideOfBox(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)
	box := image.Rect(20, 16, 80, 40)
	got := DimRects(bounds, box)
	want := []image.Rectangle{
		image.Rect(0, 0, 100, 16),
		image.Rect(0, 40, 100, 80),
		image.Rect(0, 16, 20, 40),
		image.Rect(80, 16, 100, 40),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rect %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestDimRectsClipBoxPastEdges(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)
	box := image.Rect(-30, -10, 60, 50)
	got := DimRects(bounds, box)
	if !got[0].Empty() {
		t.Fatalf("expected empty rect above box, got %v", got[0])
	}
	if !got[2].Empty() {
		t.Fatalf("expected empty rect left of box, got %v", got[2])
	}
	if got[3] != image.Rect(60, 0, 100, 50) {
		t.Fatalf("unexpected right rect %v", got[3])
	}
}

func TestOverlayDimsOutsideAndKeepsInside(t *testing.T) {
	src := solid(300, 200, color.RGBA{200, 200, 200, 255})
	dst := image.NewRGBA(src.Bounds())
	style := DefaultOverlayStyle()
	style.HandleSize = 6
	box := image.Rect(60, 40, 240, 100)
	Overlay(dst, src, box, style)

	if got := dst.RGBAAt(150, 70); got != (color.RGBA{200, 200, 200, 255}) {
		t.Fatalf("inside pixel changed: %+v", got)
	}
	outside := dst.RGBAAt(150, 150)
	if outside.R >= 200 || outside.A != 255 {
		t.Fatalf("expected dimmed pixel below box, got %+v", outside)
	}
	if got := dst.RGBAAt(150, 40); got != style.Border {
		t.Fatalf("expected border colour on top edge, got %+v", got)
	}
	if got := dst.RGBAAt(60, 40); got != style.Handle {
		t.Fatalf("expected handle colour on NW corner, got %+v", got)
	}
}

func TestHandleRectsOrderAndSize(t *testing.T) {
	box := image.Rect(100, 100, 400, 300)
	rects := HandleRects(box, 30)
	if len(rects) != 4 {
		t.Fatalf("expected 4 handles, got %d", len(rects))
	}
	corners := []image.Point{{100, 100}, {400, 100}, {400, 300}, {100, 300}}
	for i, c := range corners {
		if !c.In(rects[i]) {
			t.Fatalf("handle %d %v does not contain corner %v", i, rects[i], c)
		}
		if rects[i].Dx() != 40 || rects[i].Dy() != 40 {
			t.Fatalf("handle %d has size %dx%d, want 40x40", i, rects[i].Dx(), rects[i].Dy())
		}
	}
}

func TestBorderWidthFor(t *testing.T) {
	if got := BorderWidthFor(300); got != 4 {
		t.Fatalf("small image width: got %d want 4", got)
	}
	if got := BorderWidthFor(3000); got != 20 {
		t.Fatalf("large image width: got %d want 20", got)
	}
}

func TestCropImageLeavesOutsideTransparent(t *testing.T) {
	fill := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	src := solid(10, 10, fill)
	out := CropImage(src, image.Rect(5, 5, 15, 12))
	if out.Bounds() != image.Rect(0, 0, 10, 7) {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got != fill {
		t.Fatalf("expected copied pixel, got %+v", got)
	}
	if got := out.RGBAAt(9, 6); got.A != 0 {
		t.Fatalf("expected transparent pixel outside source, got %+v", got)
	}
}
