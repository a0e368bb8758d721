package appstate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/jainscan/internal/crop"
	"github.com/example/jainscan/internal/render"
	"github.com/example/jainscan/internal/theme"
)

func TestWindowSizeNaturalWhenSmall(t *testing.T) {
	w, h, z := windowSize(image.Pt(800, 600))
	if z != 1 {
		t.Fatalf("zoom = %v, want 1", z)
	}
	if w != 800 || h != 600+barHeight {
		t.Fatalf("window = %dx%d", w, h)
	}
}

func TestWindowSizeShrinksLargeImages(t *testing.T) {
	w, h, z := windowSize(image.Pt(4000, 3000))
	if z >= 1 {
		t.Fatalf("zoom = %v, want < 1", z)
	}
	if w > maxWindowWidth || h > maxWindowHeight {
		t.Fatalf("window %dx%d exceeds maximum", w, h)
	}
}

func TestWindowSizeMinimumWidth(t *testing.T) {
	w, _, _ := windowSize(image.Pt(100, 100))
	if w != minWindowWidth {
		t.Fatalf("width = %d, want %d", w, minWindowWidth)
	}
}

func TestFitZoom(t *testing.T) {
	z := fitZoom(image.Pt(1000, 500), 500, 500+barHeight)
	if z != 0.5 {
		t.Fatalf("fitZoom = %v, want 0.5", z)
	}
	if z := fitZoom(image.Point{}, 100, 100); z != 1 {
		t.Fatalf("empty image zoom = %v", z)
	}
	if z := fitZoom(image.Pt(1, 1), 10000, 10000); z != maxZoom {
		t.Fatalf("zoom should clamp to %v, got %v", float64(maxZoom), z)
	}
}

func TestImageRectCentred(t *testing.T) {
	r := imageRect(image.Pt(200, 100), 400, 300+barHeight, 1)
	want := image.Rect(100, 100, 300, 200)
	if r != want {
		t.Fatalf("imageRect = %v, want %v", r, want)
	}
	r = imageRect(image.Pt(200, 100), 100, 50, 1)
	if r.Min != (image.Point{}) {
		t.Fatalf("oversized image should pin to origin, got %v", r)
	}
}

func TestDisplayRectMapsToImagePixels(t *testing.T) {
	size := image.Pt(1000, 800)
	ir := imageRect(size, 600, 400+barHeight, 0.5)
	d := displayRect(ir)
	p := d.ToBuffer(crop.Point{X: d.Left + 250, Y: d.Top + 100}, size)
	if math.Abs(p.X-500) > 1e-9 || math.Abs(p.Y-200) > 1e-9 {
		t.Fatalf("ToBuffer = %+v, want {500 200}", p)
	}
}

func TestScreenBox(t *testing.T) {
	region := crop.Region{X: 100, Y: 80, Width: 800, Height: 640}
	got := screenBox(region, image.Pt(1000, 800), image.Rect(10, 20, 510, 420))
	want := image.Rect(60, 60, 460, 380)
	if got != want {
		t.Fatalf("screenBox = %v, want %v", got, want)
	}
}

func TestScreenStyleScales(t *testing.T) {
	style := render.DefaultOverlayStyle()
	style.HandleSize = 40
	s := screenStyle(style, image.Pt(1500, 1000), 0.5)
	if s.BorderWidth != 5 {
		t.Errorf("BorderWidth = %d, want 5", s.BorderWidth)
	}
	if s.HandleSize != 20 {
		t.Errorf("HandleSize = %v, want 20", s.HandleSize)
	}
	s = screenStyle(style, image.Pt(100, 100), 0.01)
	if s.BorderWidth != 1 {
		t.Errorf("BorderWidth should not drop below 1, got %d", s.BorderWidth)
	}
}

func TestShortcutLayout(t *testing.T) {
	shortcuts := shortcutLayout(800, 600, 1)
	if len(shortcuts) == 0 {
		t.Fatal("no shortcuts laid out")
	}
	if shortcuts[2].label != "+/-:zoom (100%)" {
		t.Errorf("zoom label = %q", shortcuts[2].label)
	}
	for i, sc := range shortcuts {
		if sc.rect.Min.Y < 600-barHeight || sc.rect.Max.Y > 600 {
			t.Errorf("shortcut %q outside bar: %v", sc.label, sc.rect)
		}
		if i > 0 && sc.rect.Overlaps(shortcuts[i-1].rect) {
			t.Errorf("shortcut %q overlaps %q", sc.label, shortcuts[i-1].label)
		}
	}
	mid := shortcuts[0].rect.Min.Add(image.Pt(3, 3))
	if i := shortcutAt(shortcuts, mid); i != 0 {
		t.Errorf("shortcutAt = %d, want 0", i)
	}
	if i := shortcutAt(shortcuts, image.Pt(0, 0)); i != -1 {
		t.Errorf("shortcutAt outside bar = %d", i)
	}
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		ev   key.Event
		want string
	}{
		{key.Event{Code: key.CodeReturnEnter}, actionConfirm},
		{key.Event{Code: key.CodeEscape}, actionCancel},
		{key.Event{Code: key.CodeQ, Rune: 'q'}, actionCancel},
		{key.Event{Code: key.CodeEqualSign, Rune: '+'}, actionZoomIn},
		{key.Event{Code: key.CodeEqualSign, Rune: '='}, actionZoomIn},
		{key.Event{Code: key.CodeHyphenMinus, Rune: '-'}, actionZoomOut},
		{key.Event{Code: key.Code0, Rune: '0'}, actionZoomFit},
	}
	for _, tt := range tests {
		got, ok := keyAction(tt.ev)
		if !ok || got != tt.want {
			t.Errorf("keyAction(%v) = %q, %v; want %q", tt.ev.Code, got, ok, tt.want)
		}
	}
	if _, ok := keyAction(key.Event{Code: key.CodeA, Rune: 'a'}); ok {
		t.Error("unbound key should not map to an action")
	}
}

func TestPaintFrame(t *testing.T) {
	size := image.Pt(300, 200)
	src := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	th := theme.Default()
	style := th.OverlayStyle(crop.DefaultHandleSize)
	st := paintState{
		width:  480,
		height: size.Y + barHeight,
		zoom:   1,
		size:   size,
		scaled: src,
		region: crop.DefaultRegion(size),
		style:  style,
		theme:  th,
		hover:  -1,
	}
	dst := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	paintFrame(context.Background(), dst, st)

	ir := imageRect(size, st.width, st.height, 1)
	corner := dst.RGBAAt(ir.Min.X+1, ir.Min.Y+1)
	if corner.R == 0xFF && corner.G == 0xFF {
		t.Errorf("area outside the region should be dimmed, got %v", corner)
	}
	r := st.region
	centre := dst.RGBAAt(ir.Min.X+int(r.X+r.Width/2), ir.Min.Y+int(r.Y+r.Height/2))
	if centre != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("region interior should be undimmed, got %v", centre)
	}
	bar := dst.RGBAAt(st.width-1, st.height-1)
	if bar != th.BarBackground {
		t.Errorf("bar pixel = %v, want %v", bar, th.BarBackground)
	}
}

func TestPaintFrameStopsWhenCancelled(t *testing.T) {
	size := image.Pt(50, 50)
	th := theme.Default()
	th.BarBackground = color.RGBA{10, 20, 30, 255}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst := image.NewRGBA(image.Rect(0, 0, 480, 50+barHeight))
	paintFrame(ctx, dst, paintState{width: 480, height: 50 + barHeight, zoom: 1, size: size, theme: th, hover: -1})
	if got := dst.RGBAAt(479, 50+barHeight-1); got == th.BarBackground {
		t.Error("cancelled frame should not reach the bar")
	}
}

func TestScaleImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 40))
	if got := scaleImage(src, 1); got != image.Image(src) {
		t.Error("zoom 1 should return the source")
	}
	if b := scaleImage(src, 0.5).Bounds(); b.Dx() != 50 || b.Dy() != 20 {
		t.Errorf("scaled bounds = %v", b)
	}
}

func TestMainWithoutImage(t *testing.T) {
	closed := false
	a := New(WithOnClose(func() { closed = true }))
	a.Main(nil)
	if _, err := a.Result(); !errors.Is(err, crop.ErrNoSession) {
		t.Fatalf("Result error = %v, want ErrNoSession", err)
	}
	if !closed {
		t.Error("close callback not called")
	}
}

func TestResultCallbacks(t *testing.T) {
	var confirmed *crop.Cropped
	cancelled := false
	a := New(
		WithOnConfirm(func(c *crop.Cropped) { confirmed = c }),
		WithOnCancel(func() { cancelled = true }),
	)
	if _, err := a.Result(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("unfinished Result error = %v", err)
	}
	a.finish(nil, nil)
	if !cancelled {
		t.Error("cancel callback not called")
	}
	want := &crop.Cropped{Region: crop.Region{Width: 1, Height: 1}}
	a.finish(want, nil)
	got, err := a.Result()
	if err != nil || got != want || confirmed != want {
		t.Fatalf("Result = %v, %v; callback got %v", got, err, confirmed)
	}
}
