package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/jainscan/internal/crop"
	"github.com/example/jainscan/internal/render"
	"github.com/example/jainscan/internal/theme"
)

const (
	barHeight = 24

	maxWindowWidth  = 1280
	maxWindowHeight = 900
	minWindowWidth  = 480

	minZoom  = 0.05
	maxZoom  = 8
	zoomStep = 1.25
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// fitZoom returns the zoom at which an image of the given size fits the
// window above the shortcut bar.
func fitZoom(size image.Point, winW, winH int) float64 {
	if size.X <= 0 || size.Y <= 0 {
		return 1
	}
	availH := winH - barHeight
	zx := float64(winW) / float64(size.X)
	zy := float64(availH) / float64(size.Y)
	return clampZoom(math.Min(zx, zy))
}

func clampZoom(z float64) float64 {
	return math.Max(minZoom, math.Min(maxZoom, z))
}

// windowSize returns the initial window size and zoom for an image: shown
// at natural size when it fits, scaled down to the maximum window otherwise.
func windowSize(size image.Point) (int, int, float64) {
	zoom := math.Min(1, fitZoom(size, maxWindowWidth, maxWindowHeight))
	w := int(float64(size.X) * zoom)
	if w < minWindowWidth {
		w = minWindowWidth
	}
	h := int(float64(size.Y)*zoom) + barHeight
	return w, h, zoom
}

// imageRect returns where the image is drawn: scaled by zoom and centred in
// the area above the shortcut bar, or pinned to the top left when it is
// larger than that area.
func imageRect(size image.Point, winW, winH int, zoom float64) image.Rectangle {
	w := int(float64(size.X) * zoom)
	h := int(float64(size.Y) * zoom)
	x0 := (winW - w) / 2
	if x0 < 0 {
		x0 = 0
	}
	y0 := (winH - barHeight - h) / 2
	if y0 < 0 {
		y0 = 0
	}
	return image.Rect(x0, y0, x0+w, y0+h)
}

// displayRect describes the drawn image as the crop session's display
// surface, so window coordinates map straight to image pixels.
func displayRect(r image.Rectangle) crop.DisplayRect {
	return crop.DisplayRect{
		Left:   float64(r.Min.X),
		Top:    float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// screenBox maps a region into window coordinates given the drawn image
// rectangle.
func screenBox(region crop.Region, size image.Point, dst image.Rectangle) image.Rectangle {
	sx := float64(dst.Dx()) / float64(size.X)
	sy := float64(dst.Dy()) / float64(size.Y)
	return image.Rect(
		dst.Min.X+int(math.Round(region.X*sx)),
		dst.Min.Y+int(math.Round(region.Y*sy)),
		dst.Min.X+int(math.Round((region.X+region.Width)*sx)),
		dst.Min.Y+int(math.Round((region.Y+region.Height)*sy)),
	)
}

// screenStyle scales an overlay style from image pixels to window pixels so
// the border and handles look the same at every zoom.
func screenStyle(style render.OverlayStyle, size image.Point, zoom float64) render.OverlayStyle {
	lw := style.BorderWidth
	if lw <= 0 {
		lw = render.BorderWidthFor(size.X)
	}
	style.BorderWidth = int(math.Max(1, math.Round(float64(lw)*zoom)))
	style.HandleSize *= zoom
	return style
}

// scaleImage returns img resized for display. Zoom 1 returns img itself.
func scaleImage(img image.Image, zoom float64) image.Image {
	if zoom == 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Max(1, float64(b.Dx())*zoom))
	h := int(math.Max(1, float64(b.Dy())*zoom))
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
)

// Shortcut is a clickable label in the shortcut bar.
type Shortcut struct {
	label  string
	action string
	rect   image.Rectangle
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState, th *theme.Theme) {
	col := th.ButtonBackground
	if state == StateHover {
		col = th.ButtonBackgroundHover
	}
	draw.Draw(dst, s.rect, &image.Uniform{col}, image.Point{}, draw.Src)
	render.DrawRect(dst, s.rect, th.Foreground, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

// shortcutLayout lays out the shortcut bar for a window of the given size.
// The same layout is used for painting and for hit testing clicks.
func shortcutLayout(width, height int, zoom float64) []Shortcut {
	shortcuts := []Shortcut{
		{label: "Enter:confirm", action: actionConfirm},
		{label: "Esc:cancel", action: actionCancel},
		{label: fmt.Sprintf("+/-:zoom (%.0f%%)", zoom*100), action: actionZoomIn},
		{label: "0:fit", action: actionZoomFit},
		{label: "Q:quit", action: actionCancel},
	}
	x := 6
	y := height - barHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	for i := range shortcuts {
		w := meas.MeasureString(shortcuts[i].label).Ceil()
		shortcuts[i].rect = image.Rect(x-2, y-14, x+w+2, y+4)
		x = shortcuts[i].rect.Max.X + 8
	}
	return shortcuts
}

func shortcutAt(shortcuts []Shortcut, p image.Point) int {
	for i, sc := range shortcuts {
		if p.In(sc.rect) {
			return i
		}
	}
	return -1
}

type paintState struct {
	width, height int
	zoom          float64
	size          image.Point
	scaled        image.Image
	region        crop.Region
	gesture       crop.Gesture
	style         render.OverlayStyle
	theme         *theme.Theme
	hover         int
	log           logrus.FieldLogger
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		st.log.WithError(err).Error("new buffer")
		return
	}
	defer b.Release()
	paintFrame(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// paintFrame renders one frame into dst. It stops early when ctx is
// cancelled by a newer frame.
func paintFrame(ctx context.Context, dst *image.RGBA, st paintState) {
	th := st.theme
	if th == nil {
		th = theme.Default()
	}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)

	ir := imageRect(st.size, st.width, st.height, st.zoom)
	drawCheckerboard(dst, ir, 8, th.CheckerLight, th.CheckerDark)
	if ctx.Err() != nil {
		return
	}
	if st.scaled != nil {
		draw.Draw(dst, ir, st.scaled, st.scaled.Bounds().Min, draw.Over)
	}
	if ctx.Err() != nil {
		return
	}

	view := dst.SubImage(ir.Intersect(dst.Bounds())).(*image.RGBA)
	render.Overlay(view, nil, screenBox(st.region, st.size, ir), screenStyle(st.style, st.size, st.zoom))
	if ctx.Err() != nil {
		return
	}

	bar := image.Rect(0, st.height-barHeight, st.width, st.height)
	draw.Draw(dst, bar, &image.Uniform{th.BarBackground}, image.Point{}, draw.Src)
	for i, sc := range shortcutLayout(st.width, st.height, st.zoom) {
		state := StateDefault
		if i == st.hover {
			state = StateHover
		}
		sc.Draw(dst, state, th)
	}

	r := st.region
	status := fmt.Sprintf("%.0f,%.0f %.0fx%.0f", r.X, r.Y, r.Width, r.Height)
	if st.gesture != crop.Idle {
		status = st.gesture.String() + " " + status
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13}
	sw := d.MeasureString(status).Ceil()
	d.Dot = fixed.P(st.width-sw-6, st.height-barHeight+16)
	d.DrawString(status)
}
