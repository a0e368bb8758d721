// Package crop implements the interactive crop box used to select the
// ingredient list on a label photo before it is sent for classification.
//
// A Session owns one source image and one crop region. Pointer input is fed
// in screen coordinates; the session converts it to image pixels, turns it
// into move or resize gestures and asks the embedding application to redraw.
// Sessions are driven from a single event loop and are not safe for
// concurrent use.
package crop

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/example/jainscan/internal/imageio"
	"github.com/example/jainscan/internal/render"
)

const (
	DefaultHandleSize = 40
	DefaultMinSize    = 50
	DefaultQuality    = 95

	// MaxSide is the largest crop width or height Confirm produces. It is
	// the JPEG dimension limit.
	MaxSide = 65535
	// MaxPixels bounds the crop area so the raster stays under 256MiB.
	MaxPixels = 1 << 26
)

var (
	// ErrNoSession is returned when confirming without a session, e.g. when
	// Begin was given no image.
	ErrNoSession = errors.New("no crop session")
	// ErrSessionEnded is returned when confirming a session that was already
	// confirmed or cancelled.
	ErrSessionEnded = errors.New("crop session has ended")
	// ErrRegionTooLarge is returned by Confirm when the region is not finite
	// or exceeds MaxSide or MaxPixels. The session stays open.
	ErrRegionTooLarge = errors.New("crop region too large")
)

// Cropped is the output of a confirmed session.
type Cropped struct {
	Image  *image.RGBA
	JPEG   []byte
	Region Region
}

// Session is one crop interaction over a loaded image.
type Session struct {
	img  image.Image
	size image.Point

	region  Region
	gesture Gesture
	handle  Handle
	last    Point
	done    bool

	handleSize float64
	minSize    float64
	quality    int
	style      render.OverlayStyle
	redraw     func(*Session)
	log        logrus.FieldLogger
}

// Option configures a Session in Begin.
type Option func(*Session)

// WithHandleSize sets the drawn handle size. The touch tolerance around each
// corner is 1.5 times this value.
func WithHandleSize(size float64) Option { return func(s *Session) { s.handleSize = size } }

// WithMinSize sets the smallest width and height a resize may produce.
func WithMinSize(size float64) Option { return func(s *Session) { s.minSize = size } }

// WithQuality sets the JPEG quality used by Confirm.
func WithQuality(q int) Option { return func(s *Session) { s.quality = q } }

// WithRegion starts the session from r instead of the default region.
func WithRegion(r Region) Option { return func(s *Session) { s.region = r } }

// WithStyle sets the overlay colours. The handle size always follows
// WithHandleSize.
func WithStyle(style render.OverlayStyle) Option { return func(s *Session) { s.style = style } }

// WithRedraw registers fn to be called synchronously whenever the overlay
// needs repainting.
func WithRedraw(fn func(*Session)) Option { return func(s *Session) { s.redraw = fn } }

// WithLogger sets the logger used for gesture tracing.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Session) { s.log = l } }

// Begin starts a session over img. It returns nil when there is no image to
// crop; all methods treat a nil session as a no-op.
func Begin(img image.Image, opts ...Option) *Session {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	s := &Session{
		img:        img,
		size:       img.Bounds().Size(),
		handleSize: DefaultHandleSize,
		minSize:    DefaultMinSize,
		quality:    DefaultQuality,
		style:      render.DefaultOverlayStyle(),
		log:        logrus.StandardLogger(),
	}
	s.region = DefaultRegion(s.size)
	for _, o := range opts {
		o(s)
	}
	if s.handleSize <= 0 {
		s.handleSize = DefaultHandleSize
	}
	if s.minSize < 1 {
		s.minSize = 1
	}
	if s.quality < 1 || s.quality > 100 {
		s.quality = DefaultQuality
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.style.HandleSize = s.handleSize
	s.log.WithFields(logrus.Fields{
		"width":  s.size.X,
		"height": s.size.Y,
		"region": s.region.String(),
	}).Debug("crop session started")
	s.draw()
	return s
}

// Region returns the current crop region.
func (s *Session) Region() Region {
	if s == nil {
		return Region{}
	}
	return s.region
}

// Gesture returns the current gesture state.
func (s *Session) Gesture() Gesture {
	if s == nil {
		return Idle
	}
	return s.gesture
}

// ActiveHandle returns the handle grabbed by the last pointer-down.
func (s *Session) ActiveHandle() Handle {
	if s == nil {
		return HandleNone
	}
	return s.handle
}

// Size returns the natural size of the source image.
func (s *Session) Size() image.Point {
	if s == nil {
		return image.Point{}
	}
	return s.size
}

// Bounds returns the source image rectangle with its origin at zero; region
// coordinates are relative to it.
func (s *Session) Bounds() image.Rectangle {
	return image.Rectangle{Max: s.Size()}
}

// Image returns the source image. It must not be modified.
func (s *Session) Image() image.Image {
	if s == nil {
		return nil
	}
	return s.img
}

// Style returns the overlay style in use.
func (s *Session) Style() render.OverlayStyle {
	if s == nil {
		return render.DefaultOverlayStyle()
	}
	return s.style
}

// Done reports whether the session was confirmed or cancelled.
func (s *Session) Done() bool { return s == nil || s.done }

// Tolerance is the half-width of the square around each corner that counts
// as grabbing that corner.
func (s *Session) Tolerance() float64 {
	if s == nil {
		return 0
	}
	return s.handleSize * 1.5
}

// HitTest returns the handle under p, given in image coordinates. Corners are
// tested in NW, NE, SE, SW order and win over the body; the first matching
// corner wins when tolerances overlap.
func (s *Session) HitTest(p Point) Handle {
	if s == nil {
		return HandleNone
	}
	tol := s.Tolerance()
	for _, h := range corners {
		c := s.region.Corner(h)
		if p.X >= c.X-tol && p.X <= c.X+tol && p.Y >= c.Y-tol && p.Y <= c.Y+tol {
			return h
		}
	}
	if s.region.Contains(p) {
		return HandleBody
	}
	return HandleNone
}

// PointerDown starts a gesture if ev lands on a handle or inside the region.
// The boolean result tells the caller to suppress the platform's default
// handling (scrolling, text selection) for this pointer.
func (s *Session) PointerDown(ev PointerEvent) (Handle, bool) {
	if s.Done() {
		return HandleNone, false
	}
	p := s.toImage(ev)
	s.last = p
	s.handle = s.HitTest(p)
	switch {
	case s.handle == HandleBody:
		s.gesture = Moving
	case s.handle.IsCorner():
		s.gesture = Resizing
	default:
		s.gesture = Idle
		return HandleNone, false
	}
	s.log.WithFields(logrus.Fields{
		"handle": s.handle.String(),
		"x":      p.X,
		"y":      p.Y,
	}).Debug("crop gesture started")
	return s.handle, true
}

// PointerMove applies the movement since the previous sample to the active
// gesture and redraws. It returns false, doing nothing, when no gesture is
// active; true means the caller should suppress default scrolling.
func (s *Session) PointerMove(ev PointerEvent) bool {
	if s.Done() || s.gesture == Idle {
		return false
	}
	p := s.toImage(ev)
	dx, dy := p.X-s.last.X, p.Y-s.last.Y
	switch s.gesture {
	case Moving:
		s.move(dx, dy)
	case Resizing:
		s.resize(s.handle, dx, dy)
	}
	s.last = p
	s.draw()
	return true
}

// PointerUp ends any active gesture.
func (s *Session) PointerUp() {
	if s == nil {
		return
	}
	if s.gesture != Idle {
		s.log.WithField("region", s.region.String()).Debug("crop gesture ended")
	}
	s.gesture = Idle
}

// Confirm extracts the region from the source image as a raster of exactly
// the region's size and encodes it as JPEG. Parts of the region outside the
// image come out black. The session ends.
func (s *Session) Confirm() (*Cropped, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	if s.done {
		return nil, ErrSessionEnded
	}
	if !s.region.Encodable() {
		s.log.WithField("region", s.region.String()).Warn("crop region cannot be encoded")
		return nil, fmt.Errorf("%w: %s", ErrRegionTooLarge, s.region)
	}
	rect := s.region.Rect().Add(s.img.Bounds().Min)
	out := render.CropImage(s.img, rect)
	data, err := imageio.EncodeJPEG(out, s.quality)
	if err != nil {
		return nil, err
	}
	s.done = true
	s.gesture = Idle
	s.log.WithFields(logrus.Fields{
		"region": s.region.String(),
		"bytes":  len(data),
	}).Debug("crop confirmed")
	return &Cropped{Image: out, JPEG: data, Region: s.region}, nil
}

// Cancel discards the session.
func (s *Session) Cancel() {
	if s.Done() {
		return
	}
	s.done = true
	s.gesture = Idle
	s.log.Debug("crop cancelled")
}

// Render paints the image and the overlay into dst, which should be the size
// of the source image.
func (s *Session) Render(dst draw.Image) {
	if s == nil {
		return
	}
	Draw(dst, s.img, s.region, s.style)
}

// Draw paints img and the overlay for r into dst. It is the stateless form of
// Render for callers that paint from a copied region.
func Draw(dst draw.Image, img image.Image, r Region, style render.OverlayStyle) {
	box := r.Rect().Add(dst.Bounds().Min)
	render.Overlay(dst, img, box, style)
}

func (s *Session) toImage(ev PointerEvent) Point {
	return ev.Display.ToBuffer(Point{X: ev.X, Y: ev.Y}, s.size)
}

// move shifts the region and keeps it inside the image.
func (s *Session) move(dx, dy float64) {
	r := s.region
	r.X += dx
	r.Y += dy
	r.X = math.Max(0, math.Min(r.X, float64(s.size.X)-r.Width))
	r.Y = math.Max(0, math.Min(r.Y, float64(s.size.Y)-r.Height))
	s.region = r
}

// resize moves the edges named by h. The result is floored at the minimum
// size but, unlike move, not clamped to the image.
func (s *Session) resize(h Handle, dx, dy float64) {
	r := s.region
	if h.west() {
		r.X += dx
		r.Width -= dx
	}
	if h.east() {
		r.Width += dx
	}
	if h.north() {
		r.Y += dy
		r.Height -= dy
	}
	if h.south() {
		r.Height += dy
	}
	r.Width = math.Max(s.minSize, r.Width)
	r.Height = math.Max(s.minSize, r.Height)
	s.region = r
}

func (s *Session) draw() {
	if s.redraw != nil {
		s.redraw(s)
	}
}
