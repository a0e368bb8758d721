package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/jainscan/internal/crop"
	"github.com/example/jainscan/internal/theme"
)

const (
	actionConfirm = "confirm"
	actionCancel  = "cancel"
	actionZoomIn  = "zoom_in"
	actionZoomOut = "zoom_out"
	actionZoomFit = "zoom_fit"
)

// ErrCancelled is returned by Result when the window closed without a
// confirmed crop.
var ErrCancelled = errors.New("crop cancelled")

// AppState holds configuration for the crop window.
type AppState struct {
	Image *image.RGBA
	Title string
	Theme *theme.Theme

	sessionOpts []crop.Option
	log         logrus.FieldLogger

	onConfirm func(*crop.Cropped)
	onCancel  func()

	mu     sync.Mutex
	result *crop.Cropped
	err    error

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithImage sets the label image to crop.
func WithImage(img *image.RGBA) Option { return func(a *AppState) { a.Image = img } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithTheme sets the colours used for the window and overlay.
func WithTheme(th *theme.Theme) Option { return func(a *AppState) { a.Theme = th } }

// WithSessionOptions passes options through to the crop session.
func WithSessionOptions(opts ...crop.Option) Option {
	return func(a *AppState) { a.sessionOpts = append(a.sessionOpts, opts...) }
}

// WithLogger sets the logger for window and session events.
func WithLogger(l logrus.FieldLogger) Option { return func(a *AppState) { a.log = l } }

// WithOnConfirm registers a callback invoked with the cropped label.
func WithOnConfirm(fn func(*crop.Cropped)) Option { return func(a *AppState) { a.onConfirm = fn } }

// WithOnCancel registers a callback invoked when the crop is abandoned.
func WithOnCancel(fn func()) Option { return func(a *AppState) { a.onCancel = fn } }

// WithOnClose registers a callback invoked once when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{Title: "Jain Scan"}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	return a
}

// Result returns the cropped label once the window has closed. It returns
// ErrCancelled when the user abandoned the crop.
func (a *AppState) Result() (*crop.Cropped, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	if a.result == nil {
		return nil, ErrCancelled
	}
	return a.result, nil
}

func (a *AppState) finish(c *crop.Cropped, err error) {
	a.mu.Lock()
	a.result, a.err = c, err
	a.mu.Unlock()
	switch {
	case c != nil && a.onConfirm != nil:
		a.onConfirm(c)
	case c == nil && err == nil && a.onCancel != nil:
		a.onCancel()
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	defer a.notifyClose()
	if a.Image == nil || a.Image.Bounds().Empty() {
		a.finish(nil, crop.ErrNoSession)
		return
	}
	imgSize := a.Image.Bounds().Size()

	width, height, zoom := windowSize(imgSize)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		a.finish(nil, fmt.Errorf("new window: %w", err))
		return
	}
	defer w.Release()

	opts := append([]crop.Option{
		crop.WithLogger(a.log),
		crop.WithStyle(a.Theme.OverlayStyle(crop.DefaultHandleSize)),
		crop.WithRedraw(func(*crop.Session) { w.Send(paint.Event{}) }),
	}, a.sessionOpts...)
	sess := crop.Begin(a.Image, opts...)
	if sess == nil {
		a.finish(nil, crop.ErrNoSession)
		return
	}
	style := sess.Style()

	// Stopping the painter runs before the deferred Release above, so no
	// frame is published to a released window.
	painter := startPainter(func(ctx context.Context, st paintState) { drawFrame(ctx, s, w, st) })
	defer painter.stop()

	scaled := scaleImage(a.Image, zoom)
	scaledZoom := zoom
	hover := -1

	setZoom := func(z float64) {
		zoom = clampZoom(z)
		w.Send(paint.Event{})
	}

	confirm := func() bool {
		c, err := sess.Confirm()
		if errors.Is(err, crop.ErrRegionTooLarge) {
			a.log.WithError(err).Warn("shrink the crop box before confirming")
			return false
		}
		if err != nil {
			a.log.WithError(err).Error("confirm crop")
			a.finish(nil, err)
			return true
		}
		a.finish(c, nil)
		return true
	}
	cancel := func() bool {
		sess.Cancel()
		a.finish(nil, nil)
		return true
	}

	// act performs a named action and reports whether the window should close.
	act := func(name string) bool {
		switch name {
		case actionConfirm:
			return confirm()
		case actionCancel:
			return cancel()
		case actionZoomIn:
			setZoom(zoom * zoomStep)
		case actionZoomOut:
			setZoom(zoom / zoomStep)
		case actionZoomFit:
			setZoom(fitZoom(imgSize, width, height))
		}
		return false
	}

	pointer := func(e mouse.Event) crop.PointerEvent {
		return crop.PointerEvent{
			X:       float64(e.X),
			Y:       float64(e.Y),
			Display: displayRect(imageRect(imgSize, width, height, zoom)),
		}
	}

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				painter.interrupt()
				if !sess.Done() {
					cancel()
				}
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			if scaledZoom != zoom {
				scaled = scaleImage(a.Image, zoom)
				scaledZoom = zoom
			}
			st := paintState{
				width:   width,
				height:  height,
				zoom:    zoom,
				size:    imgSize,
				scaled:  scaled,
				region:  sess.Region(),
				gesture: sess.Gesture(),
				style:   style,
				theme:   a.Theme,
				hover:   hover,
				log:     a.log,
			}
			painter.queue(st)
		case mouse.Event:
			p := image.Point{int(e.X), int(e.Y)}
			if int(e.Y) >= height-barHeight && sess.Gesture() == crop.Idle {
				shortcuts := shortcutLayout(width, height, zoom)
				i := shortcutAt(shortcuts, p)
				if i != hover {
					hover = i
					w.Send(paint.Event{})
				}
				if i >= 0 && e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					if act(shortcuts[i].action) {
						return
					}
				}
				continue
			}
			if hover != -1 {
				hover = -1
				w.Send(paint.Event{})
			}
			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				sess.PointerDown(pointer(e))
			case e.Direction == mouse.DirNone:
				sess.PointerMove(pointer(e))
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				sess.PointerUp()
				w.Send(paint.Event{})
			case e.Button == mouse.ButtonWheelUp && e.Direction == mouse.DirPress:
				setZoom(zoom * zoomStep)
			case e.Button == mouse.ButtonWheelDown && e.Direction == mouse.DirPress:
				setZoom(zoom / zoomStep)
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if name, ok := keyAction(e); ok && act(name) {
				return
			}
		}
	}
}

// keyAction maps a key press to a window action.
func keyAction(e key.Event) (string, bool) {
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return actionConfirm, true
	case key.CodeEscape, key.CodeQ:
		return actionCancel, true
	case key.CodeKeypadPlusSign:
		return actionZoomIn, true
	case key.CodeHyphenMinus, key.CodeKeypadHyphenMinus:
		return actionZoomOut, true
	case key.Code0, key.CodeKeypad0:
		return actionZoomFit, true
	}
	switch e.Rune {
	case '+', '=':
		return actionZoomIn, true
	case '-':
		return actionZoomOut, true
	}
	return "", false
}
