//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served directly over the X11 protocol. A
// hidden window owns the CLIPBOARD selection and answers requests for the
// current offer for as long as the process runs.

var (
	initOnce sync.Once
	initErr  error
	owner    *selectionOwner
)

var errTargetUnavailable = errors.New("clipboard target unavailable")

const (
	atomClipboard = "CLIPBOARD"
	atomTargets   = "TARGETS"
	atomUTF8      = "UTF8_STRING"
	atomTextPlain = "text/plain;charset=utf-8"
	atomPNG       = "image/png"
	atomProperty  = "JAINSCAN_CLIPBOARD"
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		o, err := newSelectionOwner()
		if err != nil {
			initErr = fmt.Errorf("connect to X server: %w", err)
			return
		}
		owner = o
	})
	return initErr
}

// WriteImage publishes img as image/png.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return owner.publish(offer{data: data, kind: owner.atoms[atomPNG]})
}

// ReadImage fetches image/png from the current selection owner.
func ReadImage() (image.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := owner.fetch(owner.atoms[atomPNG])
	if errors.Is(err, errTargetUnavailable) {
		return nil, errNoImage
	}
	if err != nil {
		return nil, err
	}
	return decodePNG(data)
}

// WriteText publishes text as UTF-8.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(offer{data: []byte(text), kind: owner.atoms[atomUTF8]})
}

// offer is what the clipboard currently serves: one payload of one kind.
type offer struct {
	data []byte
	kind xproto.Atom
}

type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  map[string]xproto.Atom

	mu      sync.RWMutex
	current offer
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	window, err := hiddenWindow(conn, xproto.EventMaskPropertyChange|xproto.EventMaskStructureNotify)
	if err != nil {
		conn.Close()
		return nil, err
	}
	atoms, err := internAtoms(conn, atomClipboard, atomTargets, atomUTF8, atomTextPlain, atomPNG, atomProperty)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{conn: conn, window: window, atoms: atoms}
	go o.serve()
	return o, nil
}

// hiddenWindow creates an unmapped 1x1 window listening for mask events.
func hiddenWindow(conn *xgb.Conn, mask uint32) (xproto.Window, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		return 0, err
	}
	return window, nil
}

func internAtoms(conn *xgb.Conn, names ...string) (map[string]xproto.Atom, error) {
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(name)), name)
	}
	atoms := make(map[string]xproto.Atom, len(names))
	for i, c := range cookies {
		reply, err := c.Reply()
		if err != nil {
			return nil, fmt.Errorf("intern atom %s: %w", names[i], err)
		}
		atoms[names[i]] = reply.Atom
	}
	return atoms, nil
}

func (o *selectionOwner) publish(next offer) error {
	o.mu.Lock()
	o.current = offer{data: append([]byte(nil), next.data...), kind: next.kind}
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms[atomClipboard], xproto.TimeCurrentTime).Check()
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.current = offer{}
			o.mu.Unlock()
		}
	}
}

// targets lists the atoms an offer can be converted to.
func (o *selectionOwner) targets(cur offer) []xproto.Atom {
	list := []xproto.Atom{o.atoms[atomTargets]}
	if len(cur.data) == 0 {
		return list
	}
	if cur.kind == o.atoms[atomPNG] {
		return append(list, cur.kind)
	}
	return append(list, o.atoms[atomUTF8], xproto.AtomString, o.atoms[atomTextPlain])
}

func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	o.mu.RLock()
	cur := o.current
	o.mu.RUnlock()

	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	var (
		kind    xproto.Atom
		format  byte = 8
		payload []byte
	)
	switch {
	case e.Target == o.atoms[atomTargets]:
		list := o.targets(cur)
		payload = make([]byte, 4*len(list))
		for i, a := range list {
			xgb.Put32(payload[4*i:], uint32(a))
		}
		kind, format = xproto.AtomAtom, 32
	case len(cur.data) > 0 && containsAtom(o.targets(cur)[1:], e.Target):
		payload, kind = cur.data, e.Target
	default:
		property = xproto.AtomNone
	}

	if property != xproto.AtomNone {
		units := uint32(len(payload))
		if format == 32 {
			units /= 4
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, kind, format, units, payload)
	}
	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

func containsAtom(list []xproto.Atom, a xproto.Atom) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

// fetch converts the selection to target on a fresh connection so the
// owner's event loop does not see the reply.
func (o *selectionOwner) fetch(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	window, err := hiddenWindow(conn, xproto.EventMaskPropertyChange)
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	prop := o.atoms[atomProperty]
	if err := xproto.DeletePropertyChecked(conn, window, prop).Check(); err != nil {
		return nil, err
	}
	if err := xproto.ConvertSelectionChecked(conn, window, o.atoms[atomClipboard], target, prop, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, errTargetUnavailable
		}
		if e.Property != prop {
			continue
		}
		reply, perr := xproto.GetProperty(conn, true, window, prop, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
