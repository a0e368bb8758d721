//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"image"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// ready initializes the native clipboard once. Init fails hard without a
// display, so that case is reported before calling it.
func ready() error {
	initOnce.Do(func() {
		if initErr = errNoDisplay; hasDisplay() {
			initErr = clipboard.Init()
		}
	})
	return initErr
}

func put(format clipboard.Format, data []byte) error {
	if err := ready(); err != nil {
		return err
	}
	clipboard.Write(format, data)
	return nil
}

// WriteImage publishes img as PNG.
func WriteImage(img image.Image) error {
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return put(clipboard.FmtImage, data)
}

// ReadImage decodes the PNG currently on the clipboard.
func ReadImage() (image.Image, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	return decodePNG(clipboard.Read(clipboard.FmtImage))
}

// WriteText publishes text.
func WriteText(text string) error {
	return put(clipboard.FmtText, []byte(text))
}
