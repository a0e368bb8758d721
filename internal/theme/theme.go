package theme

import (
	"image/color"

	"github.com/example/jainscan/internal/render"
)

// Theme defines the colours of the crop window and its overlay.
type Theme struct {
	Name string

	// Crop overlay
	Dim    color.RGBA // Shade over the area outside the crop box
	Border color.RGBA // Crop box outline
	Handle color.RGBA // Corner handle squares

	// Window
	Background color.RGBA // Behind the photo when it does not fill the window
	Foreground color.RGBA // Status text

	// Shortcut bar
	BarBackground         color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonText            color.RGBA

	// Shown through transparent label pixels
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the built-in light theme. Its overlay colours match
// render.DefaultOverlayStyle.
func Default() *Theme {
	o := render.DefaultOverlayStyle()
	return &Theme{
		Name:                  "Default",
		Dim:                   o.Dim,
		Border:                o.Border,
		Handle:                o.Handle,
		Background:            color.RGBA{220, 220, 220, 255},
		Foreground:            color.RGBA{0, 0, 0, 255},
		BarBackground:         color.RGBA{220, 220, 220, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		CheckerLight:          color.RGBA{220, 220, 220, 255},
		CheckerDark:           color.RGBA{192, 192, 192, 255},
	}
}

// OverlayStyle returns the crop overlay style for this theme. A nil theme
// yields the default style.
func (t *Theme) OverlayStyle(handleSize float64) render.OverlayStyle {
	s := render.DefaultOverlayStyle()
	if t != nil {
		s.Dim = t.Dim
		s.Border = t.Border
		s.Handle = t.Handle
	}
	if handleSize > 0 {
		s.HandleSize = handleSize
	}
	return s
}
