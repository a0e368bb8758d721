//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"image"
	"sync"
	"testing"
)

func resetInit() {
	initOnce = sync.Once{}
	initErr = nil
}

func TestEnsureInitWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	resetInit()
	t.Cleanup(resetInit)

	if err := WriteText("Not Jain: Onion"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
	if _, err := ReadImage(); !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
}

func TestPNGHelpers(t *testing.T) {
	if _, err := decodePNG(nil); !errors.Is(err, errNoImage) {
		t.Fatalf("expected errNoImage, got %v", err)
	}
	data, err := encodePNG(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	if err != nil {
		t.Fatal(err)
	}
	img, err := decodePNG(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	if _, err := encodePNG(nil); err == nil {
		t.Error("expected error for nil image")
	}
}
