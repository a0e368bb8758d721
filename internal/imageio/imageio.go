// Package imageio loads label photos and encodes crops.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dsoprea/go-exif/v3"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const exifOrientation = 0x0112

// ErrUnsupportedType is returned for data that is not a decodable image.
var ErrUnsupportedType = errors.New("unsupported image type")

var supported = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// Label is a decoded label photo.
type Label struct {
	// Image is the decoded photo with EXIF orientation applied.
	Image *image.RGBA
	// Raw holds the bytes as read.
	Raw  []byte
	MIME string
	Name string
	// Orientation is the EXIF orientation tag, 1 when absent.
	Orientation int
}

// Open reads and decodes the image at path.
func Open(path string) (*Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	l, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.Name = filepath.Base(path)
	return l, nil
}

// Decode reads all of r and decodes it as a label photo.
func Decode(r io.Reader) (*Label, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return DecodeBytes(raw)
}

// DecodeBytes decodes raw as a label photo.
func DecodeBytes(raw []byte) (*Label, error) {
	mt := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mt.String(), supported...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	orient := 1
	if mt.Is("image/jpeg") {
		if o, err := Orientation(raw); err == nil {
			orient = o
		}
	}
	return &Label{
		Image:       toRGBA(Orient(img, orient)),
		Raw:         raw,
		MIME:        mt.String(),
		Orientation: orient,
	}, nil
}

// Orientation reads the EXIF orientation of a JPEG. It returns 1 when the
// file has no EXIF block or no orientation tag.
func Orientation(raw []byte) (int, error) {
	mc, err := jpegstructure.NewJpegMediaParser().Parse(bytes.NewReader(raw), len(raw))
	if err != nil {
		return 1, fmt.Errorf("parse jpeg: %w", err)
	}
	rootIfd, _, err := mc.Exif()
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return 1, nil
		}
		return 1, fmt.Errorf("read exif: %w", err)
	}
	tags, err := rootIfd.FindTagWithId(exifOrientation)
	if err != nil {
		if errors.Is(err, exif.ErrTagNotFound) {
			return 1, nil
		}
		return 1, fmt.Errorf("find orientation: %w", err)
	}
	for _, tag := range tags {
		phrase, err := tag.FormatFirst()
		if err != nil {
			return 1, fmt.Errorf("format orientation: %w", err)
		}
		v, err := strconv.Atoi(strings.TrimSpace(phrase))
		if err != nil || v < 1 || v > 8 {
			return 1, nil
		}
		return v, nil
	}
	return 1, nil
}

// Orient applies an EXIF orientation to img so its bounds match the upright
// photo.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// FromImage wraps an already decoded image, such as one pasted from the
// clipboard, as a label.
func FromImage(img image.Image, name string) *Label {
	return &Label{Image: toRGBA(img), MIME: "image/png", Name: name, Orientation: 1}
}

// EncodeJPEG encodes img as JPEG at the given quality. Transparent pixels
// come out black.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
