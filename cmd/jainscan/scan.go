package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/example/jainscan/internal/crop"
	"github.com/example/jainscan/internal/imageio"
)

type scanCmd struct {
	input       labelInput
	classify    classifyOptions
	rect        string
	script      string
	noCrop      bool
	output      string
	toClipboard bool
	region      *crop.Region
	*root
	fs *flag.FlagSet
}

func (s *scanCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseScanCmd(args []string, r *root) (*scanCmd, error) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	s := &scanCmd{root: r.subcommand("scan"), fs: fs}
	fs.Usage = usageFunc(s)
	s.input.register(fs)
	s.classify.register(fs, r)
	fs.StringVar(&s.rect, "rect", "", "crop rectangle x0,y0,x1,y1 in image pixels")
	fs.StringVar(&s.script, "script", "", "replay crop gestures from this file")
	fs.BoolVar(&s.noCrop, "no-crop", false, "send the whole photo without cropping")
	fs.StringVar(&s.output, "output", "", "also save the cropped JPEG to this path")
	fs.BoolVar(&s.toClipboard, "to-clipboard", false, "copy the cropped label to the clipboard")
	fs.BoolVar(&s.toClipboard, "to-clip", false, "copy the cropped label to the clipboard (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: s}
	}
	if err := s.input.validate(); err != nil {
		return nil, err
	}
	chosen := 0
	for _, set := range []bool{s.rect != "", s.script != "", s.noCrop} {
		if set {
			chosen++
		}
	}
	if chosen > 1 {
		return nil, fmt.Errorf("-rect, -script and -no-crop are mutually exclusive")
	}
	if s.rect != "" {
		rect, err := parseRect(s.rect)
		if err != nil {
			return nil, err
		}
		s.region = &crop.Region{
			X:      float64(rect.Min.X),
			Y:      float64(rect.Min.Y),
			Width:  float64(rect.Dx()),
			Height: float64(rect.Dy()),
		}
	}
	return s, nil
}

func (s *scanCmd) Run() error {
	label, err := s.input.load()
	if err != nil {
		return err
	}
	cropped, err := s.cropLabel(label)
	if err != nil {
		return err
	}
	if s.output != "" {
		if _, err := saveCrop(s.root, s.output, cropped); err != nil {
			return err
		}
	}
	if s.toClipboard {
		if err := copyCrop(s.root, s.output, cropped.Image); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = s.classify.classifyLabel(ctx, s.root, cropped)
	return err
}

// cropLabel produces the upload for the label: the whole photo with
// -no-crop, otherwise a session confirmed after applying -rect or the
// gesture script.
func (s *scanCmd) cropLabel(label *imageio.Label) (*crop.Cropped, error) {
	if s.noCrop {
		data, err := imageio.EncodeJPEG(label.Image, s.config.Crop.Quality)
		if err != nil {
			return nil, err
		}
		size := label.Image.Bounds().Size()
		return &crop.Cropped{
			Image:  label.Image,
			JPEG:   data,
			Region: crop.Region{Width: float64(size.X), Height: float64(size.Y)},
		}, nil
	}

	opts := append(s.config.SessionOptions(), crop.WithLogger(s.log))
	if s.region != nil {
		opts = append(opts, crop.WithRegion(*s.region))
	}
	sess := crop.Begin(label.Image, opts...)
	if sess == nil {
		return nil, fmt.Errorf("%s: image is empty", label.Name)
	}
	if s.script != "" {
		f, err := os.Open(s.script)
		if err != nil {
			return nil, fmt.Errorf("open gesture script: %w", err)
		}
		steps, err := crop.ParseScript(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.script, err)
		}
		sess.Replay(steps)
	}
	return sess.Confirm()
}

func parseRect(val string) (image.Rectangle, error) {
	parts := strings.Split(val, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q", val)
	}
	nums := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rect %q", val)
		}
		nums[i] = v
	}
	rect := image.Rect(nums[0], nums[1], nums[2], nums[3])
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("rect %q is empty", val)
	}
	bounds := crop.Region{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Max.X) - float64(rect.Min.X),
		Height: float64(rect.Max.Y) - float64(rect.Min.Y),
	}
	if !bounds.Encodable() {
		return image.Rectangle{}, fmt.Errorf("rect %q is too large: at most %d pixels a side and %d in total", val, crop.MaxSide, crop.MaxPixels)
	}
	return rect, nil
}
