package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/example/jainscan/internal/appstate"
	"github.com/example/jainscan/internal/crop"
)

// runWindow runs the crop window. Tests replace it to skip the display.
var runWindow = func(st *appstate.AppState) { st.Run() }

type cropCmd struct {
	input       labelInput
	classify    classifyOptions
	output      string
	toClipboard bool
	classifyIt  bool
	*root
	fs *flag.FlagSet
}

func (c *cropCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseCropCmd(args []string, r *root) (*cropCmd, error) {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	c := &cropCmd{root: r.subcommand("crop"), fs: fs}
	fs.Usage = usageFunc(c)
	c.input.register(fs)
	c.classify.register(fs, r)
	fs.StringVar(&c.output, "output", "cropped.jpg", "write the cropped JPEG to this path, empty to skip")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the cropped label to the clipboard")
	fs.BoolVar(&c.toClipboard, "to-clip", false, "copy the cropped label to the clipboard (alias)")
	fs.BoolVar(&c.classifyIt, "classify", false, "send the crop to the classification service")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: c}
	}
	if err := c.input.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *cropCmd) Run() error {
	label, err := c.input.load()
	if err != nil {
		return err
	}
	st := appstate.New(
		appstate.WithImage(label.Image),
		appstate.WithTitle(fmt.Sprintf("Jain Scan - %s", label.Name)),
		appstate.WithTheme(c.activeTheme),
		appstate.WithLogger(c.log),
		appstate.WithSessionOptions(c.config.SessionOptions()...),
	)
	runWindow(st)

	cropped, err := st.Result()
	if errors.Is(err, appstate.ErrCancelled) {
		fmt.Fprintln(c.stderr, "crop cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	return c.deliver(cropped)
}

func (c *cropCmd) deliver(cropped *crop.Cropped) error {
	c.log.WithField("region", cropped.Region.String()).Info("label cropped")
	if c.output != "" {
		if _, err := saveCrop(c.root, c.output, cropped); err != nil {
			return err
		}
	}
	if c.toClipboard {
		if err := copyCrop(c.root, c.output, cropped.Image); err != nil {
			return err
		}
	}
	if !c.classifyIt {
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err := c.classify.classifyLabel(ctx, c.root, cropped)
	return err
}
