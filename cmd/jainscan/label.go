package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/example/jainscan/internal/classify"
	"github.com/example/jainscan/internal/clipboard"
	"github.com/example/jainscan/internal/crop"
	"github.com/example/jainscan/internal/imageio"
	"github.com/example/jainscan/internal/report"
)

var (
	readClipboardImage = clipboard.ReadImage
	writeClipboardImg  = clipboard.WriteImage
	writeClipboardText = clipboard.WriteText
)

// labelInput registers the flags shared by commands that read a label photo.
type labelInput struct {
	file          string
	fromClipboard bool
}

func (in *labelInput) register(fs *flag.FlagSet) {
	fs.StringVar(&in.file, "file", "", "label photo to read")
	fs.BoolVar(&in.fromClipboard, "from-clipboard", false, "read the label photo from the clipboard")
	fs.BoolVar(&in.fromClipboard, "from-clip", false, "read the label photo from the clipboard (alias)")
}

func (in *labelInput) validate() error {
	if in.file != "" && in.fromClipboard {
		return fmt.Errorf("-file cannot be used with -from-clipboard")
	}
	if in.file == "" && !in.fromClipboard {
		return fmt.Errorf("a label is required: use -file or -from-clipboard")
	}
	return nil
}

func (in *labelInput) load() (*imageio.Label, error) {
	if in.fromClipboard {
		img, err := readClipboardImage()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return imageio.FromImage(img, "clipboard"), nil
	}
	return imageio.Open(in.file)
}

// classifyOptions holds the flags that override the classification settings.
type classifyOptions struct {
	endpoint string
	timeout  time.Duration
	retries  int
	asJSON   bool
	summary  bool
}

func (o *classifyOptions) register(fs *flag.FlagSet, r *root) {
	def := r.config.Classify
	fs.StringVar(&o.endpoint, "endpoint", def.Endpoint, "classification service URL")
	fs.DurationVar(&o.timeout, "timeout", def.Timeout, "timeout for each classification request")
	fs.IntVar(&o.retries, "retries", def.Retries, "retries after a server error")
	fs.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	fs.BoolVar(&o.summary, "copy-summary", false, "copy the one line verdict to the clipboard")
}

func (o *classifyOptions) client(r *root) *classify.Client {
	opts := append(r.config.ClientOptions(),
		classify.WithTimeout(o.timeout),
		classify.WithRetries(o.retries),
		classify.WithLogger(r.log),
	)
	return classify.New(o.endpoint, opts...)
}

// classifyLabel sends the cropped label to the service, prints the result
// and raises the verdict notification.
func (o *classifyOptions) classifyLabel(ctx context.Context, r *root, c *crop.Cropped) (*classify.Result, error) {
	res, err := o.client(r).Classify(ctx, c.JPEG, classify.DefaultFilename)
	if err != nil {
		return nil, fmt.Errorf("classify label: %w", err)
	}
	if o.asJSON {
		err = report.JSON(r.stdout, res)
	} else {
		err = report.Text(r.stdout, res)
	}
	if err != nil {
		return nil, fmt.Errorf("print result: %w", err)
	}
	headline := report.Headline(res)
	r.notifyResult(headline, c.Image, len(res.NonJain) > 0)
	if o.summary {
		if err := writeClipboardText(headline); err != nil {
			return nil, fmt.Errorf("copy summary to clipboard: %w", err)
		}
		fmt.Fprintln(r.stderr, "copied summary to clipboard")
		r.notifyCopy("summary")
	}
	return res, nil
}

// saveCrop writes the JPEG of a confirmed crop. Relative paths resolve
// against the configured save directory.
func saveCrop(r *root, path string, c *crop.Cropped) (string, error) {
	if !filepath.IsAbs(path) && r.config.SaveDir != "" {
		path = filepath.Join(r.config.SaveDir, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, c.JPEG, 0o644); err != nil {
		return "", fmt.Errorf("write crop: %w", err)
	}
	saved := path
	if abs, err := filepath.Abs(path); err == nil {
		saved = abs
	}
	r.log.WithField("path", saved).WithField("bytes", len(c.JPEG)).Debug("crop saved")
	fmt.Fprintf(r.stderr, "saved %s\n", saved)
	r.notifySave(saved)
	return saved, nil
}

func copyCrop(r *root, name string, img image.Image) error {
	if err := writeClipboardImg(img); err != nil {
		return fmt.Errorf("copy crop to clipboard: %w", err)
	}
	detail := filepath.Base(name)
	if detail == "" || detail == "." {
		detail = "label"
	}
	fmt.Fprintf(r.stderr, "copied %s to clipboard\n", detail)
	r.notifyCopy(detail)
	return nil
}
