// Package notify sends desktop notifications for scan results, saved crops
// and clipboard copies.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/example/jainscan/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	EventResult Event = "result"
	EventSave   Event = "save"
	EventCopy   Event = "copy"
)

// EnvTitle overrides the notification title.
const EnvTitle = "JAINSCAN_NOTIFY_TITLE"

// iconSize bounds the label preview shown with a result.
const iconSize = 128

var events = []struct {
	event    Event
	env      string
	template string
}{
	{EventResult, "JAINSCAN_NOTIFY_RESULT_TEXT", "%s"},
	{EventSave, "JAINSCAN_NOTIFY_SAVE_TEXT", "Saved %s"},
	{EventCopy, "JAINSCAN_NOTIFY_COPY_TEXT", "Copied %s to clipboard"},
}

// Preferences holds the notification title and a body template per event.
// Each template takes one %s for the event detail.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built in title and templates.
func DefaultPreferences() Preferences {
	p := Preferences{Title: "Jain Scan", Templates: make(map[Event]string, len(events))}
	for _, e := range events {
		p.Templates[e.event] = e.template
	}
	return p
}

// LoadPreferences applies environment overrides to the defaults. getenv is
// os.Getenv in production.
func LoadPreferences(getenv func(string) string) Preferences {
	p := DefaultPreferences()
	if v := strings.TrimSpace(getenv(EnvTitle)); v != "" {
		p.Title = v
	}
	for _, e := range events {
		if v := strings.TrimSpace(getenv(e.env)); v != "" {
			p.Templates[e.event] = v
		}
	}
	return p
}

// sender delivers a notification. Tests replace it.
var sender = platform.Notify

// Notifier sends notifications for the events that are enabled. A nil
// Notifier is silent.
type Notifier struct {
	title     string
	templates map[Event]string
	enabled   map[Event]bool
	log       logrus.FieldLogger
}

// New creates a Notifier with every event disabled. A nil logger selects the
// standard logger.
func New(prefs Preferences, log logrus.FieldLogger) *Notifier {
	n := &Notifier{
		title:     prefs.Title,
		templates: make(map[Event]string, len(prefs.Templates)),
		enabled:   make(map[Event]bool),
		log:       log,
	}
	for k, v := range prefs.Templates {
		n.templates[k] = v
	}
	if n.log == nil {
		n.log = logrus.StandardLogger()
	}
	return n
}

// Enable toggles notifications for event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Result announces a verdict headline with a thumbnail of the label. Urgent
// results stay on screen until dismissed where the platform allows it.
func (n *Notifier) Result(headline string, label image.Image, urgent bool) {
	if !n.on(EventResult) {
		return
	}
	opts := platform.Options{Urgent: urgent}
	if label != nil && !label.Bounds().Empty() {
		path, err := writeThumbnail(label)
		if err != nil {
			n.log.WithError(err).Warn("notification preview")
		} else {
			defer os.Remove(path)
			opts.IconPath = path
		}
	}
	n.send(EventResult, headline, opts)
}

// Save announces a written crop. The crop itself is the icon.
func (n *Notifier) Save(path string) {
	if !n.on(EventSave) {
		return
	}
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.send(EventSave, path, opts)
}

// Copy announces a clipboard copy. An empty detail reads as "label".
func (n *Notifier) Copy(detail string) {
	if !n.on(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "label"
	}
	n.send(EventCopy, detail, platform.Options{})
}

func (n *Notifier) on(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) send(event Event, detail string, opts platform.Options) {
	tmpl := strings.TrimSpace(n.templates[event])
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := sender(n.title, body, opts); err != nil {
		n.log.WithError(err).WithField("event", string(event)).Warn("notification failed")
	}
}

// writeThumbnail stores a small PNG of img in a temporary file and returns
// its path. The caller removes it.
func writeThumbnail(img image.Image) (string, error) {
	thumb := imaging.Fit(img, iconSize, iconSize, imaging.Linear)
	f, err := os.CreateTemp("", "jainscan-label-*.png")
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	err = png.Encode(f, thumb)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write preview: %w", err)
	}
	return f.Name(), nil
}
