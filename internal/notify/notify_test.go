package notify

import (
	"errors"
	"image"
	"image/png"
	"os"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/example/jainscan/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
	iconExisted bool
	iconSize    image.Point
}

func capture(t *testing.T, err error) *[]sent {
	t.Helper()
	var got []sent
	old := sender
	sender = func(title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, opts: opts}
		if opts.IconPath != "" {
			if f, err := os.Open(opts.IconPath); err == nil {
				s.iconExisted = true
				if cfg, err := png.DecodeConfig(f); err == nil {
					s.iconSize = image.Pt(cfg.Width, cfg.Height)
				}
				f.Close()
			}
		}
		got = append(got, s)
		return err
	}
	t.Cleanup(func() { sender = old })
	return &got
}

func TestDisabledEventsAreSilent(t *testing.T) {
	got := capture(t, nil)
	n := New(DefaultPreferences(), nil)
	n.Result("Not Jain: Onion", nil, true)
	n.Save("out.jpg")
	n.Copy("")
	if len(*got) != 0 {
		t.Fatalf("expected no notifications, got %v", *got)
	}

	var nilNotifier *Notifier
	nilNotifier.Enable(EventResult, true)
	nilNotifier.Result("x", nil, false)
}

func TestResultNotification(t *testing.T) {
	got := capture(t, nil)
	n := New(DefaultPreferences(), nil)
	n.Enable(EventResult, true)
	n.Result("Not Jain: Onion Powder", image.NewRGBA(image.Rect(0, 0, 4, 4)), true)
	if len(*got) != 1 {
		t.Fatalf("expected one notification, got %d", len(*got))
	}
	s := (*got)[0]
	if s.title != "Jain Scan" || s.body != "Not Jain: Onion Powder" {
		t.Errorf("unexpected notification %+v", s)
	}
	if !s.opts.Urgent {
		t.Error("result should be urgent")
	}
	if !s.iconExisted {
		t.Error("preview icon should exist while notifying")
	}
	if _, err := os.Stat(s.opts.IconPath); !os.IsNotExist(err) {
		t.Errorf("preview should be removed afterwards, stat err %v", err)
	}
}

func TestCopyDefaultsDetail(t *testing.T) {
	got := capture(t, nil)
	n := New(DefaultPreferences(), nil)
	n.Enable(EventCopy, true)
	n.Copy("  ")
	if len(*got) != 1 || (*got)[0].body != "Copied label to clipboard" {
		t.Fatalf("unexpected notifications %+v", *got)
	}
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	env := map[string]string{
		"JAINSCAN_NOTIFY_TITLE":       "Scanner",
		"JAINSCAN_NOTIFY_RESULT_TEXT": "Verdict: %s",
	}
	prefs := LoadPreferences(func(k string) string { return env[k] })
	if prefs.Title != "Scanner" {
		t.Errorf("Title = %q", prefs.Title)
	}
	if prefs.Templates[EventResult] != "Verdict: %s" {
		t.Errorf("result template = %q", prefs.Templates[EventResult])
	}
	if prefs.Templates[EventSave] != "Saved %s" {
		t.Errorf("save template = %q", prefs.Templates[EventSave])
	}
}

func TestSendFailureIsLogged(t *testing.T) {
	capture(t, errors.New("no bus"))
	logger, hook := logtest.NewNullLogger()
	n := New(DefaultPreferences(), logger)
	n.Enable(EventSave, true)
	n.Save("missing.jpg")
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "notification failed" {
		t.Fatalf("expected failure to be logged, got %+v", entry)
	}
	if entry.Data["event"] != "save" {
		t.Errorf("event field = %v", entry.Data["event"])
	}
}

func TestResultThumbnailIsBounded(t *testing.T) {
	got := capture(t, nil)
	n := New(DefaultPreferences(), nil)
	n.Enable(EventResult, true)
	n.Result("Jain friendly (3 ingredients)", image.NewRGBA(image.Rect(0, 0, 1024, 512)), false)
	if len(*got) != 1 {
		t.Fatalf("expected one notification, got %d", len(*got))
	}
	if size := (*got)[0].iconSize; size != image.Pt(iconSize, iconSize/2) {
		t.Errorf("thumbnail size = %v", size)
	}
	if (*got)[0].opts.Urgent {
		t.Error("jain friendly result should not be urgent")
	}
}
