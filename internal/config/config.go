package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/jainscan/internal/classify"
	"github.com/example/jainscan/internal/crop"
	"github.com/example/jainscan/internal/theme"
)

// Classify holds the classification service settings.
type Classify struct {
	Endpoint string
	Field    string
	Timeout  time.Duration
	Retries  int
}

// Crop holds crop editor settings.
type Crop struct {
	HandleSize float64
	MinSize    float64
	Quality    int
}

// Notify holds notification settings.
type Notify struct {
	Result bool
	Save   bool
	Copy   bool
}

// Config holds the application configuration.
type Config struct {
	Theme    string
	SaveDir  string
	LogLevel string
	Classify Classify
	Crop     Crop
	Notify   Notify
	Themes   map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:    "", // Default to empty to allow fallback to Env/Default
		LogLevel: "info",
		Classify: Classify{
			Endpoint: classify.DefaultEndpoint,
			Field:    classify.DefaultField,
			Timeout:  classify.DefaultTimeout,
			Retries:  classify.DefaultRetries,
		},
		Crop: Crop{
			HandleSize: crop.DefaultHandleSize,
			MinSize:    crop.DefaultMinSize,
			Quality:    crop.DefaultQuality,
		},
		Notify: Notify{
			Result: true,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// Validate clamps values to usable ranges. It fails only for settings that
// cannot be repaired.
func (c *Config) Validate() error {
	d := New()
	if c.Classify.Endpoint == "" {
		c.Classify.Endpoint = d.Classify.Endpoint
	}
	if u, err := url.Parse(c.Classify.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid classify endpoint %q", c.Classify.Endpoint)
	}
	if c.Classify.Field == "" {
		c.Classify.Field = d.Classify.Field
	}
	if c.Classify.Timeout <= 0 {
		c.Classify.Timeout = d.Classify.Timeout
	}
	if c.Classify.Retries < 0 {
		c.Classify.Retries = 0
	}
	if c.Crop.HandleSize <= 0 {
		c.Crop.HandleSize = d.Crop.HandleSize
	}
	if c.Crop.MinSize < 1 {
		c.Crop.MinSize = 1
	}
	if c.Crop.Quality < 1 || c.Crop.Quality > 100 {
		c.Crop.Quality = d.Crop.Quality
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// SessionOptions returns the crop options for these settings.
func (c *Config) SessionOptions() []crop.Option {
	return []crop.Option{
		crop.WithHandleSize(c.Crop.HandleSize),
		crop.WithMinSize(c.Crop.MinSize),
		crop.WithQuality(c.Crop.Quality),
	}
}

// ClientOptions returns the classify client options for these settings.
func (c *Config) ClientOptions() []classify.Option {
	return []classify.Option{
		classify.WithField(c.Classify.Field),
		classify.WithTimeout(c.Classify.Timeout),
		classify.WithRetries(c.Classify.Retries),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.LogLevel != "" {
		fmt.Fprintf(&sb, "log_level = %s\n", c.LogLevel)
	}
	sb.WriteString("\n")

	sb.WriteString("[classify]\n")
	fmt.Fprintf(&sb, "endpoint = %s\n", c.Classify.Endpoint)
	fmt.Fprintf(&sb, "field = %s\n", c.Classify.Field)
	fmt.Fprintf(&sb, "timeout = %s\n", c.Classify.Timeout)
	fmt.Fprintf(&sb, "retries = %d\n", c.Classify.Retries)
	sb.WriteString("\n")

	sb.WriteString("[crop]\n")
	fmt.Fprintf(&sb, "handle_size = %g\n", c.Crop.HandleSize)
	fmt.Fprintf(&sb, "min_size = %g\n", c.Crop.MinSize)
	fmt.Fprintf(&sb, "quality = %d\n", c.Crop.Quality)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "result = %v\n", c.Notify.Result)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", f[0], f[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
