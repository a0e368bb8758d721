// Package classify submits cropped labels to the ingredient classification
// service and decodes its verdict.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "http://localhost:8000/classify"
	DefaultField    = "file"
	DefaultFilename = "label.jpg"
	DefaultTimeout  = 60 * time.Second
	DefaultRetries  = 2
)

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 4 << 10

// ErrNoImage is returned when Classify is called with no image data.
var ErrNoImage = errors.New("no image to classify")

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("Server Error: %d", e.Code) }

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool { return e.Code >= 500 }

// Client talks to the classification service.
type Client struct {
	Endpoint string
	Field    string
	HTTP     *http.Client
	// Retries is the number of extra attempts after a failed request.
	Retries int
	// RetryInterval is the first backoff delay; later delays grow
	// exponentially.
	RetryInterval time.Duration
	Logger        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

func WithField(name string) Option { return func(c *Client) { c.Field = name } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithTimeout bounds each request. A client passed to WithHTTPClient is
// copied first so the caller's client keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := &http.Client{}
		if c.HTTP != nil && c.HTTP != http.DefaultClient {
			cp := *c.HTTP
			h = &cp
		}
		h.Timeout = d
		c.HTTP = h
	}
}

func WithRetries(n int) Option { return func(c *Client) { c.Retries = n } }

func WithRetryInterval(d time.Duration) Option { return func(c *Client) { c.RetryInterval = d } }

func WithLogger(l logrus.FieldLogger) Option { return func(c *Client) { c.Logger = l } }

// New returns a client for endpoint. An empty endpoint selects
// DefaultEndpoint.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		Endpoint:      endpoint,
		Field:         DefaultField,
		HTTP:          &http.Client{Timeout: DefaultTimeout},
		Retries:       DefaultRetries,
		RetryInterval: 2 * time.Second,
		Logger:        logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify uploads image as a multipart form and decodes the result. Server
// errors and transport failures are retried with exponential backoff; client
// errors are returned immediately.
func (c *Client) Classify(ctx context.Context, image []byte, filename string) (*Result, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}
	if filename == "" {
		filename = DefaultFilename
	}
	body, contentType, err := c.form(image, filename)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := c.logger().WithFields(logrus.Fields{
		"request_id": id,
		"endpoint":   c.Endpoint,
	})

	var res *Result
	attempt := 0
	op := func() error {
		attempt++
		r, err := c.do(ctx, id, body, contentType)
		if err != nil {
			var pe *backoff.PermanentError
			if errors.As(err, &pe) {
				return err
			}
			var se *StatusError
			if ctx.Err() != nil || (errors.As(err, &se) && !se.Temporary()) {
				return backoff.Permanent(err)
			}
			return err
		}
		res = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait,
		}).WithError(err).Warn("classify failed, retrying")
	}
	if err := backoff.RetryNotify(op, c.backOff(ctx), notify); err != nil {
		log.WithField("attempt", attempt).WithError(err).Debug("classify failed")
		return nil, err
	}
	log.WithField("attempt", attempt).Debug("classify succeeded")
	return res, nil
}

func (c *Client) form(image []byte, filename string) ([]byte, string, error) {
	field := c.Field
	if field == "" {
		field = DefaultField
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, id string, body []byte, contentType string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", id)

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post label: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode result: %w", err))
	}
	return &res, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.RetryInterval > 0 {
		b.InitialInterval = c.RetryInterval
	}
	b.MaxElapsedTime = 0
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
