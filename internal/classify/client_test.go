package classify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sampleResponse = `{
  "non_jain_ingredients": [{"name": "Onion Powder", "reason": "Root vegetable", "is_veg": "yes", "is_vegan": 1}],
  "uncertain_ingredients": [{"name": "Natural Flavours", "reason": "Source not stated", "is_veg": null, "is_vegan": "no"}],
  "jain_ingredients": [{"name": "Sugar", "is_veg": true, "is_vegan": " TRUE "}],
  "summary": {"overall_jain_safe": false, "non_jain_ingredients_found": ["Onion Powder"], "note": "Contains onion."}
}`

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	base := []Option{
		WithHTTPClient(srv.Client()),
		WithRetryInterval(time.Millisecond),
		WithLogger(logger),
	}
	return New(srv.URL, append(base, opts...)...)
}

func TestClassifySendsMultipartLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		assert.Equal(t, "label.jpg", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("jpeg-bytes"), data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv).Classify(context.Background(), []byte("jpeg-bytes"), "")
	require.NoError(t, err)

	require.Len(t, res.NonJain, 1)
	assert.Equal(t, "Onion Powder", res.NonJain[0].Name)
	assert.True(t, bool(res.NonJain[0].IsVeg))
	assert.True(t, bool(res.NonJain[0].IsVegan))
	require.Len(t, res.Uncertain, 1)
	assert.False(t, bool(res.Uncertain[0].IsVeg))
	assert.False(t, bool(res.Uncertain[0].IsVegan))
	require.Len(t, res.Jain, 1)
	assert.True(t, bool(res.Jain[0].IsVegan))
	assert.Equal(t, "Contains onion.", res.Note())
	assert.Equal(t, []string{"Onion Powder"}, res.Summary.NonJainFound)
}

func TestClassifyCustomField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("image")
		if err != nil {
			http.Error(w, "missing", http.StatusBadRequest)
			return
		}
		assert.Equal(t, "crop.jpg", hdr.Filename)
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, WithField("image")).Classify(context.Background(), []byte{1}, "crop.jpg")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestClassifyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "waking up", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	logger, hook := logtest.NewNullLogger()
	c := newTestClient(t, srv, WithRetries(2), WithLogger(logger))
	res, err := c.Classify(context.Background(), []byte{1}, "")
	require.NoError(t, err)
	assert.Len(t, res.Jain, 1)
	assert.Equal(t, int32(3), calls.Load())

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			assert.NotEmpty(t, e.Data["request_id"])
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestClassifyGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, WithRetries(1)).Classify(context.Background(), []byte{1}, "")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "Server Error: 502", err.Error())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClassifyClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "image too small", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, WithRetries(3)).Classify(context.Background(), []byte{1}, "")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Equal(t, "image too small", se.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassifyBadJSON(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Classify(context.Background(), []byte{1}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode result")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassifyContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(t, srv).Classify(ctx, []byte{1}, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyNoImage(t *testing.T) {
	_, err := New("").Classify(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestNewDefaults(t *testing.T) {
	c := New("", WithTimeout(5*time.Second))
	assert.Equal(t, DefaultEndpoint, c.Endpoint)
	assert.Equal(t, DefaultField, c.Field)
	assert.Equal(t, DefaultRetries, c.Retries)
	assert.Equal(t, 5*time.Second, c.HTTP.Timeout)
}

func TestWithTimeoutLeavesCallerClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c := New("", WithHTTPClient(shared), WithTimeout(5*time.Second))

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 5*time.Second, c.HTTP.Timeout)
	assert.NotSame(t, shared, c.HTTP)

	d := New("", WithHTTPClient(http.DefaultClient), WithTimeout(time.Second))
	assert.Zero(t, http.DefaultClient.Timeout)
	assert.Equal(t, time.Second, d.HTTP.Timeout)
}
