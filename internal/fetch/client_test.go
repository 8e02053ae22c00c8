package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventScout/internal/config"
)

func testConfig() *config.ScrapingConfig {
	return &config.ScrapingConfig{
		UserAgent:      "TestBot/1.0",
		Delay:          time.Millisecond,
		RequestsPerMin: 30,
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
		RespectRobots:  false,
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestGetRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := NewClient("testsrc", testConfig(), testLogger())
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("testsrc", testConfig(), testLogger())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	// 重试耗尽后仍可取出底层的状态码错误
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	// 首次请求 + MaxRetries 次重试
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("testsrc", testConfig(), testLogger())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRetriesTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient("testsrc", testConfig(), testLogger())
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateWindowRejectsWhenFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestsPerMin = 2
	c := NewClient("testsrc", cfg, testLogger())

	ctx := context.Background()
	_, err := c.Get(ctx, srv.URL)
	require.NoError(t, err)
	_, err = c.Get(ctx, srv.URL)
	require.NoError(t, err)

	_, err = c.Get(ctx, srv.URL)
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestRobotsBlocked(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	c := NewClient("testsrc", cfg, testLogger())

	ctx := context.Background()
	_, err := c.Get(ctx, srv.URL+"/private/page")
	assert.True(t, errors.Is(err, ErrRobotsBlocked))

	_, err = c.Get(ctx, srv.URL+"/public/page")
	assert.NoError(t, err)
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1 class="title">Jazz Night</h1></body></html>`))
	}))
	defer srv.Close()

	c := NewClient("testsrc", testConfig(), testLogger())
	doc, err := c.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", doc.Find(".title").Text())
}
