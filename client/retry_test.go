package client_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var errConnRefused = errors.New("connection refused")

// flakyDoer fails the first failures calls and then answers with body.
type flakyDoer struct {
	mu       sync.Mutex
	failures int
	body     string
	calls    int
}

func (d *flakyDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.calls <= d.failures {
		return nil, errConnRefused
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

func (d *flakyDoer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// fakeTimer fires immediately and records every requested delay.
type fakeTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (f *fakeTimer) Delays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

// blockingTimer never fires.
type blockingTimer struct{}

func (blockingTimer) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func retryClient(t *testing.T, doer client.Doer) *client.Client {
	t.Helper()

	env, err := client.NewEnvironment("retry", "https://api.example.com/", client.WithDoer(doer))
	if err != nil {
		t.Fatalf("failed to create environment: %v", err)
	}
	c, err := client.Build(env, client.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestFetchRetry_Attempts(t *testing.T) {
	testCases := []struct {
		name     string
		attempts int
		k        int // call number that first succeeds
	}{
		{name: "first try", attempts: 1, k: 1},
		{name: "exactly enough", attempts: 3, k: 3},
		{name: "more than enough", attempts: 5, k: 2},
		{name: "one short", attempts: 2, k: 3},
		{name: "single attempt fails", attempts: 1, k: 2},
		{name: "many short", attempts: 4, k: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doer := &flakyDoer{failures: tc.k - 1, body: `{"data":{"items":[1,2,3]}}`}
			timer := &fakeTimer{}
			c := retryClient(t, doer)

			res := client.MustResource[[]int]("items", client.WithKeyPath("data.items"))
			got, err := client.FetchRetry(t.Context(), c, res, tc.attempts,
				client.WithDelay(250*time.Millisecond),
				client.WithTimer(timer),
			)

			expCalls := min(tc.attempts, tc.k)
			if doer.Calls() != expCalls {
				t.Errorf("expected %d transport calls, got %d", expCalls, doer.Calls())
			}

			if tc.attempts >= tc.k {
				if err != nil {
					t.Fatalf("expected success, got: %v", err)
				}
				if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			} else {
				if !errors.Is(err, client.ErrRequestFailed) || !errors.Is(err, errConnRefused) {
					t.Fatalf("expected the last transport error, got: %v", err)
				}
			}

			// One wait between each pair of consecutive attempts, none before the first.
			expDelays := make([]time.Duration, expCalls-1)
			for i := range expDelays {
				expDelays[i] = 250 * time.Millisecond
			}
			if diff := cmp.Diff(expDelays, timer.Delays(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("delays mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchRetry_DefaultDelay(t *testing.T) {
	doer := &flakyDoer{failures: 2, body: `[]`}
	timer := &fakeTimer{}
	c := retryClient(t, doer)

	_, err := client.FetchRetry(t.Context(), c, client.MustResource[[]int]("items"), 3, client.WithTimer(timer))
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}

	exp := []time.Duration{client.DefaultRetryDelay, client.DefaultRetryDelay}
	if diff := cmp.Diff(exp, timer.Delays()); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
	if client.DefaultRetryDelay != time.Second {
		t.Errorf("expected a one second default, got %v", client.DefaultRetryDelay)
	}
}

func TestFetchRetry_RealDelay(t *testing.T) {
	doer := &flakyDoer{failures: 2, body: `[]`}
	c := retryClient(t, doer)

	start := time.Now()
	_, err := client.FetchRetry(t.Context(), c, client.MustResource[[]int]("items"), 3, client.WithDelay(20*time.Millisecond))
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least two 20ms pauses, took %v", elapsed)
	}
}

func TestFetchRetry_UnsupportedURLEveryAttempt(t *testing.T) {
	doer := &flakyDoer{body: `{}`}
	timer := &fakeTimer{}
	c := retryClient(t, doer)

	_, err := client.FetchRetry(t.Context(), c, client.MustResource[map[string]any]("http://[::1"), 3, client.WithTimer(timer))
	if !errors.Is(err, client.ErrUnsupportedURL) {
		t.Fatalf("expected ErrUnsupportedURL, got: %v", err)
	}
	if doer.Calls() != 0 {
		t.Errorf("transport must not be called for an unsupported url, got %d calls", doer.Calls())
	}
	if len(timer.Delays()) != 2 {
		t.Errorf("all three attempts should run, got %d waits", len(timer.Delays()))
	}
}

func TestFetchRetry_DecodeFailureRetried(t *testing.T) {
	doer := &flakyDoer{body: `not json`}
	timer := &fakeTimer{}
	c := retryClient(t, doer)

	_, err := client.FetchRetry(t.Context(), c, client.MustResource[[]int]("items"), 3, client.WithTimer(timer))
	if !errors.Is(err, client.ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got: %v", err)
	}
	if doer.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", doer.Calls())
	}
}

func TestFetchRetry_TransientOnly(t *testing.T) {
	t.Run("terminal stops", func(t *testing.T) {
		doer := &flakyDoer{body: `not json`}
		timer := &fakeTimer{}
		c := retryClient(t, doer)

		_, err := client.FetchRetry(t.Context(), c, client.MustResource[[]int]("items"), 3,
			client.WithTimer(timer),
			client.WithTransientOnly(),
		)
		if !errors.Is(err, client.ErrDecodeFailed) {
			t.Fatalf("expected ErrDecodeFailed, got: %v", err)
		}
		if doer.Calls() != 1 {
			t.Errorf("expected a single call, got %d", doer.Calls())
		}
		if len(timer.Delays()) != 0 {
			t.Errorf("expected no waits, got %v", timer.Delays())
		}
	})

	t.Run("transient retried", func(t *testing.T) {
		doer := &flakyDoer{failures: 2, body: `[7]`}
		c := retryClient(t, doer)

		got, err := client.FetchRetry(t.Context(), c, client.MustResource[[]int]("items"), 3,
			client.WithTimer(&fakeTimer{}),
			client.WithTransientOnly(),
		)
		if err != nil {
			t.Fatalf("expected success, got: %v", err)
		}
		if diff := cmp.Diff([]int{7}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestFetchRetry_CancelDuringDelay(t *testing.T) {
	doer := &flakyDoer{failures: 10, body: `[]`}
	c := retryClient(t, doer)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := client.FetchRetry(ctx, c, client.MustResource[[]int]("items"), 5, client.WithTimer(blockingTimer{}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if doer.Calls() != 1 {
		t.Errorf("cancellation should abort the remaining attempts, got %d calls", doer.Calls())
	}
}

func TestFetchRetry_LogsOnlyPendingRetries(t *testing.T) {
	testCases := map[string]struct {
		attempts int
		expWarns int
	}{
		"single attempt": {attempts: 1, expWarns: 0},
		"three attempts": {attempts: 3, expWarns: 2},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

			env, err := client.NewEnvironment("retry", "https://api.example.com/", client.WithDoer(&flakyDoer{failures: 10}))
			if err != nil {
				t.Fatal(err)
			}
			c, err := client.Build(env, client.WithLogger(logger))
			if err != nil {
				t.Fatal(err)
			}

			_, err = client.FetchRetry(t.Context(), c, client.MustResource[[]int]("items"), tc.attempts, client.WithTimer(&fakeTimer{}))
			if !errors.Is(err, errConnRefused) {
				t.Fatalf("expected the transport error, got: %v", err)
			}

			if got := strings.Count(buf.String(), "fetch attempt failed"); got != tc.expWarns {
				t.Errorf("expected %d retry warnings, got %d:\n%s", tc.expWarns, got, buf.String())
			}
		})
	}
}

func TestFetchRetry_InvalidArguments(t *testing.T) {
	c := retryClient(t, &flakyDoer{body: `[]`})
	res := client.MustResource[[]int]("items")

	if _, err := client.FetchRetry(t.Context(), c, res, 0); !errors.Is(err, client.ErrInvalidAttempts) {
		t.Errorf("expected ErrInvalidAttempts for zero attempts, got: %v", err)
	}
	if _, err := client.FetchRetry(t.Context(), c, res, -3); !errors.Is(err, client.ErrInvalidAttempts) {
		t.Errorf("expected ErrInvalidAttempts for negative attempts, got: %v", err)
	}
	if _, err := client.FetchRetry(t.Context(), c, res, 1, client.WithDelay(-time.Second)); err == nil {
		t.Error("expected an error for a negative delay")
	}
	if _, err := client.FetchRetry(t.Context(), c, res, 1, client.WithTimer(nil)); err == nil {
		t.Error("expected an error for a nil timer")
	}
}
