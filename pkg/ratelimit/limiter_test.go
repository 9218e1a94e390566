package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestLimiterAllow(t *testing.T) {
	clock := newClock()
	l := NewLimiter(3, 60, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys have separate buckets")

	clock.Advance(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	clock.Advance(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "refill is capped at capacity, request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	clock := newClock()
	l := NewLimiter(1, 1, WithClock(clock.Now), WithBucketTTL(time.Minute))

	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	clock.Advance(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name      string
		perMinute int
		want      time.Duration
	}{
		{name: "one per second", perMinute: 60, want: time.Second},
		{name: "ten per minute", perMinute: 10, want: 6 * time.Second},
		{name: "no refill", perMinute: 0, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewLimiter(1, tt.perMinute).RetryAfter())
		})
	}
}

func TestMiddleware(t *testing.T) {
	clock := newClock()
	l := NewLimiter(2, 10, WithClock(clock.Now))
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:2000").Code, "port is not part of the key")

	rr := send("192.0.2.1:3000")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "6", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "TOO_MANY_REQUESTS")

	assert.Equal(t, http.StatusNoContent, send("192.0.2.2:1000").Code)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1:1234"))
	assert.Equal(t, "2001:db8::1", clientIP("[2001:db8::1]:443"))
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1"))
}
