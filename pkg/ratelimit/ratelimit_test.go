package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func doReq(h http.Handler, addr string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestLimiterBlocksAfterMax(t *testing.T) {
	h := New(2, time.Minute).Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, doReq(h, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, doReq(h, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, doReq(h, "10.0.0.1:1111"))

	// Another IP has its own bucket.
	assert.Equal(t, http.StatusOK, doReq(h, "10.0.0.2:2222"))
}

func TestLimiterWindowResets(t *testing.T) {
	h := New(1, 10*time.Millisecond).Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, doReq(h, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, doReq(h, "10.0.0.1:1111"))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doReq(h, "10.0.0.1:1111"))
}

func TestSweepDropsExpiredBuckets(t *testing.T) {
	l := New(1, time.Millisecond)
	l.buckets["10.0.0.1"] = &bucket{ts: time.Now().Add(-time.Second)}
	l.buckets["10.0.0.2"] = &bucket{ts: time.Now(), tokens: 1}

	l.sweep(time.Now())

	assert.NotContains(t, l.buckets, "10.0.0.1")
	assert.Contains(t, l.buckets, "10.0.0.2")
}
