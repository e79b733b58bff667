package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotifySucceedsOnFirstAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New()
	n.sleep = func(time.Duration) {}
	n.Notify(context.Background(), srv.URL, map[string]string{"type": "interrupt"})

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNotifyRetriesOnFailureThenGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New()
	n.sleep = func(time.Duration) {}
	n.Notify(context.Background(), srv.URL, map[string]string{"type": "interrupt"})

	require.EqualValues(t, 4, atomic.LoadInt32(&calls))
}

func TestNotifySkipsEmptyURL(t *testing.T) {
	n := New()
	n.sleep = func(time.Duration) {}
	n.Notify(context.Background(), "", map[string]string{"type": "interrupt"})
}
