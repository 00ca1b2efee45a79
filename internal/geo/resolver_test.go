package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "41.58.0.1", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Lagos","region":"LA","country":"NG","localtime":"2024-09-01 12:00:00"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, zap.NewNop())

	location, err := client.Resolve(context.Background(), "41.58.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Lagos", location.Name)
	assert.Equal(t, "LA", location.Region)
	assert.Equal(t, "NG", location.Country)
	assert.Equal(t, "2024-09-01 12:00:00", location.Localtime)
}

func TestResolve_RetriesTransientFailureOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"name":"Lagos","region":"LA","country":"NG","localtime":"2024-09-01 12:00:00"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, zap.NewNop())

	location, err := client.Resolve(context.Background(), "41.58.0.1")
	require.NoError(t, err)
	assert.Equal(t, "NG", location.Country)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResolve_UnavailableAfterRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, zap.NewNop())

	_, err := client.Resolve(context.Background(), "41.58.0.1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResolve_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", time.Second, zap.NewNop())

	_, err := client.Resolve(context.Background(), "41.58.0.1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
