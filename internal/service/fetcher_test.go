package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetcherDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	body, err := f.Direct(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "payload", string(body))
}

func TestFetcherDirectBlockedStatusesFallThrough(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := NewFetcher(srv.Client(), nil)
		_, err := f.Direct(context.Background(), srv.URL)
		require.True(t, errors.Is(err, errBlocked), "status %d must fall through", status)
		srv.Close()
	}
}

func TestFetcherDirectOtherStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	_, err := f.Direct(context.Background(), srv.URL)
	require.Error(t, err)
	require.False(t, errors.Is(err, errBlocked))
}
