package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEndpoint mimics the positional-array response shape, uppercasing
// each line so translations are distinguishable from pass-through.
func fakeEndpoint(t *testing.T, requests *atomic.Int32, failOn int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n == failOn {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		text := r.URL.Query().Get("q")
		chunks := make([][]any, 0)
		for i, line := range strings.Split(text, "\n") {
			chunk := strings.ToUpper(line)
			if i > 0 {
				chunk = "\n" + chunk
			}
			chunks = append(chunks, []any{chunk, line})
		}
		json.NewEncoder(w).Encode([]any{chunks})
	}))
}

func TestTranslate(t *testing.T) {
	var requests atomic.Int32
	srv := fakeEndpoint(t, &requests, 0)
	defer srv.Close()

	c := New(srv.Client(), WithEndpoint(srv.URL))
	got, err := c.Translate(context.Background(), "hello", "en", "ta")
	require.NoError(t, err)
	require.Equal(t, "HELLO", got)
}

func TestTranslateLinesBatchesByEncodedSize(t *testing.T) {
	var requests atomic.Int32
	srv := fakeEndpoint(t, &requests, 0)
	defer srv.Close()

	c := New(srv.Client(), WithEndpoint(srv.URL))

	// Enough bulk that one request cannot hold everything.
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("segment %02d %s", i, strings.Repeat("word ", 40))
	}

	got := c.TranslateLines(context.Background(), lines, "en", "ta")
	require.Len(t, got, len(lines))
	require.Equal(t, strings.ToUpper(lines[0]), got[0])
	require.Equal(t, strings.ToUpper(lines[len(lines)-1]), got[len(got)-1])
	require.Greater(t, requests.Load(), int32(1), "expected the input to span multiple batches")
}

func TestTranslateLinesFailedBatchPassesThrough(t *testing.T) {
	var requests atomic.Int32
	srv := fakeEndpoint(t, &requests, 1)
	defer srv.Close()

	c := New(srv.Client(), WithEndpoint(srv.URL))

	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("segment %02d %s", i, strings.Repeat("word ", 40))
	}

	got := c.TranslateLines(context.Background(), lines, "en", "ta")
	require.Len(t, got, len(lines))

	// First batch failed and passed through, later batches translated.
	require.Equal(t, lines[0], got[0])
	require.Equal(t, strings.ToUpper(lines[len(lines)-1]), got[len(got)-1])
}

func TestTranslateLinesBackfillsMissingLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Endpoint collapsed the newline: one translated line for two inputs.
		json.NewEncoder(w).Encode([]any{[][]any{{"TRANSLATED FIRST", "x"}}})
	}))
	defer srv.Close()

	c := New(srv.Client(), WithEndpoint(srv.URL))
	got := c.TranslateLines(context.Background(), []string{"first", "second"}, "en", "ta")
	require.Equal(t, []string{"TRANSLATED FIRST", "second"}, got)
}

func TestDecodeResponseRejectsGarbage(t *testing.T) {
	_, err := decodeResponse([]byte(`{"not":"an array"}`))
	require.Error(t, err)

	_, err = decodeResponse([]byte(`[]`))
	require.Error(t, err)
}
