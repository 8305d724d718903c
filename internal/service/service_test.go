package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shasu1pm/VoxText-AI/internal/caption"
	"github.com/shasu1pm/VoxText-AI/internal/transcript"
	"github.com/shasu1pm/VoxText-AI/internal/ytdlp"
)

const sampleJSON3 = `{"events":[
	{"tStartMs":0,"dDurMs":1500,"segs":[{"utf8":"hello"}]},
	{"tStartMs":1500,"dDurMs":1500,"segs":[{"utf8":"world"}]}
]}`

type fakeExtractor struct {
	calls atomic.Int32
	snap  *ytdlp.Snapshot
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, videoID string) (*ytdlp.Snapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type markTranslator struct{}

func (markTranslator) TranslateLines(ctx context.Context, lines []string, source, target string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "T:" + line
	}
	return out
}

type recordingTranslator struct {
	source string
	target string
}

func (r *recordingTranslator) TranslateLines(ctx context.Context, lines []string, source, target string) []string {
	r.source, r.target = source, target
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "T:" + line
	}
	return out
}

type fakeTranscripts struct {
	ts  *transcript.Transcript
	err error
}

func (f *fakeTranscripts) Lookup(ctx context.Context, videoID string, langs []string) (*transcript.Transcript, error) {
	return f.ts, f.err
}

// captionServer serves json3 for original-track URLs and throttles
// translated-track URLs, counting every request.
func captionServer(requests *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("tlang") != "" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleJSON3))
	}))
}

func newTestService(ext *fakeExtractor, client *http.Client, transcripts TranscriptAPI) *Service {
	return New(ext, NewFetcher(client, nil), transcripts, markTranslator{}, 5*time.Minute, 10*time.Minute)
}

func TestResolveMetadata_CachesExtraction(t *testing.T) {
	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID:     "dQw4w9WgXcQ",
		Title:       "Learn Japanese through Tamil",
		Channel:     "Lang Lab",
		DurationSec: 612,
		Manual: []ytdlp.TrackList{
			{Language: "ta", Tracks: []caption.Track{{LanguageCode: "ta", Format: "json3", URL: "https://x/ta"}}},
		},
	}}
	svc := newTestService(ext, http.DefaultClient, nil)

	meta, err := svc.ResolveMetadata(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Equal(t, "Tamil", meta.Language)
	require.Equal(t, "Tamil", meta.CaptionLanguage)
	require.Equal(t, "ta", meta.CaptionLanguageCode)
	require.True(t, meta.HasCaptions)
	require.Equal(t, []LanguageOption{{Code: "ta", Name: "Tamil", Type: "manual"}},
		meta.AvailableCaptionLanguages)

	_, err = svc.ResolveMetadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Equal(t, int32(1), ext.calls.Load(), "second request within TTL must not re-extract")
}

func TestResolveMetadata_CaptionLanguageFromASRTrack(t *testing.T) {
	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Auto: []ytdlp.TrackList{
			{Language: "en", Tracks: []caption.Track{
				{LanguageCode: "en", Format: "json3", URL: "https://x/tt?kind=asr&tlang=en", Auto: true},
			}},
			{Language: "hi-orig", Tracks: []caption.Track{
				{LanguageCode: "hi-orig", Format: "json3", URL: "https://x/tt?kind=asr", Auto: true},
			}},
		},
	}}
	svc := newTestService(ext, http.DefaultClient, nil)

	meta, err := svc.ResolveMetadata(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Equal(t, "hi", meta.CaptionLanguageCode)
	require.Equal(t, "Hindi", meta.CaptionLanguage)
	require.Equal(t, "Hindi", meta.Language, "detection must fall back to the ASR code")
	require.Equal(t, "YouTube Video", meta.Title)
	require.Len(t, meta.AvailableCaptionLanguages, 2)
}

func TestResolveMetadata_PrivateVideo(t *testing.T) {
	ext := &fakeExtractor{err: fmt.Errorf("video x: %w", ytdlp.ErrPrivate)}
	svc := newTestService(ext, http.DefaultClient, nil)

	_, err := svc.ResolveMetadata(context.Background(), "dQw4w9WgXcQ")
	var re *ResolveError
	require.True(t, errors.As(err, &re))
	require.Equal(t, ReasonPrivate, re.Reason)
}

func TestResolveCaptions_ManualTrack(t *testing.T) {
	var requests atomic.Int32
	srv := captionServer(&requests)
	defer srv.Close()

	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Manual: []ytdlp.TrackList{
			{Language: "ta", Tracks: []caption.Track{{LanguageCode: "ta", Format: "json3", URL: srv.URL + "/tt?lang=ta"}}},
		},
	}}
	svc := newTestService(ext, srv.Client(), nil)

	result, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	require.Equal(t, caption.OriginManual, result.Origin)
	require.Equal(t, "ta", result.LanguageCode)
	require.Equal(t, "Tamil", result.LanguageName)
	require.Len(t, result.Segments, 2)
	require.Equal(t, "hello", result.Segments[0].Text)

	// Repeat request must come from the result cache.
	before := requests.Load()
	_, err = svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	require.Equal(t, before, requests.Load())
}

func TestResolveCaptions_TranslateFallback(t *testing.T) {
	var requests atomic.Int32
	srv := captionServer(&requests)
	defer srv.Close()

	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Auto: []ytdlp.TrackList{
			{Language: "ja", Tracks: []caption.Track{
				{LanguageCode: "ja", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=ja", Auto: true},
			}},
			{Language: "ta", Tracks: []caption.Track{
				{LanguageCode: "ta", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=ja&tlang=ta", Auto: true},
			}},
		},
	}}
	svc := newTestService(ext, srv.Client(), nil)

	result, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "ta")
	require.NoError(t, err)
	require.Equal(t, caption.OriginAutoTranslated, result.Origin)
	require.Equal(t, "ta", result.LanguageCode)
	require.Len(t, result.Segments, 2)
	require.Equal(t, "T:hello", result.Segments[0].Text)
	require.Equal(t, 0, result.Segments[0].StartMs)
	require.Equal(t, 1500, result.Segments[0].EndMs)
	require.Equal(t, "T:world", result.Segments[1].Text)
}

func TestResolveCaptions_TranslateFallbackKeepsResolvedCode(t *testing.T) {
	var requests atomic.Int32
	srv := captionServer(&requests)
	defer srv.Close()

	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Auto: []ytdlp.TrackList{
			{Language: "ja", Tracks: []caption.Track{
				{LanguageCode: "ja", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=ja", Auto: true},
			}},
			{Language: "zh-Hant", Tracks: []caption.Track{
				{LanguageCode: "zh-Hant", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=ja&tlang=zh-Hant", Auto: true},
			}},
		},
	}}
	rec := &recordingTranslator{}
	svc := New(ext, NewFetcher(srv.Client(), nil), nil, rec, 5*time.Minute, 10*time.Minute)

	// The alias resolves zh-TW to the zh-Hant track; when that track is
	// throttled, the fallback must translate into zh-Hant, not the bare base
	// language or the caller's spelling.
	result, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "zh-TW")
	require.NoError(t, err)
	require.Equal(t, caption.OriginAutoTranslated, result.Origin)
	require.Equal(t, "zh-Hant", result.LanguageCode)
	require.Equal(t, "ja", rec.source)
	require.Equal(t, "zh-Hant", rec.target)
}

func TestResolveCaptions_TranslateFallbackGuessesUnknownSource(t *testing.T) {
	englishJSON3 := `{"events":[` +
		`{"tStartMs":0,"dDurMs":2000,"segs":[{"utf8":"this is clearly a sentence written in the english language"}]},` +
		`{"tStartMs":2000,"dDurMs":2000,"segs":[{"utf8":"and here is another one with enough words for the detector"}]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tlang") != "" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(englishJSON3))
	}))
	defer srv.Close()

	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Auto: []ytdlp.TrackList{
			{Language: "und", Tracks: []caption.Track{
				{LanguageCode: "und", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=und", Auto: true},
			}},
			{Language: "fr", Tracks: []caption.Track{
				{LanguageCode: "fr", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=und&tlang=fr", Auto: true},
			}},
		},
	}}
	rec := &recordingTranslator{}
	svc := New(ext, NewFetcher(srv.Client(), nil), nil, rec, 5*time.Minute, 10*time.Minute)

	// A track labelled with a code that maps to no known language is as good
	// as unlabelled; the source is read off the caption text instead.
	result, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "fr")
	require.NoError(t, err)
	require.Equal(t, caption.OriginAutoTranslated, result.Origin)
	require.Equal(t, "en", rec.source)
	require.Equal(t, "fr", rec.target)
}

func TestResolveCaptions_AliasSelection(t *testing.T) {
	var requests atomic.Int32
	srv := captionServer(&requests)
	defer srv.Close()

	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Auto: []ytdlp.TrackList{
			{Language: "zh-Hant", Tracks: []caption.Track{
				{LanguageCode: "zh-Hant", Format: "json3", URL: srv.URL + "/tt?kind=asr&lang=zh-Hant", Auto: true},
			}},
		},
	}}
	svc := newTestService(ext, srv.Client(), nil)

	result, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "zh-TW")
	require.NoError(t, err)
	require.Equal(t, "zh-Hant", result.LanguageCode)
	require.Equal(t, caption.OriginAuto, result.Origin)
}

func TestResolveCaptions_TranscriptFallback(t *testing.T) {
	ext := &fakeExtractor{snap: &ytdlp.Snapshot{VideoID: "dQw4w9WgXcQ"}}
	transcripts := &fakeTranscripts{ts: &transcript.Transcript{
		LanguageCode: "en",
		Segments:     []caption.Segment{{StartMs: 0, EndMs: 1000, Text: "hi"}},
	}}
	svc := newTestService(ext, http.DefaultClient, transcripts)

	result, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	require.Equal(t, "en", result.LanguageCode)
	require.Equal(t, caption.OriginAuto, result.Origin)
	require.Len(t, result.Segments, 1)
}

func TestResolveCaptions_NoCaptions(t *testing.T) {
	ext := &fakeExtractor{snap: &ytdlp.Snapshot{VideoID: "dQw4w9WgXcQ"}}
	transcripts := &fakeTranscripts{err: transcript.ErrNoTranscript}
	svc := newTestService(ext, http.DefaultClient, transcripts)

	_, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "")
	var re *ResolveError
	require.True(t, errors.As(err, &re))
	require.Equal(t, ReasonNoCaptions, re.Reason)
}

func TestResolveCaptions_MissingLanguage(t *testing.T) {
	ext := &fakeExtractor{snap: &ytdlp.Snapshot{
		VideoID: "dQw4w9WgXcQ",
		Manual: []ytdlp.TrackList{
			{Language: "ta", Tracks: []caption.Track{{LanguageCode: "ta", Format: "json3", URL: "https://x/ta"}}},
		},
	}}
	svc := newTestService(ext, http.DefaultClient, nil)

	_, err := svc.ResolveCaptions(context.Background(), "dQw4w9WgXcQ", "fr")
	var re *ResolveError
	require.True(t, errors.As(err, &re))
	require.Equal(t, ReasonNoCaptionsForLanguage, re.Reason)
}

func TestNormalizeCode(t *testing.T) {
	require.Equal(t, "en", normalizeCode("en-orig"))
	require.Equal(t, "en-US", normalizeCode("en-US"))
	require.Equal(t, "ta", normalizeCode("ta"))
}

func TestGuessLanguage(t *testing.T) {
	segments := []caption.Segment{
		{Text: "this is clearly a sentence written in the english language"},
		{Text: "and here is another one to give the detector enough text"},
	}
	require.Equal(t, "en", guessLanguage(segments))

	require.Equal(t, "auto", guessLanguage(nil))
}

func TestSweepCaches(t *testing.T) {
	ext := &fakeExtractor{snap: &ytdlp.Snapshot{VideoID: "dQw4w9WgXcQ"}}
	svc := New(ext, NewFetcher(http.DefaultClient, nil), nil, markTranslator{},
		time.Nanosecond, time.Nanosecond)

	_, err := svc.ResolveMetadata(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	require.GreaterOrEqual(t, svc.SweepCaches(), 1)
}
