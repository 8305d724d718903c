package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/sync/singleflight"

	"github.com/shasu1pm/VoxText-AI/internal/cache"
	"github.com/shasu1pm/VoxText-AI/internal/caption"
	"github.com/shasu1pm/VoxText-AI/internal/langid"
	"github.com/shasu1pm/VoxText-AI/internal/transcript"
	"github.com/shasu1pm/VoxText-AI/internal/ytdlp"
	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

// Extractor produces metadata snapshots for a video id.
type Extractor interface {
	Extract(ctx context.Context, videoID string) (*ytdlp.Snapshot, error)
}

// TranscriptAPI retrieves caption text through the player API, used when
// the extraction snapshot lists no timed-text tracks at all.
type TranscriptAPI interface {
	Lookup(ctx context.Context, videoID string, langs []string) (*transcript.Transcript, error)
}

// Translator rewrites caption lines into a target language, degrading to
// pass-through on failure.
type Translator interface {
	TranslateLines(ctx context.Context, lines []string, source, target string) []string
}

// Service is the caption resolution pipeline: metadata extraction with
// caching, track selection, tiered fetching, parsing, and the
// translate-fallback branch.
type Service struct {
	extractor   Extractor
	fetcher     *Fetcher
	transcripts TranscriptAPI
	translator  Translator

	metaCache   *cache.TTL[string, *ytdlp.Snapshot]
	resultCache *cache.TTL[string, *caption.Result]
	group       singleflight.Group
}

// New wires the pipeline together. Zero TTLs disable expiry, which only
// tests should want.
func New(extractor Extractor, fetcher *Fetcher, transcripts TranscriptAPI,
	translator Translator, metaTTL, resultTTL time.Duration) *Service {
	return &Service{
		extractor:   extractor,
		fetcher:     fetcher,
		transcripts: transcripts,
		translator:  translator,
		metaCache:   cache.New[string, *ytdlp.Snapshot](metaTTL),
		resultCache: cache.New[string, *caption.Result](resultTTL),
	}
}

// SweepCaches drops expired entries from both caches and returns how many
// were removed. Expiry is also applied lazily on access; this exists for
// the background sweeper.
func (s *Service) SweepCaches() int {
	return s.metaCache.Sweep() + s.resultCache.Sweep()
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoRef accepts a bare video id or any of the common watch-page URL
// shapes and returns the canonical video id.
func ParseVideoRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", newError(ReasonMissingParameter, "video reference is required")
	}
	if videoIDPattern.MatchString(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", newError(ReasonMissingParameter, "unrecognized video reference %q", ref)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); videoIDPattern.MatchString(id) {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); videoIDPattern.MatchString(id) {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if videoIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	}
	return "", newError(ReasonMissingParameter, "unrecognized video reference %q", ref)
}

// snapshot returns cached metadata or performs one extraction, collapsing
// concurrent requests for the same video into a single upstream call.
func (s *Service) snapshot(ctx context.Context, videoID string) (*ytdlp.Snapshot, error) {
	if snap, ok := s.metaCache.Get(videoID); ok {
		return snap, nil
	}

	v, err, _ := s.group.Do(videoID, func() (any, error) {
		if snap, ok := s.metaCache.Get(videoID); ok {
			return snap, nil
		}
		snap, err := s.extractor.Extract(ctx, videoID)
		if err != nil {
			return nil, classifyExtractionError(videoID, err)
		}
		s.metaCache.Set(videoID, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ytdlp.Snapshot), nil
}

func classifyExtractionError(videoID string, err error) error {
	switch {
	case errors.Is(err, ytdlp.ErrPrivate):
		return wrapError(ReasonPrivate, err, "video %s is private", videoID)
	case errors.Is(err, ytdlp.ErrUnavailable):
		return wrapError(ReasonUnavailable, err, "video %s is unavailable", videoID)
	case errors.Is(err, ytdlp.ErrRateLimited):
		return wrapError(ReasonRateLimited, err, "extraction rate limited for %s", videoID)
	}
	return wrapError(ReasonFetchFailed, err, "failed to extract metadata for %s", videoID)
}

// LanguageOption is one entry of a metadata response's caption language
// listing.
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Metadata is the answer to a metadata request.
type Metadata struct {
	VideoID                   string           `json:"videoId"`
	Title                     string           `json:"title"`
	ChannelName               string           `json:"channelName"`
	Thumbnail                 string           `json:"thumbnail"`
	Duration                  int              `json:"duration"`
	Language                  string           `json:"language"`
	PlayableInEmbed           bool             `json:"playableInEmbed"`
	CaptionLanguage           string           `json:"captionLanguage"`
	CaptionLanguageCode       string           `json:"captionLanguageCode"`
	HasCaptions               bool             `json:"hasCaptions"`
	AvailableCaptionLanguages []LanguageOption `json:"availableCaptionLanguages"`
	IsLive                    bool             `json:"isLive"`
}

// ResolveMetadata loads (or reuses) the metadata snapshot and runs language
// detection over it.
func (s *Service) ResolveMetadata(ctx context.Context, ref string) (*Metadata, error) {
	videoID, err := ParseVideoRef(ref)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, videoID)
	if err != nil {
		return nil, err
	}

	asrCode := ""
	if track, ok := originalASRTrack(snap); ok {
		asrCode = normalizeCode(track.LanguageCode)
	}

	language := ""
	hint, ok := langid.Detect(langid.Signals{
		Title:           snap.Title,
		Description:     snap.Description,
		Channel:         snap.Channel,
		Tags:            snap.Tags,
		DeclaredCode:    snap.DeclaredLanguage,
		OriginalASRCode: asrCode,
	})
	if ok {
		language = hint.Language
		log.Debug("Detected language %q for %s via %s", hint.Language, videoID, hint.Source)
	} else if code := firstCaptionLanguage(snap); code != "" {
		language = displayName(code)
	}

	captionCode := captionLanguage(snap)
	captionName := ""
	if captionCode != "" {
		captionName = displayName(captionCode)
	}

	title := snap.Title
	if title == "" {
		title = "YouTube Video"
	}
	channel := snap.Channel
	if channel == "" {
		channel = "YouTube Channel"
	}

	return &Metadata{
		VideoID:                   snap.VideoID,
		Title:                     title,
		ChannelName:               channel,
		Thumbnail:                 snap.Thumbnail,
		Duration:                  snap.DurationSec,
		Language:                  language,
		PlayableInEmbed:           snap.PlayableInEmbed,
		CaptionLanguage:           captionName,
		CaptionLanguageCode:       captionCode,
		HasCaptions:               len(snap.Manual) > 0 || len(snap.Auto) > 0,
		AvailableCaptionLanguages: languageOptions(snap),
		IsLive:                    snap.IsLive,
	}, nil
}

// firstCaptionLanguage is the absolute fallback language: first manual
// language, else first auto language.
func firstCaptionLanguage(snap *ytdlp.Snapshot) string {
	if len(snap.Manual) > 0 {
		return normalizeCode(snap.Manual[0].Language)
	}
	if len(snap.Auto) > 0 {
		return normalizeCode(snap.Auto[0].Language)
	}
	return ""
}

// captionLanguage mirrors the caption auto-pick: the first manual language,
// else the language of the original ASR auto track.
func captionLanguage(snap *ytdlp.Snapshot) string {
	if len(snap.Manual) > 0 {
		return normalizeCode(snap.Manual[0].Language)
	}
	if track, ok := originalASRTrack(snap); ok {
		return normalizeCode(track.LanguageCode)
	}
	return ""
}

func languageOptions(snap *ytdlp.Snapshot) []LanguageOption {
	opts := make([]LanguageOption, 0, len(snap.Manual)+len(snap.Auto))
	seen := make(map[string]bool)
	for _, l := range snap.Manual {
		code := normalizeCode(l.Language)
		seen[code] = true
		opts = append(opts, LanguageOption{Code: code, Name: displayName(code), Type: "manual"})
	}
	for _, l := range snap.Auto {
		code := normalizeCode(l.Language)
		if seen[code] {
			continue
		}
		seen[code] = true
		opts = append(opts, LanguageOption{Code: code, Name: displayName(code), Type: "auto"})
	}
	return opts
}

// normalizeCode folds upstream's "-orig" suffixed codes back to the base
// code; other codes pass through unchanged.
func normalizeCode(code string) string {
	if strings.HasSuffix(strings.ToLower(code), "-orig") {
		return langid.BaseCode(code)
	}
	return code
}

func displayName(code string) string {
	if name := langid.Name(code); name != "" {
		return name
	}
	return code
}

// ResolveCaptions answers a caption request for an optional language code,
// serving repeats from the result cache.
func (s *Service) ResolveCaptions(ctx context.Context, ref, lang string) (*caption.Result, error) {
	videoID, err := ParseVideoRef(ref)
	if err != nil {
		return nil, err
	}

	reqKey := videoID + "|" + strings.ToLower(lang)
	if result, ok := s.resultCache.Get(reqKey); ok {
		return result, nil
	}

	snap, err := s.snapshot(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track, err := selectTrack(snap, lang)
	if err != nil {
		var re *ResolveError
		if errors.As(err, &re) && re.Reason == ReasonNoCaptions {
			if result, terr := s.transcriptFallback(ctx, videoID, lang); terr == nil {
				s.resultCache.Set(reqKey, result)
				return result, nil
			}
		}
		return nil, err
	}

	// Keyed by the resolved code so "zh-TW" and "zh-Hant" requests share
	// one cached answer.
	cacheKey := videoID + "|" + strings.ToLower(normalizeCode(track.LanguageCode))
	if result, ok := s.resultCache.Get(cacheKey); ok {
		return result, nil
	}

	var result *caption.Result
	if track.IsTranslation() {
		result, err = s.resolveTranslated(ctx, snap, track, lang)
	} else {
		result, err = s.resolveDirect(ctx, track)
	}
	if err != nil {
		return nil, err
	}

	s.resultCache.Set(cacheKey, result)
	if reqKey != cacheKey {
		s.resultCache.Set(reqKey, result)
	}
	return result, nil
}

// resolveDirect fetches a non-translated track, trying the direct path and
// then the library path before giving up.
func (s *Service) resolveDirect(ctx context.Context, track caption.Track) (*caption.Result, error) {
	segments, err := s.fetchParsed(ctx, track.URL)
	if err != nil {
		return nil, err
	}

	origin := caption.OriginManual
	if track.Auto {
		origin = caption.OriginAuto
	}
	code := normalizeCode(track.LanguageCode)
	return &caption.Result{
		LanguageCode: code,
		LanguageName: displayName(code),
		Segments:     segments,
		Origin:       origin,
	}, nil
}

// resolveTranslated attempts exactly one direct fetch of the translated
// track; translated URLs are throttled hard upstream, so a retry buys
// nothing. Anything short of parsed segments enters the translate fallback.
func (s *Service) resolveTranslated(ctx context.Context, snap *ytdlp.Snapshot,
	track caption.Track, lang string) (*caption.Result, error) {
	body, err := s.fetcher.Direct(ctx, track.URL)
	if err == nil {
		if segments := caption.Parse(string(body)); len(segments) > 0 {
			code := normalizeCode(track.LanguageCode)
			return &caption.Result{
				LanguageCode: code,
				LanguageName: displayName(code),
				Segments:     segments,
				Origin:       caption.OriginAuto,
			}, nil
		}
	}

	log.Info("Translated track fetch failed for %s, entering translate fallback", snap.VideoID)
	return s.translateFallback(ctx, snap, normalizeCode(track.LanguageCode))
}

// translateFallback fetches the original-language auto track and rewrites
// its text into the target language, preserving timing. The target is the
// resolved track code, not the caller's spelling of it, so a request by
// alias translates into the script the track actually named.
func (s *Service) translateFallback(ctx context.Context, snap *ytdlp.Snapshot,
	target string) (*caption.Result, error) {
	track, ok := originalASRTrack(snap)
	if !ok {
		return nil, newError(ReasonFetchFailed, "failed to fetch captions for %s", snap.VideoID)
	}

	segments, err := s.fetchParsed(ctx, track.URL)
	if err != nil {
		return nil, newError(ReasonFetchFailed, "failed to fetch captions for %s", snap.VideoID)
	}

	source := langid.BaseCode(normalizeCode(track.LanguageCode))
	if source == "" || langid.Name(source) == "" {
		source = guessLanguage(segments)
	}

	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = seg.Text
	}
	translated := s.translator.TranslateLines(ctx, lines, source, target)
	for i := range segments {
		if i < len(translated) {
			segments[i].Text = translated[i]
		}
	}

	return &caption.Result{
		LanguageCode: target,
		LanguageName: displayName(target),
		Segments:     segments,
		Origin:       caption.OriginAutoTranslated,
	}, nil
}

// guessLanguage infers the source language from the caption text itself,
// used when the track code gives nothing usable. "auto" lets the
// translation endpoint detect the language on its own.
func guessLanguage(segments []caption.Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i >= 20 {
			break
		}
		sb.WriteString(seg.Text)
		sb.WriteString(" ")
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "auto"
	}
	if code := whatlanggo.DetectLang(text).Iso6391(); code != "" {
		return code
	}
	return "auto"
}

// fetchParsed drives the direct-then-library fetch tiers and parses the
// first payload that yields segments.
func (s *Service) fetchParsed(ctx context.Context, url string) ([]caption.Segment, error) {
	body, err := s.fetcher.Direct(ctx, url)
	if err != nil && !errors.Is(err, errBlocked) {
		return nil, wrapError(ReasonFetchFailed, err, "caption fetch failed")
	}
	if err == nil {
		if segments := caption.Parse(string(body)); len(segments) > 0 {
			return segments, nil
		}
	}

	body, err = s.fetcher.Library(ctx, url)
	if err != nil {
		return nil, wrapError(ReasonFetchFailed, err, "caption fetch failed")
	}
	if segments := caption.Parse(string(body)); len(segments) > 0 {
		return segments, nil
	}
	return nil, newError(ReasonFetchFailed, "caption payload yielded no segments")
}

// transcriptFallback serves videos whose snapshot lists no timed-text
// tracks but whose transcript is still reachable through the player API.
func (s *Service) transcriptFallback(ctx context.Context, videoID, lang string) (*caption.Result, error) {
	if s.transcripts == nil {
		return nil, newError(ReasonNoCaptions, "no captions available for %s", videoID)
	}

	var prefs []string
	if lang != "" {
		prefs = []string{lang, langid.BaseCode(lang)}
	}
	ts, err := s.transcripts.Lookup(ctx, videoID, prefs)
	if err != nil {
		return nil, newError(ReasonNoCaptions, "no captions available for %s", videoID)
	}

	code := normalizeCode(ts.LanguageCode)
	log.Info("Served %s captions for %s via transcript lookup", code, videoID)
	return &caption.Result{
		LanguageCode: code,
		LanguageName: displayName(code),
		Segments:     ts.Segments,
		Origin:       caption.OriginAuto,
	}, nil
}
