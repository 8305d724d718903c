package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kkdai/youtube/v2"

	"github.com/shasu1pm/VoxText-AI/internal/caption"
	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

var (
	// ErrDisabled means the video exists but transcripts are turned off.
	ErrDisabled = errors.New("transcript is disabled")
	// ErrNoTranscript means no transcript exists for the requested languages.
	ErrNoTranscript = errors.New("no transcript available")
)

// Transcript is a caption text retrieved through the player API rather
// than a timed-text URL.
type Transcript struct {
	LanguageCode string
	Segments     []caption.Segment
}

// Client wraps the player-API library. Its network stack is independent of
// the shared session client, which is what makes it useful as a second
// fetch path when direct requests are blocked.
type Client struct {
	yt youtube.Client
}

// New creates a client. A nil httpClient leaves the library on its own
// default transport.
func New(httpClient *http.Client) *Client {
	return &Client{yt: youtube.Client{HTTPClient: httpClient}}
}

// FetchURL retrieves a caption document through the library's HTTP client.
func (c *Client) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	hc := c.yt.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build caption request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("caption request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption request returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption response: %w", err)
	}
	return body, nil
}

// Lookup fetches a transcript through the player API, trying the given
// language codes in order and falling back to the first listed track.
func (c *Client) Lookup(ctx context.Context, videoID string, langs []string) (*Transcript, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load video %s: %w", videoID, err)
	}
	if len(video.CaptionTracks) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}

	lang := ""
	for _, want := range langs {
		for _, track := range video.CaptionTracks {
			if track.LanguageCode == want {
				lang = want
				break
			}
		}
		if lang != "" {
			break
		}
	}
	if lang == "" {
		lang = video.CaptionTracks[0].LanguageCode
	}

	ts, err := c.yt.GetTranscriptCtx(ctx, video, lang)
	if err != nil {
		if errors.Is(err, youtube.ErrTranscriptDisabled) {
			return nil, fmt.Errorf("video %s: %w", videoID, ErrDisabled)
		}
		return nil, fmt.Errorf("failed to load transcript for %s: %w", videoID, err)
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}

	segments := make([]caption.Segment, 0, len(ts))
	for _, seg := range ts {
		if seg.Text == "" {
			continue
		}
		segments = append(segments, caption.Segment{
			StartMs: seg.StartMs,
			EndMs:   seg.StartMs + seg.Duration,
			Text:    seg.Text,
		})
	}

	log.Debug("Transcript lookup for %s returned %d segments in %s", videoID, len(segments), lang)
	return &Transcript{LanguageCode: lang, Segments: segments}, nil
}
