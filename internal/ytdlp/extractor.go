package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shasu1pm/VoxText-AI/internal/session"
	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

// Extraction failure classes, recovered from the subprocess stderr.
var (
	ErrPrivate     = errors.New("video is private")
	ErrUnavailable = errors.New("video is unavailable")
	ErrRateLimited = errors.New("extraction rate limited")
)

// Extractor runs the yt-dlp binary to obtain a metadata snapshot for a
// video. The session store's cookie file is passed through so the
// subprocess and direct fetches share auth state.
type Extractor struct {
	bin           string
	playerClients []string
	timeout       time.Duration
	store         *session.Store
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBinary overrides the yt-dlp binary path.
func WithBinary(bin string) Option {
	return func(e *Extractor) {
		if bin != "" {
			e.bin = bin
		}
	}
}

// WithPlayerClients overrides the player clients tried during extraction.
func WithPlayerClients(clients []string) Option {
	return func(e *Extractor) {
		if len(clients) > 0 {
			e.playerClients = clients
		}
	}
}

// WithTimeout overrides the per-extraction timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExtractor creates an extractor bound to the given session store.
func NewExtractor(store *session.Store, opts ...Option) *Extractor {
	e := &Extractor{
		bin:           "yt-dlp",
		playerClients: []string{"ios", "android", "web"},
		timeout:       60 * time.Second,
		store:         store,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the subprocess and decodes its JSON dump into a Snapshot.
func (e *Extractor) Extract(ctx context.Context, videoID string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{
		"-J",
		"--no-warnings",
		"--extractor-args", "youtube:player_client=" + strings.Join(e.playerClients, ","),
	}
	if e.store != nil && e.store.File() != "" {
		args = append(args, "--cookies", e.store.File())
	}
	args = append(args, "https://www.youtube.com/watch?v="+videoID)

	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("Extracting metadata for video %s", videoID)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("extraction timed out for %s: %w", videoID, ctx.Err())
		}
		return nil, classifyStderr(videoID, stderr.String(), err)
	}

	snap, err := decodeSnapshot(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if snap.VideoID == "" {
		snap.VideoID = videoID
	}

	// The subprocess may have refreshed cookies; fold them back in.
	if e.store != nil {
		if err := e.store.Reload(); err != nil {
			log.Warn("Failed to reload cookies after extraction: %v", err)
		}
	}

	log.Info("Extracted metadata for %s: %d manual, %d auto caption languages",
		videoID, len(snap.Manual), len(snap.Auto))
	return snap, nil
}

func classifyStderr(videoID, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "private video"):
		return fmt.Errorf("video %s: %w", videoID, ErrPrivate)
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "has been removed"):
		return fmt.Errorf("video %s: %w", videoID, ErrUnavailable)
	case strings.Contains(lower, "429"),
		strings.Contains(lower, "too many requests"):
		return fmt.Errorf("video %s: %w", videoID, ErrRateLimited)
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("extraction failed for %s: %s", videoID, msg)
}
