package ytdlp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shasu1pm/VoxText-AI/internal/caption"
)

// TrackList groups the caption tracks offered for a single language code,
// in the order the upstream JSON listed them.
type TrackList struct {
	Language string
	Tracks   []caption.Track
}

// Snapshot is everything extraction learns about a video in one pass.
// Manual and Auto keep the upstream listing order, which downstream
// selection relies on when no preference narrows the choice.
type Snapshot struct {
	VideoID          string
	Title            string
	Description      string
	Channel          string
	Thumbnail        string
	Tags             []string
	DeclaredLanguage string
	DurationSec      int
	IsLive           bool
	PlayableInEmbed  bool
	Manual           []TrackList
	Auto             []TrackList
	FetchedAt        time.Time
}

type rawInfo struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Channel         string          `json:"channel"`
	Uploader        string          `json:"uploader"`
	Thumbnail       string          `json:"thumbnail"`
	Tags            []string        `json:"tags"`
	Language        string          `json:"language"`
	Duration        float64         `json:"duration"`
	IsLive          bool            `json:"is_live"`
	PlayableInEmbed bool            `json:"playable_in_embed"`
	Subtitles       json.RawMessage `json:"subtitles"`
	AutoCaptions    json.RawMessage `json:"automatic_captions"`
}

type rawTrack struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// decodeSnapshot deserializes the extractor's JSON dump in a single step;
// any malformed payload fails loudly here rather than surfacing as a
// half-populated snapshot later.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}

	channel := raw.Channel
	if channel == "" {
		channel = raw.Uploader
	}

	manual, err := decodeTrackMap(raw.Subtitles, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode subtitle listing: %w", err)
	}
	auto, err := decodeTrackMap(raw.AutoCaptions, true)
	if err != nil {
		return nil, fmt.Errorf("failed to decode automatic caption listing: %w", err)
	}

	return &Snapshot{
		VideoID:          raw.ID,
		Title:            raw.Title,
		Description:      raw.Description,
		Channel:          channel,
		Thumbnail:        raw.Thumbnail,
		Tags:             raw.Tags,
		DeclaredLanguage: raw.Language,
		DurationSec:      int(raw.Duration),
		IsLive:           raw.IsLive,
		PlayableInEmbed:  raw.PlayableInEmbed,
		Manual:           manual,
		Auto:             auto,
		FetchedAt:        time.Now(),
	}, nil
}

// decodeTrackMap walks a JSON object token by token so the language order
// of the upstream listing survives; encoding/json maps would scramble it.
func decodeTrackMap(data json.RawMessage, auto bool) ([]TrackList, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var lists []TrackList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		lang, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected language key, got %v", keyTok)
		}

		var rawTracks []rawTrack
		if err := dec.Decode(&rawTracks); err != nil {
			return nil, fmt.Errorf("language %q: %w", lang, err)
		}

		// Live chat replays are listed alongside captions but are not
		// caption tracks.
		if lang == "live_chat" {
			continue
		}

		tracks := make([]caption.Track, 0, len(rawTracks))
		for _, rt := range rawTracks {
			if rt.URL == "" {
				continue
			}
			tracks = append(tracks, caption.Track{
				LanguageCode: lang,
				Format:       rt.Ext,
				URL:          rt.URL,
				Auto:         auto,
			})
		}
		if len(tracks) > 0 {
			lists = append(lists, TrackList{Language: lang, Tracks: tracks})
		}
	}
	return lists, nil
}
