package service

import (
	"strings"

	"github.com/shasu1pm/VoxText-AI/internal/caption"
	"github.com/shasu1pm/VoxText-AI/internal/langid"
	"github.com/shasu1pm/VoxText-AI/internal/ytdlp"
)

// langAliases maps requested codes to the differently-coded tracks upstream
// actually offers for them. Keys are lowercase.
var langAliases = map[string]string{
	"zh":    "zh-Hans",
	"zh-cn": "zh-Hans",
	"zh-tw": "zh-Hant",
	"pt-br": "pt",
}

// selectTrack resolves the best caption track for an optional requested
// language code. Manual tracks win over auto tracks at every step.
func selectTrack(snap *ytdlp.Snapshot, requested string) (caption.Track, error) {
	if len(snap.Manual) == 0 && len(snap.Auto) == 0 {
		return caption.Track{}, newError(ReasonNoCaptions, "no captions available for %s", snap.VideoID)
	}

	if requested == "" {
		if len(snap.Manual) > 0 {
			return pickFormat(snap.Manual[0].Tracks), nil
		}
		if track, ok := originalASRTrack(snap); ok {
			return track, nil
		}
		return pickFormat(snap.Auto[0].Tracks), nil
	}

	want := strings.ToLower(requested)

	// Exact case-insensitive match.
	if track, ok := matchLanguage(snap, func(lang string) bool {
		return strings.ToLower(lang) == want
	}); ok {
		return track, nil
	}

	// Known alias: a requested regional code mapped to upstream's coding.
	if alias, ok := langAliases[want]; ok {
		aliasLower := strings.ToLower(alias)
		if track, ok := matchLanguage(snap, func(lang string) bool {
			return strings.ToLower(lang) == aliasLower
		}); ok {
			return track, nil
		}
	}

	// Base-language match: request "en-US" finds an available "en".
	base := langid.BaseCode(want)
	if track, ok := matchLanguage(snap, func(lang string) bool {
		return langid.BaseCode(lang) == base
	}); ok {
		return track, nil
	}

	return caption.Track{}, newError(ReasonNoCaptionsForLanguage,
		"no captions in language %q for %s", requested, snap.VideoID)
}

// matchLanguage scans manual lists then auto lists, returning the preferred
// format variant of the first language the predicate accepts.
func matchLanguage(snap *ytdlp.Snapshot, match func(lang string) bool) (caption.Track, bool) {
	for _, lists := range [][]ytdlp.TrackList{snap.Manual, snap.Auto} {
		for _, l := range lists {
			if match(l.Language) {
				return pickFormat(l.Tracks), true
			}
		}
	}
	return caption.Track{}, false
}

// originalASRTrack finds the auto track carrying the speech recognizer's own
// language, identified by URL shape rather than by trusting the listed code.
func originalASRTrack(snap *ytdlp.Snapshot) (caption.Track, bool) {
	for _, l := range snap.Auto {
		for _, track := range l.Tracks {
			if track.IsOriginalASR() {
				return pickFormat(l.Tracks), true
			}
		}
	}
	return caption.Track{}, false
}

// pickFormat prefers the structured json3 variant, then vtt, then whatever
// is listed first.
func pickFormat(tracks []caption.Track) caption.Track {
	for _, format := range []string{"json3", "vtt"} {
		for _, t := range tracks {
			if t.Format == format {
				return t
			}
		}
	}
	return tracks[0]
}
