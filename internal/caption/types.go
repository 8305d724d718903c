package caption

import "strings"

// Origin describes how a caption stream was produced.
type Origin string

const (
	OriginManual         Origin = "manual"
	OriginAuto           Origin = "auto"
	OriginAutoTranslated Origin = "auto-translated"
)

// Segment is a single timed caption line. Text never contains embedded
// newlines; EndMs is always >= StartMs.
type Segment struct {
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
	Text    string `json:"text"`
}

// Track is one upstream-offered caption stream variant.
type Track struct {
	LanguageCode string
	Format       string // "json3", "vtt", or whatever the upstream reports
	URL          string
	Auto         bool // true for ASR-generated tracks
}

// IsTranslation reports whether the delivery URL requests on-the-fly
// translation into a language different from the spoken original.
func (t Track) IsTranslation() bool {
	return strings.Contains(t.URL, "tlang=")
}

// IsOriginalASR reports whether this track is the untranslated output of
// YouTube's speech recognition. Detected from the delivery URL shape
// (kind=asr present, no tlang parameter), which is undocumented upstream
// behavior and may change.
func (t Track) IsOriginalASR() bool {
	return strings.Contains(t.URL, "kind=asr") && !t.IsTranslation()
}

// Result is the final answer to a caption request. Segments is never empty
// on success.
type Result struct {
	LanguageCode string    `json:"language"`
	LanguageName string    `json:"languageName"`
	Segments     []Segment `json:"segments"`
	Origin       Origin    `json:"type"`
}
