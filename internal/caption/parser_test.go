package caption

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_JSON3(t *testing.T) {
	raw := `{"events":[
		{"tStartMs":0,"dDurMs":1500,"segs":[{"utf8":"hello "},{"utf8":"world"}]},
		{"tStartMs":1500,"dDurMs":2000,"segs":[{"utf8":"line\nbreak"}]},
		{"tStartMs":3500,"dDurMs":1000,"segs":[{"utf8":"  "}]},
		{"tStartMs":4500,"dDurMs":1000}
	]}`

	segments := Parse(raw)
	require.Len(t, segments, 2)
	require.Equal(t, Segment{StartMs: 0, EndMs: 1500, Text: "hello world"}, segments[0])
	require.Equal(t, Segment{StartMs: 1500, EndMs: 3500, Text: "line break"}, segments[1])
}

func TestParse_JSON3_SortedNonEmptySingleLine(t *testing.T) {
	raw := `{"events":[
		{"tStartMs":100,"dDurMs":400,"segs":[{"utf8":"a\nb\nc"}]},
		{"tStartMs":500,"dDurMs":400,"segs":[{"utf8":"d"}]},
		{"tStartMs":900,"dDurMs":400,"segs":[{"utf8":"e"}]}
	]}`

	segments := Parse(raw)
	require.Len(t, segments, 3)
	for i, seg := range segments {
		require.NotEmpty(t, seg.Text)
		require.NotContains(t, seg.Text, "\n")
		require.GreaterOrEqual(t, seg.EndMs, seg.StartMs)
		if i > 0 {
			require.GreaterOrEqual(t, seg.StartMs, segments[i-1].StartMs)
		}
	}
}

func TestParse_VTTFallback(t *testing.T) {
	raw := `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:02.500
first line
continued

00:01:02.500 --> 00:01:04.000 align:start position:0%
second cue
`

	segments := Parse(raw)
	require.Len(t, segments, 2)
	require.Equal(t, Segment{StartMs: 1000, EndMs: 2500, Text: "first line continued"}, segments[0])
	require.Equal(t, Segment{StartMs: 62500, EndMs: 64000, Text: "second cue"}, segments[1])
}

func TestParse_VTTTruncatedCueLine(t *testing.T) {
	// A cue line cut off right after the marker must not blow up; the cue
	// is kept with a zero end offset.
	raw := "not json\n00:00:01.000 -->\nsome text\n"

	segments := Parse(raw)
	require.Len(t, segments, 1)
	require.Equal(t, Segment{StartMs: 1000, EndMs: 0, Text: "some text"}, segments[0])
}

func TestParse_Unparseable(t *testing.T) {
	require.Empty(t, Parse("not a caption payload"))
	require.Empty(t, Parse(""))
	require.Empty(t, Parse(`{"something":"else"}`))
}

func TestTimestampToMs(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:01:02.500", 62500},
		{"1:02.5", 62500},
		{"00:01:02,500", 62500},
		{"01:02.5678", 62567},
		{"02:03", 123000},
		{"1:00:00.000", 3600000},
		{"garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, timestampToMs(tt.in))
		})
	}
}

func TestTrack_OriginalASRDetection(t *testing.T) {
	asr := Track{URL: "https://example.test/api/timedtext?v=abc&kind=asr&lang=hi", Auto: true}
	translated := Track{URL: "https://example.test/api/timedtext?v=abc&kind=asr&lang=hi&tlang=en", Auto: true}
	manual := Track{URL: "https://example.test/api/timedtext?v=abc&lang=en"}

	require.True(t, asr.IsOriginalASR())
	require.False(t, asr.IsTranslation())
	require.True(t, translated.IsTranslation())
	require.False(t, translated.IsOriginalASR())
	require.False(t, manual.IsOriginalASR())
}
