package caption

import (
	"encoding/json"
	"strconv"
	"strings"
)

// json3 payload shape: a record with a list of timed events, each carrying
// a start offset, a duration, and one or more utf8 text fragments.
type json3Payload struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int        `json:"tStartMs"`
	DurationMs int        `json:"dDurMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// Parse converts a raw timed-text payload into normalized segments.
// Structured json3 parsing is attempted first; on shape mismatch the
// payload is re-read as a VTT cue sheet. An empty slice (not an error)
// means "nothing extractable" and callers treat it as a signal to try
// the next fallback tier.
func Parse(raw string) []Segment {
	if segments, ok := parseJSON3(raw); ok {
		return segments
	}
	return parseVTT(raw)
}

func parseJSON3(raw string) ([]Segment, bool) {
	var payload json3Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false
	}
	if payload.Events == nil {
		return nil, false
	}

	segments := make([]Segment, 0, len(payload.Events))
	for _, event := range payload.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		text = strings.ReplaceAll(text, "\n", " ")
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			StartMs: event.StartMs,
			EndMs:   event.StartMs + event.DurationMs,
			Text:    text,
		})
	}
	return segments, true
}

func parseVTT(raw string) []Segment {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	segments := make([]Segment, 0)

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, "-->") {
			i++
			continue
		}

		parts := strings.SplitN(line, "-->", 2)
		startStr := strings.TrimSpace(parts[0])
		// cue settings may follow the end timestamp; a truncated line may
		// carry nothing at all after the marker
		endStr := ""
		if fields := strings.Fields(parts[1]); len(fields) > 0 {
			endStr = fields[0]
		}

		startMs := timestampToMs(startStr)
		endMs := timestampToMs(endStr)

		textLines := make([]string, 0, 2)
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			textLines = append(textLines, strings.TrimSpace(lines[i]))
			i++
		}
		if text := strings.Join(textLines, " "); text != "" {
			segments = append(segments, Segment{
				StartMs: startMs,
				EndMs:   endMs,
				Text:    text,
			})
		}
		i++
	}
	return segments
}

// timestampToMs converts "H:MM:SS.mmm" or "MM:SS.mmm" (comma or period as
// the fractional separator) to milliseconds. A short fractional part is
// right-padded with zeros, a long one truncated to three digits.
func timestampToMs(ts string) int {
	ts = strings.ReplaceAll(ts, ",", ".")
	parts := strings.Split(ts, ":")

	var h, m, rest string
	switch len(parts) {
	case 3:
		h, m, rest = parts[0], parts[1], parts[2]
	case 2:
		h, m, rest = "0", parts[0], parts[1]
	default:
		return 0
	}

	sec := rest
	frac := "0"
	if idx := strings.Index(rest, "."); idx >= 0 {
		sec = rest[:idx]
		if idx+1 < len(rest) {
			frac = rest[idx+1:]
		}
	}
	for len(frac) < 3 {
		frac += "0"
	}
	frac = frac[:3]

	hv, _ := strconv.Atoi(h)
	mv, _ := strconv.Atoi(m)
	sv, _ := strconv.Atoi(sec)
	fv, _ := strconv.Atoi(frac)

	return (hv*3600+mv*60+sv)*1000 + fv
}
