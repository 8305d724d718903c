package translate

import (
	"context"
	"net/url"
	"strings"

	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

// maxBatchEncodedLen caps the URL-encoded size of one translation request.
const maxBatchEncodedLen = 5000

// perLineOverhead pads each line's cost to leave room for the encoded
// newline separators and endpoint slack.
const perLineOverhead = 3

// TranslateLines translates a slice of lines, batching them into as few
// requests as the encoded-size cap allows. Lines of a failed batch are
// passed through untranslated; the result always has len(lines) entries.
func (c *Client) TranslateLines(ctx context.Context, lines []string, source, target string) []string {
	if len(lines) == 0 {
		return nil
	}

	out := make([]string, 0, len(lines))
	batch := make([]string, 0, len(lines))
	batchCost := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		out = append(out, c.translateBatch(ctx, batch, source, target)...)
		batch = batch[:0]
		batchCost = 0
	}

	for _, line := range lines {
		cost := len(url.QueryEscape(line)) + perLineOverhead
		if batchCost+cost > maxBatchEncodedLen && len(batch) > 0 {
			flush()
		}
		batch = append(batch, line)
		batchCost += cost
	}
	flush()

	return out
}

// translateBatch sends one newline-joined batch and splits the result back
// into per-line entries. Missing trailing lines are backfilled with the
// source text; a failed request passes the whole batch through unchanged.
func (c *Client) translateBatch(ctx context.Context, batch []string, source, target string) []string {
	translated, err := c.Translate(ctx, strings.Join(batch, "\n"), source, target)
	if err != nil {
		log.Warn("Translation batch of %d lines failed, passing through: %v", len(batch), err)
		return append([]string(nil), batch...)
	}

	parts := strings.Split(translated, "\n")
	out := make([]string, len(batch))
	for i := range batch {
		if i < len(parts) && strings.TrimSpace(parts[i]) != "" {
			out[i] = strings.TrimSpace(parts[i])
		} else {
			out[i] = batch[i]
		}
	}
	return out
}
