package transcription

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/voicegate/provider"
)

// Collect consumes segs once, building the segment list and the full text in
// the same pass, and closes it. Segment text is trimmed; the full text is the
// non-empty trimmed segments joined by single spaces.
func Collect(ctx context.Context, info Info, segs provider.Iterator[Segment]) (res *Result, err error) {
	defer func() {
		if cerr := segs.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close segment stream: %w", cerr)
		}
	}()

	res = &Result{
		Language:            info.Language,
		LanguageProbability: info.LanguageProbability,
		Duration:            info.Duration,
		Segments:            []Segment{},
	}
	var text strings.Builder
	for {
		seg, ok, err := segs.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("read segment %d: %w", len(res.Segments), err)
		}
		if !ok {
			break
		}
		seg.Text = strings.TrimSpace(seg.Text)
		res.Segments = append(res.Segments, seg)
		if seg.Text == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(seg.Text)
	}
	res.Text = text.String()
	return res, nil
}
