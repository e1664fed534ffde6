package pagelog

import (
	"context"
	"fmt"

	"github.com/colinclerk/sr/internal/batch"
)

// Segment is a run of events that starts with a segment-start event.
type Segment []batch.Event

// Batches returns every committed batch in append order, byte-for-byte as
// it was passed to Append. A log that was never created has no batches.
func (l *Log) Batches(ctx context.Context) ([][]byte, error) {
	cur, ok, err := l.store.LoadCursor(ctx)
	if err != nil || !ok || len(cur.Boundaries) == 0 {
		return nil, err
	}
	pages, err := l.loadPages(ctx, cur)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(cur.Boundaries))
	start := Boundary{}
	for _, end := range cur.Boundaries {
		b, err := slice(pages, cur.PageSize, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		start = end
	}
	return out, nil
}

// ReadAll decodes every committed batch and groups the events into segments.
// A batch whose first event carries the segment-start marker opens a new
// segment; any other batch extends the current one.
func (l *Log) ReadAll(ctx context.Context) ([]Segment, error) {
	batches, err := l.Batches(ctx)
	if err != nil {
		return nil, err
	}
	var segments []Segment
	for i, raw := range batches {
		events, err := l.decoder.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d: %w", ErrDecode, i, err)
		}
		if len(events) > 0 && events[0].Type == l.opts.SegmentStartMarker {
			segments = append(segments, Segment(events))
			continue
		}
		if len(segments) == 0 {
			return nil, fmt.Errorf("%w: batch %d", ErrNoSegmentStart, i)
		}
		last := len(segments) - 1
		segments[last] = append(segments[last], events...)
	}
	return segments, nil
}

// maxPagePrealloc caps the slice reserved up front; OpenPage comes from
// storage and only pages actually read grow it further.
const maxPagePrealloc = 1024

// loadPages fetches pages 0..OpenPage. Sealed pages must hold exactly
// PageSize bytes; the open page is cut to the fill.
func (l *Log) loadPages(ctx context.Context, c Cursor) ([][]byte, error) {
	pages := make([][]byte, 0, min(c.OpenPage+1, maxPagePrealloc))
	for i := uint64(0); i < c.OpenPage; i++ {
		p, err := l.store.GetPage(ctx, i)
		if err != nil {
			return nil, pageErr(i, err)
		}
		if len(p) != c.PageSize {
			return nil, fmt.Errorf("%w: sealed page %d has %d bytes, want %d", ErrCorrupt, i, len(p), c.PageSize)
		}
		pages = append(pages, p)
	}
	if c.Fill == 0 {
		return append(pages, nil), nil
	}
	p, err := l.store.GetPage(ctx, c.OpenPage)
	if err != nil {
		return nil, pageErr(c.OpenPage, err)
	}
	if len(p) < c.Fill {
		return nil, fmt.Errorf("%w: open page %d has %d bytes, cursor fill is %d", ErrCorrupt, c.OpenPage, len(p), c.Fill)
	}
	return append(pages, p[:c.Fill]), nil
}

// slice copies the bytes between two boundaries.
func slice(pages [][]byte, pageSize int, start, end Boundary) ([]byte, error) {
	if start.Page == end.Page {
		p := pages[start.Page]
		if end.Offset > len(p) || start.Offset > end.Offset {
			return nil, fmt.Errorf("%w: batch [%d:%d] outside page %d of %d bytes", ErrCorrupt, start.Offset, end.Offset, start.Page, len(p))
		}
		return append([]byte(nil), p[start.Offset:end.Offset]...), nil
	}
	if end.Offset > len(pages[end.Page]) {
		return nil, fmt.Errorf("%w: batch ends at %d past page %d of %d bytes", ErrCorrupt, end.Offset, end.Page, len(pages[end.Page]))
	}
	size := (pageSize - start.Offset) + pageSize*int(end.Page-start.Page-1) + end.Offset
	out := make([]byte, 0, size)
	out = append(out, pages[start.Page][start.Offset:]...)
	for i := start.Page + 1; i < end.Page; i++ {
		out = append(out, pages[i]...)
	}
	return append(out, pages[end.Page][:end.Offset]...), nil
}
