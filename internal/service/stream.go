package service

import (
	"context"
	"encoding/json"

	"github.com/piyush0609/ai-pulse/internal/digest"
)

// EventType identifies one progress notification in the incremental
// delivery mode.
type EventType string

const (
	EventFeedsFetching EventType = "feeds_fetching"
	EventFeedsDone     EventType = "feeds_done"
	EventSynthesizing  EventType = "synthesizing"
	EventSynthesized   EventType = "synthesized"
	EventCached        EventType = "cached"
	EventDigest        EventType = "digest"
	EventDone          EventType = "done"
	EventError         EventType = "error"
)

// Event is one notification. Progress events strictly precede the digest
// payload; the done marker is always last on a successful stream.
type Event struct {
	Type           EventType       `json:"type"`
	ItemCount      int             `json:"itemCount,omitempty"`
	ThemeCount     int             `json:"themeCount,omitempty"`
	HighlightCount int             `json:"highlightCount,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Stream runs the delivery pipeline and emits ordered progress events on
// the returned channel, which is closed when the stream ends. If the
// consumer goes away mid-stream, in-flight work still completes the cache
// write, but nothing more is emitted to the dead channel.
func (s *Service) Stream(ctx context.Context, forceFresh bool) <-chan Event {
	events := make(chan Event, 8)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !forceFresh {
			if data := s.lookupCache(ctx); data != nil {
				if !emit(Event{Type: EventCached}) {
					return
				}
				if !emit(Event{Type: EventDigest, Payload: data}) {
					return
				}
				emit(Event{Type: EventDone})
				return
			}
		}

		if !emit(Event{Type: EventFeedsFetching}) {
			return
		}

		items, err := s.feeds.FetchAll(ctx)
		if err != nil {
			s.logger.Error("digest generation failed", "error", err)
			emit(Event{Type: EventError, Error: "failed to generate digest"})
			return
		}
		if !emit(Event{Type: EventFeedsDone, ItemCount: len(items)}) {
			return
		}

		if !emit(Event{Type: EventSynthesizing}) {
			return
		}
		d, _ := s.synthesize(ctx, items)

		data, err := json.Marshal(digest.NewPayload(d, items))
		if err != nil {
			s.logger.Error("digest serialization failed", "error", err)
			emit(Event{Type: EventError, Error: "failed to generate digest"})
			return
		}

		// The cache write survives a consumer disconnect: a dropped stream
		// must not lose the computed digest.
		s.persist(context.WithoutCancel(ctx), d.ID, data)

		if !emit(Event{Type: EventSynthesized, ThemeCount: len(d.Themes), HighlightCount: len(d.Highlights)}) {
			return
		}
		if !emit(Event{Type: EventDigest, Payload: data}) {
			return
		}
		emit(Event{Type: EventDone})
	}()

	return events
}
