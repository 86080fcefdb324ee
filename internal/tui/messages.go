package tui

import "github.com/piyush0609/ai-pulse/internal/service"

// eventMsg carries one pipeline event plus the generation of the stream it
// came from, so events from a superseded stream can be dropped.
type eventMsg struct {
	gen   int
	event service.Event
}

type streamClosedMsg struct {
	gen int
}

type openErrMsg struct {
	err error
}
