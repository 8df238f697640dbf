// Package sse decodes the simplified Server-Sent Events stream produced by the
// langchat backend's /chat/stream endpoint.
//
// The wire format is a sequence of newline delimited lines. Each line is one of:
//
//	data: <payload>     a fragment of the assistant's answer
//	event: <name>       a marker naming what happened (done, error, end)
//	<anything else>     ignored, including blank lines
//
// Unlike full SSE there are no "id:" or "retry:" fields and consecutive data
// lines are never folded into one event: every data line is delivered on its
// own, in arrival order.
//
// See the SSE specification for the format this is derived from:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

const (
	// DataPrefix starts a line carrying one payload fragment.
	DataPrefix = "data: "

	// EventPrefix starts a line naming an event type.
	EventPrefix = "event: "
)

// Event names understood by the Decoder. Any other name is ignored.
const (
	// EventDone reports that the backend finished generating. The stream may
	// still carry more lines after it.
	EventDone = "done"

	// EventError reports a backend failure. Its message travels on a data line.
	EventError = "error"

	// EventEnd terminates the stream. Nothing after it is read.
	EventEnd = "end"
)

// Callbacks is the set of handlers a Decoder dispatches to. Every handler is
// optional: a nil handler means that event type is ignored.
//
// Handlers run synchronously on the decoding goroutine, in the order lines are
// parsed. The decoder does not depend on anything they do.
type Callbacks struct {
	// OnChunk receives the payload of every data line.
	OnChunk func(text string)

	// OnDone receives the text accumulated so far when a done event arrives.
	OnDone func(fullText string)

	// OnError receives the error message that accompanies an error event.
	OnError func(message string)

	// OnEnd is called once when an end event terminates the stream.
	OnEnd func()
}
