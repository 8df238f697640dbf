package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	defaultChunkSize = 32 * 1024

	// minDecodeBuffer is the smallest scratch buffer handed to the text
	// decoder. It must fit at least one replacement character.
	minDecodeBuffer = 64
)

// Decoder turns raw byte chunks into Callbacks invocations.
//
// ┌───────────────┐   ┌──────────────┐   ┌────────────────┐   ┌───────────┐
// │ io.ReadCloser │──▶│ text decoder │──▶│ line splitter  │──▶│ Callbacks │
// └───────────────┘   └──────────────┘   └────────────────┘   └───────────┘
// │                                      │
// ▼                                      ▼
// ┌─────────────────┐                    ┌──────────────────┐
// │ tee io.Writer   │                    │ accumulated text │
// └─────────────────┘                    └──────────────────┘
//
// A Decoder holds the state of exactly one stream: the partial line that has
// not yet seen its newline and the text accumulated from data lines. It is not
// safe for concurrent use; concurrent streams each get their own Decoder.
type Decoder struct {
	callbacks Callbacks
	text      *encoding.Decoder
	tee       io.Writer
	teeErr    error
	chunkSize int
	logger    *slog.Logger

	// carry holds trailing bytes of an incomplete multi-byte sequence
	// that the text decoder could not consume yet.
	carry   []byte
	scratch []byte

	buffer      string
	accumulated strings.Builder
	ended       bool
}

// Option configures a Decoder created with NewDecoder.
type Option func(*Decoder)

// WithEncoding sets the character encoding of the byte stream. Defaults to
// UTF-8, where invalid bytes are replaced by U+FFFD.
func WithEncoding(enc encoding.Encoding) Option {
	return func(d *Decoder) {
		if enc != nil {
			d.text = enc.NewDecoder()
		}
	}
}

// WithTee copies every raw chunk to w before it is decoded. Useful for
// recording a stream verbatim.
func WithTee(w io.Writer) Option {
	return func(d *Decoder) {
		d.tee = w
	}
}

// WithChunkSize sets the size of the read buffer used by Decode.
func WithChunkSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecoder returns a Decoder dispatching to callbacks.
func NewDecoder(callbacks Callbacks, opts ...Option) *Decoder {
	d := &Decoder{
		callbacks: callbacks,
		text:      unicode.UTF8.NewDecoder(),
		chunkSize: defaultChunkSize,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.text.Reset()
	return d
}

// Decode reads src chunk by chunk until an end event arrives or src is
// exhausted, and returns the accumulated text.
//
// src is closed exactly once before Decode returns, on every path: end event,
// exhaustion, read error or context cancellation. A read error is returned
// together with whatever text was accumulated before it.
func Decode(ctx context.Context, src io.ReadCloser, callbacks Callbacks, opts ...Option) (string, error) {
	return NewDecoder(callbacks, opts...).Decode(ctx, src)
}

// Decode drives the decoder from src. See the package level Decode.
func (d *Decoder) Decode(ctx context.Context, src io.ReadCloser) (string, error) {
	defer func() {
		if err := src.Close(); err != nil {
			d.logger.Debug("closing stream", "error", err)
		}
	}()

	buf := make([]byte, d.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return d.Text(), err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if d.Feed(buf[:n]) {
				return d.Text(), nil
			}
			if d.teeErr != nil {
				return d.Text(), d.teeErr
			}
		}

		if errors.Is(err, io.EOF) {
			return d.Text(), nil
		}
		if err != nil {
			return d.Text(), fmt.Errorf("reading stream: %w", err)
		}
	}
}

// Feed processes one chunk. It reports true once an end event has been seen;
// after that Feed ignores further input.
//
// Feed lets a caller that owns its own read loop drive the Decoder directly.
func (d *Decoder) Feed(chunk []byte) bool {
	if d.ended {
		return true
	}

	if d.tee != nil && d.teeErr == nil {
		if _, err := d.tee.Write(chunk); err != nil {
			d.teeErr = fmt.Errorf("copying stream: %w", err)
		}
	}

	lines := strings.Split(d.buffer+d.decode(chunk), "\n")

	// The last element never saw its newline; it waits for the next chunk.
	d.buffer = lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	for _, line := range lines {
		if d.handleLine(line, lines) {
			d.ended = true
			return true
		}
	}

	return false
}

// Text returns the concatenation of every data payload seen so far.
func (d *Decoder) Text() string {
	return d.accumulated.String()
}

// Pending returns the partial line waiting for its newline.
func (d *Decoder) Pending() string {
	return d.buffer
}

// handleLine dispatches one complete line. batch is every complete line split
// out of the current chunk. It reports true when the line ends the stream.
func (d *Decoder) handleLine(line string, batch []string) bool {
	switch {
	case strings.HasPrefix(line, DataPrefix):
		payload := line[len(DataPrefix):]
		if d.callbacks.OnChunk != nil {
			d.callbacks.OnChunk(payload)
		}
		d.accumulated.WriteString(payload)

	case strings.HasPrefix(line, EventPrefix):
		switch name := line[len(EventPrefix):]; name {
		case EventDone:
			if d.callbacks.OnDone != nil {
				d.callbacks.OnDone(d.accumulated.String())
			}

		case EventError:
			// The message is looked up only within the current batch, starting
			// from its first line. A message arriving in a later chunk is
			// never matched to this event.
			if msg, ok := firstData(batch); ok && d.callbacks.OnError != nil {
				d.callbacks.OnError(msg)
			}

		case EventEnd:
			if d.callbacks.OnEnd != nil {
				d.callbacks.OnEnd()
			}
			return true

		default:
			d.logger.Debug("ignoring unknown stream event", "event", name)
		}
	}

	return false
}

// firstData returns the payload of the first data line in lines.
func firstData(lines []string) (string, bool) {
	for _, line := range lines {
		if payload, ok := strings.CutPrefix(line, DataPrefix); ok {
			return payload, true
		}
	}
	return "", false
}

// decode converts chunk to text, holding back an incomplete trailing
// multi-byte sequence until the next chunk completes it.
func (d *Decoder) decode(chunk []byte) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}

	if len(d.scratch) < minDecodeBuffer {
		d.scratch = make([]byte, max(minDecodeBuffer, d.chunkSize))
	}

	var out strings.Builder
	for len(src) > 0 {
		nDst, nSrc, err := d.text.Transform(d.scratch, src, false)
		out.Write(d.scratch[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.scratch = make([]byte, 2*len(d.scratch))
			}
		case errors.Is(err, transform.ErrShortSrc):
			d.carry = append([]byte(nil), src...)
			return out.String()
		default:
			// Decoders in x/text replace rather than fail; anything else
			// drops the rest of this chunk.
			d.logger.Debug("decoding stream chunk", "error", err)
			return out.String()
		}
	}

	return out.String()
}
