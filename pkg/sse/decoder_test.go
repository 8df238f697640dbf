package sse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/text/encoding/charmap"
)

// chunkReader yields one chunk per Read and counts how often it is closed.
type chunkReader struct {
	chunks [][]byte
	err    error
	reads  int
	closes int
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	r.reads++
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closes++
	return nil
}

// recorder captures every callback as a line of text so whole event sequences
// can be compared.
type recorder struct {
	events []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnChunk: func(text string) { r.events = append(r.events, "chunk:"+text) },
		OnDone:  func(full string) { r.events = append(r.events, "done:"+full) },
		OnError: func(msg string) { r.events = append(r.events, "error:"+msg) },
		OnEnd:   func() { r.events = append(r.events, "end") },
	}
}

// splitAt cuts s into chunks at the given byte offsets.
func splitAt(s string, offsets ...int) []string {
	var chunks []string
	prev := 0
	for _, off := range offsets {
		chunks = append(chunks, s[prev:off])
		prev = off
	}
	return append(chunks, s[prev:])
}

var _ = Describe("Decoder", func() {
	var (
		ctx context.Context
		rec *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		rec = &recorder{}
	})

	Describe("Decode", func() {
		It("emits chunks in order and returns the joined text on end", func() {
			src := newChunkReader("data: Hello\n", "data: World\nevent: end\n")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("HelloWorld"))
			Expect(rec.events).To(Equal([]string{"chunk:Hello", "chunk:World", "end"}))
		})

		It("calls OnChunk once per data line before a single OnEnd", func() {
			var stream strings.Builder
			var want []string
			for i := range 25 {
				fmt.Fprintf(&stream, "data: part-%d\n", i)
				want = append(want, fmt.Sprintf("chunk:part-%d", i))
			}
			stream.WriteString("event: end\n")
			want = append(want, "end")

			text, err := Decode(ctx, newChunkReader(stream.String()), rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.events).To(Equal(want))
			Expect(text).To(HavePrefix("part-0part-1"))
			Expect(text).To(HaveSuffix("part-24"))
		})

		It("returns the accumulated text when the stream is exhausted without end", func() {
			src := newChunkReader("data: partial \n", "data: answer\n", "data: never terminated")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("partial answer"))
			Expect(rec.events).To(Equal([]string{"chunk:partial ", "chunk:answer"}))
		})

		It("returns an empty string for an empty stream", func() {
			text, err := Decode(ctx, newChunkReader(), rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())
			Expect(rec.events).To(BeEmpty())
		})

		It("stops reading at the end event", func() {
			src := newChunkReader("data: a\nevent: end\ndata: ignored\n", "data: unread\n")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("a"))
			Expect(src.reads).To(Equal(1))
			Expect(rec.events).To(Equal([]string{"chunk:a", "end"}))
		})

		It("reports done with the text so far and keeps reading", func() {
			src := newChunkReader("data: one\ndata: two\nevent: done\n", "data: three\nevent: end\n")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("onetwothree"))
			Expect(rec.events).To(Equal([]string{
				"chunk:one", "chunk:two", "done:onetwo", "chunk:three", "end",
			}))
		})

		It("treats the data line after a done event as an ordinary chunk", func() {
			src := newChunkReader("data: hi\n\n", "event: done\ndata: hi\n\nevent: end\ndata: \n\n")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("hihi"))
			Expect(rec.events).To(Equal([]string{"chunk:hi", "done:hi", "chunk:hi", "end"}))
		})

		It("ignores unknown events and lines without a known prefix", func() {
			src := newChunkReader(
				": comment\nid: 7\nretry: 100\nevent: ping\ndata:no-space\nevent:end\n\n",
				"data: kept\nevent: end\n",
			)

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("kept"))
			Expect(rec.events).To(Equal([]string{"chunk:kept", "end"}))
		})

		It("keeps a trailing carriage return as part of the payload", func() {
			text, err := Decode(ctx, newChunkReader("data: crlf\r\nevent: end\n"), rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("crlf\r"))
		})

		It("works with no callbacks registered", func() {
			src := newChunkReader("data: a\nevent: done\nevent: error\ndata: b\nevent: end\n")

			text, err := Decode(ctx, src, Callbacks{})
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("ab"))
		})
	})

	Describe("error events", func() {
		It("reports the data line that follows in the same chunk", func() {
			src := newChunkReader("event: error\ndata: chat failed: boom\n\n")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.events).To(Equal([]string{"error:chat failed: boom", "chunk:chat failed: boom"}))
			Expect(text).To(Equal("chat failed: boom"))
		})

		It("does not look for the message in later chunks", func() {
			src := newChunkReader("event: error\n", "data: too late\n")

			_, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.events).To(Equal([]string{"chunk:too late"}))
		})

		It("uses the first data line of the batch even if it precedes the event", func() {
			src := newChunkReader("data: first\nevent: error\ndata: boom\n")

			_, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.events).To(Equal([]string{"chunk:first", "error:first", "chunk:boom"}))
		})

		It("does not fail the decode", func() {
			src := newChunkReader("event: error\ndata: boom\nevent: end\n")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("boom"))
			Expect(rec.events).To(ContainElement("end"))
		})
	})

	Describe("chunk boundaries", func() {
		const stream = "data: héllo\n" +
			"data: 世界\n" +
			"data: 🎉 done\n" +
			"event: done\n" +
			"\n" +
			"data: tail\n" +
			"event: end\n"

		var want []string

		BeforeEach(func() {
			baseline := &recorder{}
			_, err := Decode(ctx, newChunkReader(stream), baseline.callbacks())
			Expect(err).NotTo(HaveOccurred())
			want = baseline.events
			Expect(want).To(HaveLen(6))
		})

		It("produces the same events for every two-way split", func() {
			for i := 1; i < len(stream); i++ {
				got := &recorder{}
				text, err := Decode(ctx, newChunkReader(splitAt(stream, i)...), got.callbacks())
				Expect(err).NotTo(HaveOccurred())
				Expect(got.events).To(Equal(want), "split at byte %d", i)
				Expect(text).To(Equal("héllo世界🎉 donetail"))
			}
		})

		It("produces the same events when fed one byte at a time", func() {
			var chunks []string
			for i := range len(stream) {
				chunks = append(chunks, stream[i:i+1])
			}

			got := &recorder{}
			text, err := Decode(ctx, newChunkReader(chunks...), got.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(got.events).To(Equal(want))
			Expect(text).To(Equal("héllo世界🎉 donetail"))
		})

		It("produces the same events with a tiny read buffer", func() {
			got := &recorder{}
			_, err := Decode(ctx, io.NopCloser(strings.NewReader(stream)), got.callbacks(), WithChunkSize(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(got.events).To(Equal(want))
		})

		It("holds a split multi-byte character until it completes", func() {
			d := NewDecoder(rec.callbacks())
			snowman := []byte("☃")

			Expect(d.Feed(append([]byte("data: "), snowman[:1]...))).To(BeFalse())
			Expect(d.Pending()).To(Equal("data: "))

			Expect(d.Feed(snowman[1:])).To(BeFalse())
			Expect(d.Pending()).To(Equal("data: ☃"))

			Expect(d.Feed([]byte("\n"))).To(BeFalse())
			Expect(d.Text()).To(Equal("☃"))
			Expect(d.Pending()).To(BeEmpty())
		})
	})

	Describe("text decoding", func() {
		It("replaces invalid UTF-8 with the replacement character", func() {
			text, err := Decode(ctx, newChunkReader("data: a\xffb\nevent: end\n"), rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("a�b"))
		})

		It("decodes other encodings", func() {
			src := newChunkReader("data: caf\xe9\nevent: end\n")

			text, err := Decode(ctx, src, rec.callbacks(), WithEncoding(charmap.ISO8859_1))
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("café"))
		})
	})

	Describe("Feed", func() {
		It("ignores input after the end event", func() {
			d := NewDecoder(rec.callbacks())
			Expect(d.Feed([]byte("data: x\nevent: end\n"))).To(BeTrue())
			Expect(d.Feed([]byte("data: y\n"))).To(BeTrue())
			Expect(d.Text()).To(Equal("x"))
			Expect(rec.events).To(Equal([]string{"chunk:x", "end"}))
		})
	})

	Describe("resource release", func() {
		It("closes the source once after an end event", func() {
			src := newChunkReader("data: a\nevent: end\n", "data: b\n")
			_, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(src.closes).To(Equal(1))
		})

		It("closes the source once after exhaustion", func() {
			src := newChunkReader("data: a\n")
			_, err := Decode(ctx, src, rec.callbacks())
			Expect(err).NotTo(HaveOccurred())
			Expect(src.closes).To(Equal(1))
		})

		It("closes the source once and keeps partial text on a read error", func() {
			src := newChunkReader("data: before\n")
			src.err = errors.New("connection reset")

			text, err := Decode(ctx, src, rec.callbacks())
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			Expect(text).To(Equal("before"))
			Expect(src.closes).To(Equal(1))
		})

		It("closes the source once when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			src := newChunkReader("data: a\n")
			_, err := Decode(cctx, src, rec.callbacks())
			Expect(err).To(MatchError(context.Canceled))
			Expect(src.closes).To(Equal(1))
			Expect(rec.events).To(BeEmpty())
		})
	})

	Describe("tee", func() {
		It("copies the raw bytes verbatim", func() {
			input := []string{"data: caf", "\xc3\xa9\n: keep-alive\n", "event: end\ndata: after\n"}
			dst := &bytes.Buffer{}

			_, err := Decode(ctx, newChunkReader(input...), rec.callbacks(), WithTee(dst))
			Expect(err).NotTo(HaveOccurred())
			Expect(dst.String()).To(Equal(strings.Join(input, "")))
		})

		It("fails the decode when the tee cannot be written", func() {
			src := newChunkReader("data: a\n", "data: b\n")

			text, err := Decode(ctx, src, rec.callbacks(), WithTee(failingWriter{}))
			Expect(err).To(MatchError(ContainSubstring("copying stream")))
			Expect(text).To(Equal("a"))
			Expect(src.closes).To(Equal(1))
		})
	})
})

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
