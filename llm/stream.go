package llm

import (
	"context"
	"io"
	"strings"
)

// sseDone is the sentinel frame that terminates an SSE stream. It is
// checked before any JSON parsing is attempted.
const sseDone = "[DONE]"

// decodeLines is the shared streaming decode loop. It reads raw bytes from
// body, appends them to a line buffer, splits on newline, and retains any
// trailing partial line in the buffer. Each complete line is passed to
// handle; handle returns false to terminate the loop early.
//
// A trailing unterminated line at EOF is flushed to handle as well.
func decodeLines(ctx context.Context, body io.Reader, handle func(line string) bool) error {
	var pending strings.Builder
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := body.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			text := pending.String()
			pending.Reset()

			for {
				idx := strings.IndexByte(text, '\n')
				if idx < 0 {
					// Partial line, keep for the next read.
					pending.WriteString(text)
					break
				}
				line := strings.TrimSuffix(text[:idx], "\r")
				text = text[idx+1:]
				if !handle(line) {
					return nil
				}
			}
		}

		if err == io.EOF {
			if rest := pending.String(); rest != "" {
				handle(rest)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// decodeSSE runs decodeLines over a server-sent-event body and hands each
// data payload to handle. Blank lines, comments, `event:` lines and any
// other non-data noise are silently skipped (backends interleave keep-alive
// lines). The literal [DONE] sentinel terminates the stream. handle returns
// false to terminate early, e.g. on a backend-specific stop frame.
func decodeSSE(ctx context.Context, body io.Reader, handle func(data string) bool) error {
	return decodeLines(ctx, body, func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			return true
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == sseDone {
			return false
		}
		return handle(data)
	})
}

// decodeNDJSON runs decodeLines over a newline-delimited JSON body and
// hands each non-blank line to handle. handle returns false to stop, e.g.
// when the backend's `done` flag is set.
func decodeNDJSON(ctx context.Context, body io.Reader, handle func(line string) bool) error {
	return decodeLines(ctx, body, func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" {
			return true
		}
		return handle(line)
	})
}
