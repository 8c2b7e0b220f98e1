package bridge

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ResponseItem is one content block of a command result. Text is the only
// kind a line-oriented device produces.
type ResponseItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text returns a text ResponseItem.
func Text(s string) ResponseItem {
	return ResponseItem{Type: "text", Text: s}
}

// ResponseParser decides when a reply is complete and turns the collected
// lines into response items.
type ResponseParser struct {
	Sentinel  string
	Separator string
}

// Terminal reports whether line ends the reply.
func (p ResponseParser) Terminal(line string) bool {
	return strings.HasPrefix(line, p.Sentinel)
}

// Result builds the response items for a completed reply whose last line
// is the sentinel. Without parsing, every line is kept, sentinel included.
// With parsing, the value after the first separator on the sentinel line
// is the only item.
func (p ResponseParser) Result(lines []string, parse bool) ([]ResponseItem, error) {
	if !parse {
		return []ResponseItem{Text(strings.Join(lines, "\n"))}, nil
	}
	if len(lines) == 0 {
		return nil, &ParseError{Reason: "empty reply"}
	}

	last := lines[len(lines)-1]
	_, value, found := strings.Cut(last, p.Separator)
	if !found {
		return nil, &ParseError{Line: last, Reason: fmt.Sprintf("missing separator %q", p.Separator)}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, &ParseError{Line: last, Reason: "empty value"}
	}
	return []ResponseItem{Text(value)}, nil
}

// lineReader splits bytes from a polling reader into lines. CR and LF both
// terminate a line, so CRLF yields an empty line that callers skip.
type lineReader struct {
	r       io.Reader
	buf     []byte
	pending []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, buf: make([]byte, 256)}
}

// next returns the next complete line. ok is false when the underlying read
// returned without completing one, which happens every poll interval on an
// idle link.
func (lr *lineReader) next() (line string, ok bool, err error) {
	if line, ok := lr.take(); ok {
		return line, true, nil
	}

	n, err := lr.r.Read(lr.buf)
	if n > 0 {
		lr.pending = append(lr.pending, lr.buf[:n]...)
	}
	if err != nil {
		return "", false, err
	}

	line, ok = lr.take()
	return line, ok, nil
}

func (lr *lineReader) take() (string, bool) {
	i := bytes.IndexAny(lr.pending, "\r\n")
	if i < 0 {
		return "", false
	}
	line := strings.ToValidUTF8(string(lr.pending[:i]), "�")
	lr.pending = lr.pending[i+1:]
	return line, true
}
