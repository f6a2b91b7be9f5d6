package wire

import (
	"bytes"
	"fmt"
	"strings"
)

// v1 is the legacy directive protocol. Records look like:
//
//	test: NAME
//	success: NAME
//	failure: NAME [
//	  ...payload lines...
//	]
//
// Lines that are not directives are output chunks belonging to the case open
// at that point in the stream.

var v1Kinds = map[string]Kind{
	"test":    KindStart,
	"success": KindSuccess,
	"failure": KindFailure,
	"error":   KindError,
	"skip":    KindSkip,
}

var v1Words = map[Kind]string{
	KindStart:   "test",
	KindSuccess: "success",
	KindFailure: "failure",
	KindError:   "error",
	KindSkip:    "skip",
}

// EncodeV1 renders one event as v1 bytes. Extension events have no v1
// representation and return ErrUnsupportedKind.
func EncodeV1(ev Event) ([]byte, error) {
	switch ev.Kind {
	case KindOutput:
		text := strings.TrimSuffix(string(ev.Payload), "\n")
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if directiveShaped(line) {
				lines[i] = " " + line
			}
		}
		return []byte(strings.Join(lines, "\n") + "\n"), nil
	case KindExtension:
		return nil, fmt.Errorf("encode %q event: %w", ev.Extension, ErrUnsupportedKind)
	}

	word, ok := v1Words[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("encode event kind %q: %w", ev.Kind, ErrUnsupportedKind)
	}
	if len(ev.Payload) == 0 {
		return []byte(fmt.Sprintf("%s: %s\n", word, ev.Test)), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s [\n", word, ev.Test)
	buf.Write(escapePayload(ev.Payload))
	buf.WriteString("\n]\n")
	return buf.Bytes(), nil
}

// DecodeV1 decodes the first complete event in buf, returning the event and
// the number of bytes consumed. ErrShortInput means buf does not yet hold a
// complete record; callers should append more data and retry. Output chunks
// decode with an empty Test; the stream decoder attributes them to the case
// open at that point.
func DecodeV1(buf []byte) (Event, int, error) {
	nl := bytes.IndexByte(buf, '\n')
	if nl < 0 {
		return Event{}, 0, ErrShortInput
	}
	line := string(buf[:nl])
	consumed := nl + 1

	word, rest, ok := splitDirective(line)
	if !ok {
		if strings.HasPrefix(line, " ") && directiveShaped(line[1:]) {
			line = line[1:]
		}
		return Event{Kind: KindOutput, Payload: []byte(line)}, consumed, nil
	}

	kind, known := v1Kinds[word]
	if !known {
		// Unknown directive: surface as an opaque extension carrying
		// the raw line so converters can pass it through or drop it.
		return Event{
			Kind:      KindExtension,
			Extension: word,
			Test:      rest,
			Payload:   []byte(line),
		}, consumed, nil
	}

	if !strings.HasSuffix(rest, " [") {
		return Event{Kind: kind, Test: rest}, consumed, nil
	}

	name := strings.TrimSuffix(rest, " [")
	body := buf[consumed:]
	if bytes.HasPrefix(body, []byte("]\n")) {
		return Event{Kind: kind, Test: name, Payload: []byte{}}, consumed + 2, nil
	}
	end := bytes.Index(body, []byte("\n]\n"))
	if end < 0 {
		return Event{}, 0, ErrShortInput
	}
	return Event{Kind: kind, Test: name, Payload: unescapePayload(body[:end])}, consumed + end + 3, nil
}

// Payload lines and output chunks share the line space with the protocol's
// own framing: a payload line of "]" would close the bracket early, and an
// output chunk shaped like a directive would decode as one. Encode protects
// such lines with one leading space and decode strips it, so any event
// sequence survives an encode/decode round trip intact.

func escapePayload(p []byte) []byte {
	lines := strings.Split(string(p), "\n")
	for i, line := range lines {
		if strings.TrimLeft(line, " ") == "]" {
			lines[i] = " " + line
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

func unescapePayload(p []byte) []byte {
	lines := strings.Split(string(p), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, " ") && strings.TrimLeft(line, " ") == "]" {
			lines[i] = line[1:]
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

// directiveShaped reports whether the line, modulo leading spaces, would
// parse as a directive. The escape rule must cover the whole class or
// escaped lines could not round-trip themselves.
func directiveShaped(line string) bool {
	_, _, ok := splitDirective(strings.TrimLeft(line, " "))
	return ok
}

// splitDirective splits "word: rest" lines, requiring an identifier-shaped
// directive word so that arbitrary output text is not misread.
func splitDirective(line string) (word, rest string, ok bool) {
	idx := strings.Index(line, ": ")
	if idx <= 0 {
		return "", "", false
	}
	word = line[:idx]
	for _, r := range word {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return "", "", false
		}
	}
	return word, line[idx+2:], true
}
