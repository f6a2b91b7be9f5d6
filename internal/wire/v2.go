package wire

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// v2 is the current record protocol: one event per line,
//
//	subunit2 KIND NAME [PAYLOAD]
//
// where PAYLOAD is base64. Unknown KIND words decode to extension events and
// re-encode unchanged, which keeps v2 forward compatible.

const v2Magic = "subunit2"

var v2Kinds = map[string]Kind{
	"start":   KindStart,
	"success": KindSuccess,
	"failure": KindFailure,
	"error":   KindError,
	"skip":    KindSkip,
	"output":  KindOutput,
}

// EncodeV2 renders one event as a v2 record.
func EncodeV2(ev Event) ([]byte, error) {
	word := string(ev.Kind)
	if ev.Kind == KindExtension {
		word = ev.Extension
		if word == "" {
			return nil, fmt.Errorf("encode extension event without directive word: %w", ErrUnsupportedKind)
		}
	} else if _, ok := v2Kinds[word]; !ok {
		return nil, fmt.Errorf("encode event kind %q: %w", ev.Kind, ErrUnsupportedKind)
	}

	name := ev.Test
	if name == "" {
		name = "-"
	}
	if strings.ContainsAny(name, " \t\n") {
		if ev.Kind != KindExtension {
			return nil, fmt.Errorf("encode event: test name %q contains whitespace", ev.Test)
		}
		// Extensions keep full fidelity in the payload; the name slot
		// is best effort.
		name = "-"
	}

	var buf bytes.Buffer
	buf.WriteString(v2Magic)
	buf.WriteByte(' ')
	buf.WriteString(word)
	buf.WriteByte(' ')
	buf.WriteString(name)
	if len(ev.Payload) > 0 {
		buf.WriteByte(' ')
		buf.WriteString(base64.StdEncoding.EncodeToString(ev.Payload))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DecodeV2 decodes the first complete record in buf, returning the event and
// the number of bytes consumed. ErrShortInput means more data is needed.
func DecodeV2(buf []byte) (Event, int, error) {
	nl := bytes.IndexByte(buf, '\n')
	if nl < 0 {
		return Event{}, 0, ErrShortInput
	}
	line := string(buf[:nl])
	consumed := nl + 1

	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != v2Magic {
		return Event{}, 0, fmt.Errorf("wire: malformed v2 record %q", line)
	}

	name := fields[2]
	if name == "-" {
		name = ""
	}

	var payload []byte
	if len(fields) >= 4 {
		decoded, err := base64.StdEncoding.DecodeString(fields[3])
		if err != nil {
			return Event{}, 0, fmt.Errorf("wire: malformed v2 payload in %q: %w", line, err)
		}
		payload = decoded
	}

	kind, known := v2Kinds[fields[1]]
	if !known {
		return Event{
			Kind:      KindExtension,
			Extension: fields[1],
			Test:      name,
			Payload:   payload,
		}, consumed, nil
	}
	return Event{Kind: kind, Test: name, Payload: payload}, consumed, nil
}
