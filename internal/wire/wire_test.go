package wire

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, v Version, data []byte) []Event {
	t.Helper()
	dec := NewDecoder(v, bytes.NewReader(data))
	var events []Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func encodeAll(t *testing.T, v Version, events []Event) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(v, &buf)
	for _, ev := range events {
		require.NoError(t, enc.Encode(ev))
	}
	return buf.Bytes()
}

func TestV1RoundTrip(t *testing.T) {
	events := []Event{
		{Kind: KindStart, Test: "pkg.TestAlpha"},
		{Kind: KindOutput, Test: "pkg.TestAlpha", Payload: []byte("setting up fixtures")},
		{Kind: KindSuccess, Test: "pkg.TestAlpha"},
		{Kind: KindStart, Test: "pkg.TestBeta"},
		{Kind: KindFailure, Test: "pkg.TestBeta", Payload: []byte("assert 1==2")},
		{Kind: KindStart, Test: "pkg.TestGamma"},
		{Kind: KindSkip, Test: "pkg.TestGamma", Payload: []byte("requires network")},
	}

	data := encodeAll(t, V1, events)
	assert.Equal(t, events, decodeAll(t, V1, data))
}

func TestV2RoundTrip(t *testing.T) {
	events := []Event{
		{Kind: KindStart, Test: "pkg.TestAlpha"},
		{Kind: KindOutput, Test: "pkg.TestAlpha", Payload: []byte("line one\nline two")},
		{Kind: KindSuccess, Test: "pkg.TestAlpha"},
		{Kind: KindExtension, Extension: "tags", Test: "pkg.TestBeta", Payload: []byte("slow")},
		{Kind: KindStart, Test: "pkg.TestBeta"},
		{Kind: KindError, Test: "pkg.TestBeta", Payload: []byte("worker exited")},
	}

	data := encodeAll(t, V2, events)
	assert.Equal(t, events, decodeAll(t, V2, data))
}

func TestV1MultilineFailurePayload(t *testing.T) {
	payload := []byte("Traceback:\n  File \"test_foo.py\", line 3\nAssertionError: assert 1==2")
	data := encodeAll(t, V1, []Event{
		{Kind: KindStart, Test: "test_foo"},
		{Kind: KindFailure, Test: "test_foo", Payload: payload},
	})

	events := decodeAll(t, V1, data)
	require.Len(t, events, 2)
	assert.Equal(t, payload, events[1].Payload)
}

func TestV1PayloadContainingBracketLine(t *testing.T) {
	payload := []byte("expected [\n]\ngot [1]")
	data, err := EncodeV1(Event{Kind: KindFailure, Test: "t1", Payload: payload})
	require.NoError(t, err)

	ev, n, err := DecodeV1(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n, "nothing left over to leak as output events")
	assert.Equal(t, payload, ev.Payload)
}

func TestV1RoundTripHostileLines(t *testing.T) {
	events := []Event{
		{Kind: KindStart, Test: "t1"},
		{Kind: KindOutput, Test: "t1", Payload: []byte("success: t1")},
		{Kind: KindOutput, Test: "t1", Payload: []byte(" error: nested directive")},
		{Kind: KindFailure, Test: "t1", Payload: []byte("diff [\n]\n ]\nend")},
	}

	data := encodeAll(t, V1, events)
	assert.Equal(t, events, decodeAll(t, V1, data))
}

func TestDecodeShortInput(t *testing.T) {
	_, _, err := DecodeV1([]byte("test: pkg.TestAl"))
	assert.ErrorIs(t, err, ErrShortInput)

	_, _, err = DecodeV1([]byte("failure: t [\npartial payload\n"))
	assert.ErrorIs(t, err, ErrShortInput)

	_, _, err = DecodeV2([]byte("subunit2 start pkg.Te"))
	assert.ErrorIs(t, err, ErrShortInput)
}

func TestStreamDecoderByteAtATime(t *testing.T) {
	events := []Event{
		{Kind: KindStart, Test: "t1"},
		{Kind: KindFailure, Test: "t1", Payload: []byte("boom")},
	}
	data := encodeAll(t, V2, events)

	dec := NewDecoder(V2, iotest.OneByteReader(bytes.NewReader(data)))
	var got []Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, ev)
	}
	assert.Equal(t, events, got)
}

func TestStreamDecoderTruncated(t *testing.T) {
	dec := NewDecoder(V1, bytes.NewReader([]byte("test: t1\nfailure: t1 [\nno closing bracket\n")))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, KindStart, ev.Kind)

	_, err = dec.Next()
	assert.ErrorIs(t, err, ErrShortInput)

	// The decoder stays failed rather than resynchronizing.
	_, err = dec.Next()
	assert.ErrorIs(t, err, ErrShortInput)
}

func TestV1OutputAttribution(t *testing.T) {
	data := []byte("test: t1\nraw framework chatter\nsuccess: t1\nchatter between cases\n")
	events := decodeAll(t, V1, data)

	require.Len(t, events, 4)
	assert.Equal(t, "t1", events[1].Test)
	assert.Equal(t, []byte("raw framework chatter"), events[1].Payload)
	assert.Equal(t, "", events[3].Test)
}

func TestV1UnknownDirective(t *testing.T) {
	events := decodeAll(t, V1, []byte("time: 2026-08-24 10:00:00Z\n"))

	require.Len(t, events, 1)
	assert.Equal(t, KindExtension, events[0].Kind)
	assert.Equal(t, "time", events[0].Extension)
	assert.Equal(t, []byte("time: 2026-08-24 10:00:00Z"), events[0].Payload)
}

func TestEncodeV1Extension(t *testing.T) {
	_, err := EncodeV1(Event{Kind: KindExtension, Extension: "tags", Test: "t1"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestV2UnknownKindWord(t *testing.T) {
	ev, n, err := DecodeV2([]byte("subunit2 xfail pkg.TestBeta\n"))
	require.NoError(t, err)
	assert.Equal(t, 28, n)
	assert.Equal(t, KindExtension, ev.Kind)
	assert.Equal(t, "xfail", ev.Extension)
	assert.Equal(t, "pkg.TestBeta", ev.Test)
}

func TestV2Malformed(t *testing.T) {
	_, _, err := DecodeV2([]byte("not a subunit record\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrShortInput)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, V1, v)

	_, err = ParseVersion("v3")
	assert.Error(t, err)
}
