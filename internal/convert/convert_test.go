package convert

import (
	"bytes"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebarrett/subsuite/internal/report"
	"github.com/ebarrett/subsuite/internal/wire"
)

func nopOptions() Options {
	return Options{Log: zerolog.Nop()}
}

func drain(t *testing.T, dec wire.Decoder) []wire.Event {
	t.Helper()
	var events []wire.Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestPipeV1ToV2(t *testing.T) {
	v1 := []byte("test: t1\nsuccess: t1\ntest: t2\nfailure: t2 [\nassert 1==2\n]\n")

	var out bytes.Buffer
	err := Pipe(wire.NewDecoder(wire.V1, bytes.NewReader(v1)), wire.NewEncoder(wire.V2, &out), nopOptions())
	require.NoError(t, err)

	events := drain(t, wire.NewDecoder(wire.V2, bytes.NewReader(out.Bytes())))
	assert.Equal(t, []wire.Event{
		{Kind: wire.KindStart, Test: "t1"},
		{Kind: wire.KindSuccess, Test: "t1"},
		{Kind: wire.KindStart, Test: "t2"},
		{Kind: wire.KindFailure, Test: "t2", Payload: []byte("assert 1==2")},
	}, events)
}

func TestChainThereAndBackAgain(t *testing.T) {
	// v1 -> v2 -> v1 must reproduce the original event sequence.
	v1 := []byte("test: t1\ncaptured output\nsuccess: t1\ntest: t2\nskip: t2 [\nrequires network\n]\n")
	original := drain(t, wire.NewDecoder(wire.V1, bytes.NewReader(v1)))

	var v2 bytes.Buffer
	require.NoError(t, Pipe(wire.NewDecoder(wire.V1, bytes.NewReader(v1)), wire.NewEncoder(wire.V2, &v2), nopOptions()))

	var back bytes.Buffer
	require.NoError(t, Pipe(wire.NewDecoder(wire.V2, bytes.NewReader(v2.Bytes())), wire.NewEncoder(wire.V1, &back), nopOptions()))

	assert.Equal(t, original, drain(t, wire.NewDecoder(wire.V1, bytes.NewReader(back.Bytes()))))
}

func TestPipeDropsUnrepresentableEvents(t *testing.T) {
	var v2 bytes.Buffer
	enc := wire.NewEncoder(wire.V2, &v2)
	for _, ev := range []wire.Event{
		{Kind: wire.KindStart, Test: "t1"},
		{Kind: wire.KindExtension, Extension: "tags", Test: "t1", Payload: []byte("slow")},
		{Kind: wire.KindSuccess, Test: "t1"},
	} {
		require.NoError(t, enc.Encode(ev))
	}

	var v1 bytes.Buffer
	err := Pipe(wire.NewDecoder(wire.V2, bytes.NewReader(v2.Bytes())), wire.NewEncoder(wire.V1, &v1), nopOptions())
	require.NoError(t, err)

	events := drain(t, wire.NewDecoder(wire.V1, bytes.NewReader(v1.Bytes())))
	require.Len(t, events, 2)
	assert.Equal(t, wire.KindStart, events[0].Kind)
	assert.Equal(t, wire.KindSuccess, events[1].Kind)
}

func TestPipePassesExtensionsToV2(t *testing.T) {
	v1 := []byte("time: 2026-08-24T10:00:00Z\ntest: t1\nsuccess: t1\n")

	var out bytes.Buffer
	require.NoError(t, Pipe(wire.NewDecoder(wire.V1, bytes.NewReader(v1)), wire.NewEncoder(wire.V2, &out), nopOptions()))

	events := drain(t, wire.NewDecoder(wire.V2, bytes.NewReader(out.Bytes())))
	require.Len(t, events, 3)
	assert.Equal(t, wire.KindExtension, events[0].Kind)
	assert.Equal(t, "time", events[0].Extension)
	assert.Equal(t, []byte("time: 2026-08-24T10:00:00Z"), events[0].Payload)
}

func TestAggregate(t *testing.T) {
	v1 := []byte("test: t1\nsuccess: t1\n" +
		"test: t2\nfailure: t2 [\nassert 1==2\n]\n" +
		"test: t3\nsome captured line\nsuccess: t3\n" +
		"test: t4\nskip: t4\n")

	doc, err := Aggregate(wire.NewDecoder(wire.V1, bytes.NewReader(v1)), "unit", nopOptions())
	require.NoError(t, err)

	assert.Equal(t, "unit", doc.Name)
	assert.Equal(t, 4, doc.Tests)
	assert.Equal(t, 1, doc.Failures)
	assert.Equal(t, 0, doc.Errors)
	assert.Equal(t, 1, doc.Skipped)
	require.Len(t, doc.Cases, 4)
	require.NotNil(t, doc.Cases[1].Failure)
	assert.Equal(t, "assert 1==2", doc.Cases[1].Failure.Body)
	assert.Equal(t, "some captured line", doc.Cases[2].SystemOut)
	assert.Equal(t, report.StatusFailed, doc.Cases[1].Failure.Message)
}

func TestAggregateTruncatedStream(t *testing.T) {
	v1 := []byte("test: t1\nfailure: t1 [\nnever closed\n")
	_, err := Aggregate(wire.NewDecoder(wire.V1, bytes.NewReader(v1)), "unit", nopOptions())
	assert.ErrorIs(t, err, wire.ErrShortInput)
}
