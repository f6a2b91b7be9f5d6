package wire

import (
	"errors"
	"fmt"
	"io"
)

// Decoder yields events from a result stream. Next returns io.EOF once the
// stream is exhausted cleanly; any other error means the remainder of the
// stream is unusable.
type Decoder interface {
	Next() (Event, error)
}

// NewDecoder returns a streaming decoder for the given protocol version. The
// v1 decoder tracks the currently open test case so that output chunks, which
// carry no name on the wire, are attributed to it.
func NewDecoder(v Version, r io.Reader) Decoder {
	d := &streamDecoder{r: r}
	switch v {
	case V2:
		d.decode = DecodeV2
	default:
		d.decode = DecodeV1
		d.track = true
	}
	return d
}

type streamDecoder struct {
	r      io.Reader
	buf    []byte
	decode func([]byte) (Event, int, error)
	track  bool
	open   string
	eof    bool
	err    error
}

func (d *streamDecoder) Next() (Event, error) {
	if d.err != nil {
		return Event{}, d.err
	}
	for {
		if len(d.buf) > 0 {
			ev, n, err := d.decode(d.buf)
			switch {
			case err == nil:
				d.buf = d.buf[n:]
				if d.track {
					d.attribute(&ev)
				}
				return ev, nil
			case !errors.Is(err, ErrShortInput):
				d.err = err
				return Event{}, err
			case d.eof:
				d.err = fmt.Errorf("wire: truncated stream: %w", ErrShortInput)
				return Event{}, d.err
			}
		} else if d.eof {
			d.err = io.EOF
			return Event{}, io.EOF
		}

		chunk := make([]byte, 4096)
		n, err := d.r.Read(chunk)
		if n > 0 {
			d.buf = append(d.buf, chunk[:n]...)
		}
		if err == io.EOF {
			d.eof = true
		} else if err != nil {
			d.err = err
			return Event{}, err
		}
	}
}

func (d *streamDecoder) attribute(ev *Event) {
	switch {
	case ev.Kind == KindStart:
		d.open = ev.Test
	case ev.Kind == KindOutput && ev.Test == "":
		ev.Test = d.open
	case ev.Kind.Terminal():
		if ev.Test == d.open {
			d.open = ""
		}
	}
}

// Encoder writes events to w in the given protocol version.
type Encoder struct {
	w       io.Writer
	version Version
}

// NewEncoder returns an encoder for the given protocol version.
func NewEncoder(v Version, w io.Writer) *Encoder {
	return &Encoder{w: w, version: v}
}

// Version reports the encoder's target protocol.
func (e *Encoder) Version() Version {
	return e.version
}

// Encode appends one event to the stream. ErrUnsupportedKind is returned when
// the target format cannot represent the event; the stream itself remains
// valid and further events may be encoded.
func (e *Encoder) Encode(ev Event) error {
	var rec []byte
	var err error
	switch e.version {
	case V2:
		rec, err = EncodeV2(ev)
	default:
		rec, err = EncodeV1(ev)
	}
	if err != nil {
		return err
	}
	if _, err := e.w.Write(rec); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
