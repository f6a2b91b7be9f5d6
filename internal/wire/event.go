// Package wire defines the test event model and the line-oriented result
// stream encodings spoken by external test frameworks. Two protocol versions
// exist: v1 is the legacy directive format, v2 is a single-record-per-line
// format that can carry every event kind including forward-compatible
// extensions.
package wire

import "errors"

// Kind identifies what a single event records about a test case.
type Kind string

const (
	KindStart     Kind = "start"
	KindSuccess   Kind = "success"
	KindFailure   Kind = "failure"
	KindError     Kind = "error"
	KindSkip      Kind = "skip"
	KindOutput    Kind = "output"
	KindExtension Kind = "extension"
)

// Terminal reports whether this kind closes a test case's event group.
func (k Kind) Terminal() bool {
	switch k {
	case KindSuccess, KindFailure, KindError, KindSkip:
		return true
	}
	return false
}

// Event is one record in a result stream. Every start for a test case is
// followed by exactly one terminal event before another start for the same
// case may appear; output events belong to the case open at that point.
type Event struct {
	// Kind classifies the record.
	Kind Kind

	// Test names the case this event belongs to. Empty on v1 output
	// chunks decoded without stream context.
	Test string

	// Payload carries captured text: failure detail for terminal events,
	// the chunk itself for output events, the raw record for extensions.
	Payload []byte

	// Extension holds the original directive word when Kind is
	// KindExtension, so a forward-compatible encoder can reproduce it.
	Extension string
}

// Sentinel errors for the wire package.
var (
	// ErrShortInput indicates the buffer does not yet hold a complete
	// event record. Callers should supply more data and retry.
	ErrShortInput = errors.New("wire: incomplete event data")

	// ErrUnsupportedKind indicates the target format cannot represent
	// the event kind. Converters decide whether to drop or pass through.
	ErrUnsupportedKind = errors.New("wire: kind not representable in target format")
)

// Version selects a wire protocol encoding.
type Version string

const (
	// V1 is the legacy directive protocol.
	V1 Version = "v1"
	// V2 is the current record protocol.
	V2 Version = "v2"
)

// ParseVersion validates a declared protocol version string.
func ParseVersion(s string) (Version, error) {
	switch Version(s) {
	case V1, V2:
		return Version(s), nil
	}
	return "", errors.New("wire: unknown protocol version " + s)
}
