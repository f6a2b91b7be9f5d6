// Package protocol maps a framework's declared wire protocol version onto
// the capabilities the harness may rely on. The upstream contract is
// declaration-driven: a feature a framework has not declared is a feature it
// does not have.
package protocol

import (
	"fmt"

	"github.com/ebarrett/subsuite/internal/wire"
)

// Capabilities describes what a declared protocol version supports.
type Capabilities struct {
	Version wire.Version

	// Extensions reports whether the stream may carry forward-compatible
	// event kinds. Only v2 can represent them.
	Extensions bool
}

// Resolve validates a declared protocol version string.
func Resolve(declared string) (Capabilities, error) {
	v, err := wire.ParseVersion(declared)
	if err != nil {
		return Capabilities{}, fmt.Errorf("declared protocol: %w", err)
	}
	return Capabilities{Version: v, Extensions: v == wire.V2}, nil
}

// Supports reports whether streams of this protocol can carry the kind.
func (c Capabilities) Supports(k wire.Kind) bool {
	if k == wire.KindExtension {
		return c.Extensions
	}
	return true
}
