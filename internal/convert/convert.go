// Package convert implements incremental result-stream transformations:
// re-encoding between wire protocol versions and aggregating a stream into a
// report document. Converters consume and emit one event at a time and chain
// freely, so a v1 framework stream can feed the v2 tooling unchanged.
package convert

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebarrett/subsuite/internal/report"
	"github.com/ebarrett/subsuite/internal/wire"
)

// Options configure how a conversion handles events the target format cannot
// represent. The zero value drops them silently; supply a logger to get a
// diagnostic per dropped event.
type Options struct {
	Log zerolog.Logger
}

// Pipe copies events from dec to enc until end of stream. Events the target
// format cannot represent are dropped with a diagnostic rather than failing
// the conversion; every other error is returned to the caller.
func Pipe(dec wire.Decoder, enc *wire.Encoder, opts Options) error {
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode stream: %w", err)
		}
		if err := enc.Encode(ev); err != nil {
			if errors.Is(err, wire.ErrUnsupportedKind) {
				opts.Log.Warn().
					Str("kind", string(ev.Kind)).
					Str("extension", ev.Extension).
					Str("test", ev.Test).
					Msgf("dropping event with no %s representation", enc.Version())
				continue
			}
			return err
		}
	}
}

// Aggregate consumes dec to end of stream, accumulating counts and
// per-failure detail, and returns the finished report document. Extension
// events are ignored; a truncated stream surfaces as an error once all
// decodable events have been folded in.
func Aggregate(dec wire.Decoder, suite string, opts Options) (report.Document, error) {
	builder := report.NewBuilder()
	start := time.Now()
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report.Document{}, fmt.Errorf("aggregate stream: %w", err)
		}
		if ev.Kind == wire.KindExtension {
			opts.Log.Debug().Str("extension", ev.Extension).Msg("skipping extension event in aggregation")
			continue
		}
		builder.Observe(0, ev)
	}

	summary := builder.Summary()
	summary.Duration = time.Since(start)
	return report.BuildDocument(suite, builder.Cases(), summary), nil
}
