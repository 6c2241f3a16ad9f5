package sink

import (
	"context"

	"github.com/louisbranch/skirmish/internal/aggregate"
)

// Multi writes each snapshot to every sink in order, stopping at the first
// error.
type Multi []aggregate.Sink

// Write implements aggregate.Sink.
func (m Multi) Write(ctx context.Context, snapshot aggregate.Snapshot) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, snapshot); err != nil {
			return err
		}
	}
	return nil
}

var _ aggregate.Sink = Multi(nil)
