package gpio

import (
	"context"
	"fmt"
	"time"
)

// SweepStep is the on-time per channel during a relay sweep.
const SweepStep = 50 * time.Millisecond

// Sweep clicks each relay channel in turn, 1..n then n..1, leaving every
// channel de-energized. Useful as a wiring check at startup.
func Sweep(ctx context.Context, a Actuator, channels int, step time.Duration) error {
	order := make([]int, 0, 2*channels)
	for id := 1; id <= channels; id++ {
		order = append(order, id)
	}
	for id := channels; id >= 1; id-- {
		order = append(order, id)
	}

	for _, id := range order {
		if err := a.SetChannel(id, true); err != nil {
			return fmt.Errorf("sweep channel %d: %w", id, err)
		}
		werr := wait(ctx, step)
		if err := a.SetChannel(id, false); err != nil {
			return fmt.Errorf("sweep channel %d: %w", id, err)
		}
		if werr != nil {
			return werr
		}
	}
	return nil
}
