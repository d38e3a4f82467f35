package auth

import (
	"context"
	"log"
	"time"
)

// Sweeper is a store that can reclaim its expired entries.
type Sweeper interface {
	Sweep() int
}

// RunSweeper periodically sweeps the given stores until ctx is done. Expiry is
// always enforced at read time; sweeping only bounds memory.
func RunSweeper(ctx context.Context, interval time.Duration, stores ...Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, s := range stores {
				removed += s.Sweep()
			}
			if removed > 0 {
				log.Printf("auth: swept %d expired entries", removed)
			}
		}
	}
}
