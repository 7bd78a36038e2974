package app

import (
	"context"
	"time"

	"github.com/five82/archiver/internal/archive"
	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes the store. After failures
// the wait grows exponentially up to maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client archive.API, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// calculateBackoff returns base × 2^failures, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

func refresh(ctx context.Context, store *state.Store, client archive.API) {
	status, err := client.Status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, nil, err)
		logging.Warning("status poll failed: %v", err)
		return
	}
	chats, err := client.RecentChats(ctx, "")
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, nil, err)
		logging.Warning("chats poll failed: %v", err)
		return
	}
	store.Update(status, archive.ChatSummaries(chats), nil)
}
