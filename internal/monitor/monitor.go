// Package monitor runs the acquisition and delivery cycle: fetch the latest
// posts, filter out everything already delivered, broadcast the rest in
// chronological order and persist the updated history.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/0x0BSoD/tweetRelay/internal/model"
	"github.com/0x0BSoD/tweetRelay/internal/reporter"
)

type ItemsAcquirer interface {
	AcquireLatest(ctx context.Context) []model.Item
}

type Broadcaster interface {
	Broadcast(ctx context.Context, item model.Item) (int, error)
}

type SubscriberProvider interface {
	Subscribers(ctx context.Context) ([]model.Subscriber, error)
}

type HistoryStorage interface {
	IDs(ctx context.Context) ([]string, error)
	Append(ctx context.Context, ids []string) error
}

type Monitor struct {
	acquirer    ItemsAcquirer
	broadcaster Broadcaster
	subscribers SubscriberProvider
	history     HistoryStorage
	alerts      *reporter.Reporter

	checkInterval time.Duration
	itemPause     time.Duration
}

func New(
	acquirer ItemsAcquirer,
	broadcaster Broadcaster,
	subscribers SubscriberProvider,
	history HistoryStorage,
	alerts *reporter.Reporter,
	checkInterval time.Duration,
	itemPause time.Duration,
) *Monitor {
	return &Monitor{
		acquirer:      acquirer,
		broadcaster:   broadcaster,
		subscribers:   subscribers,
		history:       history,
		alerts:        alerts,
		checkInterval: checkInterval,
		itemPause:     itemPause,
	}
}

// Start runs cycles until the context is cancelled. A failed cycle is logged
// and reported, never fatal: the next tick always comes.
func (m *Monitor) Start(ctx context.Context) error {
	log.Printf("[INFO] monitor started")

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[ERROR] cycle panicked: %v", p)
			m.alerts.Notify(fmt.Sprintf("monitor cycle panicked: %v", p))
		}
	}()

	if err := m.Cycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] cycle failed: %v", err)
		m.alerts.Notify(fmt.Sprintf("monitor cycle failed: %v", err))
	}
}

// Cycle performs one acquire-filter-deliver-persist pass.
func (m *Monitor) Cycle(ctx context.Context) error {
	log.Printf("[INFO] checking for new posts")

	items := m.acquirer.AcquireLatest(ctx)
	if len(items) == 0 {
		log.Printf("[INFO] nothing fetched this cycle")
		return nil
	}

	subs, err := m.subscribers.Subscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	if len(subs) == 0 {
		log.Printf("[INFO] no subscribers registered, skipping delivery")
		return nil
	}

	seen, err := m.history.IDs(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}

	var (
		delivered []string
		cycleErr  error
	)

	// Fetchers return newest first; subscribers must receive multiple unseen
	// posts in chronological order.
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if _, ok := seenSet[item.ID()]; ok {
			continue
		}

		log.Printf("[INFO] new post found: %.50s", item.Text)

		count, err := m.broadcaster.Broadcast(ctx, item)
		if count > 0 {
			log.Printf("[INFO] delivered post %s to %d subscribers", item.ID(), count)
			delivered = append(delivered, item.ID())
		}
		if err != nil {
			cycleErr = fmt.Errorf("broadcast: %w", err)
			break
		}
		if count == 0 {
			// Nobody got it; leave the id unrecorded so the next cycle
			// retries instead of silently dropping the post.
			log.Printf("[ERROR] post %s reached no subscribers", item.ID())
			continue
		}

		select {
		case <-ctx.Done():
			cycleErr = ctx.Err()
		case <-time.After(m.itemPause):
			continue
		}
		break
	}

	if len(delivered) > 0 {
		if err := m.history.Append(ctx, delivered); err != nil {
			// The write is skipped, not fatal: the ids stay unrecorded and
			// those posts are re-delivered next cycle.
			return fmt.Errorf("persist history: %w", err)
		}
		log.Printf("[INFO] recorded %d delivered posts", len(delivered))
	}

	return cycleErr
}
