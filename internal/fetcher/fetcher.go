package fetcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/0x0BSoD/tweetRelay/internal/model"
	"github.com/0x0BSoD/tweetRelay/internal/reporter"
)

type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Item, error)
}

// Selector holds the fixed mirror preference order, most preferred first.
// The ordering is static configuration; it never reshuffles at runtime.
type Selector struct {
	sources []Source
}

func NewSelector(sources ...Source) *Selector {
	return &Selector{sources: sources}
}

func (s *Selector) Ordered() []Source {
	return s.sources
}

type Fetcher struct {
	selector     *Selector
	account      string
	livenessItem bool
	alerts       *reporter.Reporter
}

func New(selector *Selector, account string, livenessItem bool, alerts *reporter.Reporter) *Fetcher {
	return &Fetcher{
		selector:     selector,
		account:      account,
		livenessItem: livenessItem,
		alerts:       alerts,
	}
}

// AcquireLatest walks the mirrors in preference order and returns the posts
// from the first one that yields any. It never fails: when every mirror is
// down or empty it returns nothing, or a single synthetic diagnostic item
// when the liveness flag is on. The diagnostic item goes through the standard
// identity derivation, so it is suppressed like any other item on later
// cycles.
func (f *Fetcher) AcquireLatest(ctx context.Context) []model.Item {
	for _, src := range f.selector.Ordered() {
		items, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("[ERROR] failed to fetch from %s: %v", src.Name(), err)
			continue
		}
		if len(items) == 0 {
			log.Printf("[INFO] no posts extracted from %s", src.Name())
			continue
		}

		log.Printf("[INFO] got %d posts from %s", len(items), src.Name())
		return items
	}

	log.Printf("[ERROR] all %d mirrors exhausted for @%s", len(f.selector.Ordered()), f.account)
	f.alerts.Notify(fmt.Sprintf("all mirrors exhausted for @%s", f.account))

	if f.livenessItem {
		return []model.Item{f.diagnosticItem()}
	}
	return nil
}

func (f *Fetcher) diagnosticItem() model.Item {
	return model.Item{
		Text: fmt.Sprintf(
			"Monitoring of @%s is active, but no mirror is reachable right now. Delivery resumes automatically once an instance comes back online.",
			f.account,
		),
		PublishedAt: time.Now().Format("2006-01-02 15:04"),
	}
}
