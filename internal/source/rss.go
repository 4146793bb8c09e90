package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

// fetchFeed reads {base}/{account}/rss. The pubDate string is kept verbatim:
// mirrors emit heterogeneous date formats, and the string participates in the
// item identity, so it must never be re-rendered through a calendar type.
func (m *Mirror) fetchFeed(ctx context.Context) ([]model.Item, error) {
	body, err := m.get(ctx, m.BaseURL+"/"+m.Account+"/rss", m.feedTimeout)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	items := lo.FilterMap(entries, func(entry *gofeed.Item, _ int) (model.Item, bool) {
		text := strings.TrimSpace(entry.Title)
		if len(text) < minTextLen {
			return model.Item{}, false
		}

		published := strings.TrimSpace(entry.Published)
		if published == "" {
			published = model.UnknownTime
		}

		return model.Item{
			Text:        text,
			PublishedAt: published,
			Images:      enclosureImages(entry),
		}, true
	})

	return items, nil
}

func enclosureImages(entry *gofeed.Item) []string {
	var urls []string
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			urls = append(urls, enc.URL)
		}
	}
	return urls
}
