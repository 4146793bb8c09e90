package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

// Mirror markup differs between instances and changes over time, so every
// field is extracted by trying an ordered list of structurally plausible
// selectors and taking the first that matches.
var (
	containerSelectors = []cascadia.Selector{
		cascadia.MustCompile("div.timeline-item"),
		cascadia.MustCompile("div.tweet"),
		cascadia.MustCompile("article"),
		cascadia.MustCompile("div[data-tweet-id]"),
	}

	textSelectors = []cascadia.Selector{
		cascadia.MustCompile("div.tweet-content"),
		cascadia.MustCompile("div.tweet-text"),
		cascadia.MustCompile("p"),
		cascadia.MustCompile("div.content"),
	}

	timeSelectors = []cascadia.Selector{
		cascadia.MustCompile("span.tweet-date"),
		cascadia.MustCompile("time"),
		cascadia.MustCompile("span.date"),
		cascadia.MustCompile("a.tweet-link"),
	}

	imageSelector = cascadia.MustCompile("img[src]")
)

// fetchPage scrapes {base}/{account}. No recognizable post container is a
// legitimate outcome (the instance changed markup or served a different
// page), reported as an empty result rather than an error.
func (m *Mirror) fetchPage(ctx context.Context) ([]model.Item, error) {
	body, err := m.get(ctx, m.BaseURL+"/"+m.Account, m.pageTimeout)
	if err != nil {
		return nil, err
	}

	return parsePage(m.BaseURL, body)
}

func parsePage(base string, body []byte) ([]model.Item, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var containers []*html.Node
	for _, sel := range containerSelectors {
		if containers = sel.MatchAll(doc); len(containers) > 0 {
			break
		}
	}
	if len(containers) == 0 {
		return nil, nil
	}
	if len(containers) > maxItems {
		containers = containers[:maxItems]
	}

	var items []model.Item
	for _, container := range containers {
		text := containerText(container)
		if len(text) < minTextLen {
			continue
		}

		items = append(items, model.Item{
			Text:        text,
			PublishedAt: containerTime(container),
			Images:      containerImages(base, container),
		})
	}

	return items, nil
}

func containerText(container *html.Node) string {
	for _, sel := range textSelectors {
		if node := sel.MatchFirst(container); node != nil {
			if text := nodeText(node); text != "" {
				return text
			}
		}
	}
	return ""
}

// containerTime degrades to the UnknownTime sentinel: a post without a
// recognizable timestamp element is still worth delivering.
func containerTime(container *html.Node) string {
	for _, sel := range timeSelectors {
		node := sel.MatchFirst(container)
		if node == nil {
			continue
		}
		if text := nodeText(node); text != "" {
			return text
		}
		if dt := attr(node, "datetime"); dt != "" {
			return dt
		}
	}
	return model.UnknownTime
}

func containerImages(base string, container *html.Node) []string {
	var urls []string
	for _, img := range imageSelector.MatchAll(container) {
		src := attr(img, "src")
		if src == "" {
			continue
		}
		if !strings.Contains(src, "pic.twitter.com") && !hasClass(img, "attachment") {
			continue
		}
		if strings.HasPrefix(src, "/") {
			src = base + src
		}
		urls = append(urls, src)
	}
	return urls
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
