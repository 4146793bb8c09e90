package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func rssBody(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>feed</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b,
			`<item><title>Post number %d with enough text</title><pubDate>Mon, 0%d Jan 2024 12:00:00 GMT</pubDate></item>`,
			i, i+1)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestMirrorFetch_FeedPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/someaccount/rss", r.URL.Path)
		fmt.Fprint(w, rssBody(3))
	}))
	defer srv.Close()

	m := NewMirror(srv.URL, "someaccount", testTimeout, testTimeout)

	items, err := m.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Newest first, timestamps kept verbatim.
	assert.Equal(t, "Post number 0 with enough text", items[0].Text)
	assert.Equal(t, "Mon, 01 Jan 2024 12:00:00 GMT", items[0].PublishedAt)
}

func TestMirrorFetch_FeedCapsAtFiveItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(8))
	}))
	defer srv.Close()

	m := NewMirror(srv.URL, "someaccount", testTimeout, testTimeout)

	items, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, maxItems)
}

func TestMirrorFetch_FeedEnclosureImages(t *testing.T) {
	const body = `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>feed</title>
		<item>
			<title>Post carrying an attached picture</title>
			<pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
			<enclosure url="https://mirror.example/pic/one.jpg" type="image/jpeg" length="0"/>
		</item>
	</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	m := NewMirror(srv.URL, "someaccount", testTimeout, testTimeout)

	items, err := m.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"https://mirror.example/pic/one.jpg"}, items[0].Images)
}

func TestMirrorFetch_FallsBackToPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/rss") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `<html><body>
			<div class="timeline-item">
				<div class="tweet-content">Scraped post with enough text</div>
				<span class="tweet-date">Jan 1, 2024</span>
			</div>
		</body></html>`)
	}))
	defer srv.Close()

	m := NewMirror(srv.URL, "someaccount", testTimeout, testTimeout)

	items, err := m.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Scraped post with enough text", items[0].Text)
}

func TestMirrorFetch_BothShapesFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMirror(srv.URL, "someaccount", testTimeout, testTimeout)

	_, err := m.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

// Mirrors often run on self-signed certificates; a transport-level failure is
// retried once without strict verification.
func TestMirrorFetch_RetriesWithoutTLSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(1))
	}))
	defer srv.Close()

	m := NewMirror(srv.URL, "someaccount", testTimeout, testTimeout)

	items, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
