// Package model defines the data structures used in the tweetRelay application: Item, a single post fetched from a mirror, and Subscriber, a chat the bot delivers posts to.
package model

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"time"
)

// UnknownTime is the sentinel stored when a mirror page carries no usable
// timestamp element for a post.
const UnknownTime = "unknown time"

type Item struct {
	Text        string
	PublishedAt string
	Images      []string
}

// ID derives the item identity from its text and the verbatim source
// timestamp. The same post fetched from different mirrors hashes to the same
// id, which is what the dedup history keys on.
func (i Item) ID() string {
	sum := md5.Sum([]byte(i.Text + "_" + i.PublishedAt)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

type Subscriber struct {
	ChatID  int64
	Title   string
	AddedAt time.Time
}
