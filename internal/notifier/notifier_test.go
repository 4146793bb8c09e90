package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

type fakeSubscriberStorage struct {
	subs    []model.Subscriber
	removed []int64
}

func (f *fakeSubscriberStorage) Subscribers(_ context.Context) ([]model.Subscriber, error) {
	return f.subs, nil
}

func (f *fakeSubscriberStorage) RemoveBatch(_ context.Context, chatIDs []int64) error {
	f.removed = append(f.removed, chatIDs...)
	keep := f.subs[:0]
	for _, s := range f.subs {
		gone := false
		for _, id := range chatIDs {
			if s.ChatID == id {
				gone = true
				break
			}
		}
		if !gone {
			keep = append(keep, s)
		}
	}
	f.subs = keep
	return nil
}

type fakeSender struct {
	sent    []tgbotapi.Chattable
	failFor map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var chatID int64
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		chatID = m.ChatID
	case tgbotapi.PhotoConfig:
		chatID = m.ChatID
	}
	if f.failFor[chatID] {
		return tgbotapi.Message{}, errors.New("forbidden: bot was kicked")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func subscribers(ids ...int64) []model.Subscriber {
	out := make([]model.Subscriber, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Subscriber{ChatID: id, AddedAt: time.Now()})
	}
	return out
}

func TestBroadcast_DeliversToAll(t *testing.T) {
	store := &fakeSubscriberStorage{subs: subscribers(1, 2, 3)}
	sender := &fakeSender{}

	n := New(store, sender, "someaccount", 0)

	count, err := n.Broadcast(context.Background(), model.Item{
		Text:        "a post with enough text",
		PublishedAt: "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, sender.sent, 3)
	assert.Empty(t, store.removed)
}

func TestBroadcast_FailureIsolatedAndPruned(t *testing.T) {
	store := &fakeSubscriberStorage{subs: subscribers(1, 2, 3)}
	sender := &fakeSender{failFor: map[int64]bool{2: true}}

	n := New(store, sender, "someaccount", 0)

	count, err := n.Broadcast(context.Background(), model.Item{Text: "a post with enough text", PublishedAt: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// B is pruned; A and C survive and keep receiving.
	assert.Equal(t, []int64{2}, store.removed)

	count, err = n.Broadcast(context.Background(), model.Item{Text: "another post with enough text", PublishedAt: "t2"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBroadcast_AllFailing(t *testing.T) {
	store := &fakeSubscriberStorage{subs: subscribers(1, 2)}
	sender := &fakeSender{failFor: map[int64]bool{1: true, 2: true}}

	n := New(store, sender, "someaccount", 0)

	count, err := n.Broadcast(context.Background(), model.Item{Text: "a post with enough text", PublishedAt: "t1"})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.ElementsMatch(t, []int64{1, 2}, store.removed)
}

func TestBroadcast_MessageFormat(t *testing.T) {
	store := &fakeSubscriberStorage{subs: subscribers(1)}
	sender := &fakeSender{}

	n := New(store, sender, "someaccount", 0)

	_, err := n.Broadcast(context.Background(), model.Item{
		Text:        "Deal done. Here we go!",
		PublishedAt: "Mon, 01 Jan 2024 12:00:00 GMT",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "MarkdownV2", msg.ParseMode)
	assert.Contains(t, msg.Text, "@someaccount")
	assert.Contains(t, msg.Text, "Deal done\\. Here we go\\!")
}

func TestBroadcast_FirstImageSentAsPhoto(t *testing.T) {
	store := &fakeSubscriberStorage{subs: subscribers(1)}
	sender := &fakeSender{}

	n := New(store, sender, "someaccount", 0)

	_, err := n.Broadcast(context.Background(), model.Item{
		Text:        "a post with an attached picture",
		PublishedAt: "t1",
		Images:      []string{"https://mirror.example/pic/one.jpg", "https://mirror.example/pic/two.jpg"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	photo, ok := sender.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.NotEmpty(t, photo.Caption)
}
