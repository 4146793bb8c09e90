package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/tweetRelay/internal/botkit/markup"
	"github.com/0x0BSoD/tweetRelay/internal/model"
)

const parseModeMarkdownV2 = "MarkdownV2"

type SubscriberStorage interface {
	Subscribers(ctx context.Context) ([]model.Subscriber, error)
	RemoveBatch(ctx context.Context, chatIDs []int64) error
}

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	subscribers SubscriberStorage
	bot         Sender
	account     string
	sendPause   time.Duration
}

func New(subscribers SubscriberStorage, bot Sender, account string, sendPause time.Duration) *Notifier {
	return &Notifier{
		subscribers: subscribers,
		bot:         bot,
		account:     account,
		sendPause:   sendPause,
	}
}

// Broadcast delivers one item to every current subscriber, sequentially, with
// a pause between sends to stay under Telegram rate limits. A failed send
// never aborts the batch: the chat is collected and pruned from the registry
// in one write after the full list has been attempted, so a pile of dead
// chats cannot block delivery to live ones. Returns how many subscribers
// received the item.
func (n *Notifier) Broadcast(ctx context.Context, item model.Item) (int, error) {
	subs, err := n.subscribers.Subscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load subscribers: %w", err)
	}

	text := n.formatMessage(item)

	var (
		delivered int
		failed    []int64
	)
	for _, sub := range subs {
		if err := n.send(sub.ChatID, item, text); err != nil {
			log.Printf("[ERROR] failed to send to %q (%d): %v", sub.Title, sub.ChatID, err)
			failed = append(failed, sub.ChatID)
			continue
		}
		delivered++

		select {
		case <-ctx.Done():
			return delivered, ctx.Err()
		case <-time.After(n.sendPause):
		}
	}

	if len(failed) > 0 {
		if err := n.subscribers.RemoveBatch(ctx, failed); err != nil {
			log.Printf("[ERROR] failed to prune %d unreachable subscribers: %v", len(failed), err)
		} else {
			log.Printf("[INFO] pruned %d unreachable subscribers", len(failed))
		}
	}

	return delivered, nil
}

func (n *Notifier) send(chatID int64, item model.Item, text string) error {
	var msg tgbotapi.Chattable

	if len(item.Images) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(item.Images[0]))
		photo.Caption = text
		photo.ParseMode = parseModeMarkdownV2
		msg = photo
	} else {
		m := tgbotapi.NewMessage(chatID, text)
		m.ParseMode = parseModeMarkdownV2
		msg = m
	}

	_, err := n.bot.Send(msg)
	return err
}

func (n *Notifier) formatMessage(item model.Item) string {
	const msgFormat = "🐦 *New post from @%s*\n\n%s\n\n📅 %s"

	return fmt.Sprintf(
		msgFormat,
		markup.EscapeForMarkdown(n.account),
		markup.EscapeForMarkdown(item.Text),
		markup.EscapeForMarkdown(item.PublishedAt),
	)
}
