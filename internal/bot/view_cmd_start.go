package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/tweetRelay/internal/botkit"
	"github.com/0x0BSoD/tweetRelay/internal/model"
)

// ViewCmdStart shows usage information. Group and channel chats are
// registered as a side effect, so adding the bot and sending /start is
// enough to subscribe.
func ViewCmdStart(storage SubscriberStorage, account string) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		chat := update.Message.Chat

		if chat.IsGroup() || chat.IsSuperGroup() || chat.IsChannel() {
			if err := storage.Add(ctx, model.Subscriber{
				ChatID:  chat.ID,
				Title:   chatTitle(chat),
				AddedAt: time.Now(),
			}); err != nil {
				log.Printf("[ERROR] failed to register chat %d via /start: %v", chat.ID, err)
			}
		}

		reply := tgbotapi.NewMessage(chat.ID, fmt.Sprintf(
			"This bot republishes every new post from @%s.\n\n"+
				"To use it:\n"+
				"1. Add the bot to your group or channel\n"+
				"2. Give it permission to send messages\n"+
				"3. Send /register there\n\n"+
				"Commands:\n"+
				"/start - show this message\n"+
				"/register - subscribe this chat\n"+
				"/stop - unsubscribe this chat\n"+
				"/status - service status",
			account,
		))
		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}
