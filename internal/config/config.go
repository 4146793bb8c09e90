package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

type Config struct {
	TelegramBotToken    string        `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" required:"true"`
	TelegramAdminChatID int64         `hcl:"telegram_admin_chat_id" env:"TELEGRAM_ADMIN_CHAT_ID"`
	AccountName         string        `hcl:"account_name" env:"ACCOUNT_NAME" default:"fabrizioromano"`
	Mirrors             []string      `hcl:"mirrors" env:"MIRRORS" default:"https://nitter.cz,https://nitter.poast.org,https://nitter.privacydev.net,https://nitter.net"`
	DatabaseDSN         string        `hcl:"database_dsn" env:"DATABASE_DSN"`
	SubscribersFile     string        `hcl:"subscribers_file" env:"SUBSCRIBERS_FILE" default:"registered_channels.json"`
	HistoryFile         string        `hcl:"history_file" env:"HISTORY_FILE" default:"posted_items.json"`
	HistoryLimit        int           `hcl:"history_limit" env:"HISTORY_LIMIT" default:"200"`
	CheckInterval       time.Duration `hcl:"check_interval" env:"CHECK_INTERVAL" default:"10m"`
	FeedTimeout         time.Duration `hcl:"feed_timeout" env:"FEED_TIMEOUT" default:"15s"`
	PageTimeout         time.Duration `hcl:"page_timeout" env:"PAGE_TIMEOUT" default:"20s"`
	SendPause           time.Duration `hcl:"send_pause" env:"SEND_PAUSE" default:"1s"`
	ItemPause           time.Duration `hcl:"item_pause" env:"ITEM_PAUSE" default:"10s"`
	LivenessItem        bool          `hcl:"liveness_item" env:"LIVENESS_ITEM"`
	ListenAddr          string        `hcl:"listen_addr" env:"LISTEN_ADDR" default:"127.0.0.1:8088"`
}

var (
	cfg  Config
	once sync.Once
)

func Get() Config {
	once.Do(func() {
		loader := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix: "TRB",
			Files:     []string{"./config.hcl", "./config.local.hcl", "$HOME/.config/tweet-relay/config.hcl"},
			FileDecoders: map[string]aconfig.FileDecoder{
				".hcl": aconfighcl.New(),
			},
		})

		if err := loader.Load(); err != nil {
			slog.Error("failed to load config", "err", err)
		}
	})

	return cfg
}
