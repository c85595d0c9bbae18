package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type App struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// comma separated; empty allows any origin
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// DB: a URL wins over the discrete DB_* settings
	MySQLURL    string        `envconfig:"MYSQL_URL"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	DBUser      string        `envconfig:"DB_USER" default:"root"`
	DBPass      string        `envconfig:"DB_PASS"`
	DBHost      string        `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string        `envconfig:"DB_PORT" default:"3306"`
	DBName      string        `envconfig:"DB_NAME" default:"agency_db"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	// Telegram notification; both must be set or notifications are skipped
	TelegramBotToken string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string        `envconfig:"TELEGRAM_CHAT_ID"`
	TelegramAPIURL   string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	NotifyTimeout    time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`

	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"5"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1h"`

	// events are disabled when RABBIT_URL is empty
	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"booking.exchange"`

	// tracing is disabled when empty
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

func (c App) Production() bool {
	return c.Env == "production"
}
