package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"agency-backend/models"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Notifier forwards a new booking to the team. It never fails the caller:
// ok is false when nothing was delivered.
type Notifier interface {
	Send(ctx context.Context, b *models.Booking) (messageID string, ok bool)
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string
	Timeout  time.Duration
}

type TelegramNotifier struct {
	cfg    TelegramConfig
	client *http.Client
	log    zerolog.Logger
}

func NewTelegramNotifier(cfg TelegramConfig, log zerolog.Logger) *TelegramNotifier {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultTelegramAPI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &TelegramNotifier{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.With().Str("component", "telegram").Logger(),
	}
}

type telegramSendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK     bool `json:"ok"`
	Result *struct {
		MessageID int64 `json:"message_id"`
	} `json:"result,omitempty"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

func (n *TelegramNotifier) Send(ctx context.Context, b *models.Booking) (string, bool) {
	if n.cfg.BotToken == "" || n.cfg.ChatID == "" {
		n.log.Warn().Str("reference", b.Reference).
			Msg("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set; skipping notification")
		return "", false
	}

	body, err := json.Marshal(telegramSendMessage{
		ChatID:    n.cfg.ChatID,
		Text:      FormatBookingMessage(b),
		ParseMode: "HTML",
	})
	if err != nil {
		n.log.Error().Err(err).Str("reference", b.Reference).Msg("encode telegram message")
		return "", false
	}

	url := strings.TrimRight(n.cfg.APIURL, "/") + "/bot" + n.cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.log.Error().Err(err).Str("reference", b.Reference).Msg("build telegram request")
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// the url embeds the bot token, so log the kind of failure only
		n.log.Error().Str("error", redactToken(err.Error(), n.cfg.BotToken)).
			Str("reference", b.Reference).Msg("send telegram notification")
		return "", false
	}
	defer resp.Body.Close()

	var out telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		n.log.Error().Err(err).Int("status", resp.StatusCode).Str("reference", b.Reference).
			Msg("decode telegram response")
		return "", false
	}
	if !out.OK || out.Result == nil {
		n.log.Error().Int("error_code", out.ErrorCode).Str("description", out.Description).
			Str("reference", b.Reference).Msg("telegram api error")
		return "", false
	}

	return strconv.FormatInt(out.Result.MessageID, 10), true
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<redacted>")
}

var telegramEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// FormatBookingMessage renders b for Telegram's HTML parse mode. Optional
// lines are left out when the field is empty.
func FormatBookingMessage(b *models.Booking) string {
	var lines []string
	add := func(icon, label, value string) {
		lines = append(lines, fmt.Sprintf("%s <b>%s:</b> %s", icon, label, telegramEscaper.Replace(value)))
	}
	addOpt := func(icon, label string, value *string) {
		if value != nil && *value != "" {
			add(icon, label, *value)
		}
	}

	if b.Type == models.BookingTypeConsultation {
		lines = append(lines, "🔔 <b>New Consultation Booking</b>", "")
	} else {
		lines = append(lines, "🚀 <b>New Project Brief</b>", "")
	}
	add("📋", "Reference", b.Reference)
	add("👤", "Name", b.FullName)
	add("📧", "Email", b.Email)
	add("📱", "Phone", b.Phone)

	if b.Type == models.BookingTypeConsultation {
		if b.PreferredDate != nil {
			add("📅", "Date", b.PreferredDay().Format("January 2, 2006"))
		}
		addOpt("🕒", "Time", b.PreferredTime)
		addOpt("🔍", "Found us via", b.Source)
		addOpt("💬", "Notes", b.Description)
	} else {
		if b.Service != nil {
			add("🎯", "Service", models.ServiceLabel(*b.Service))
		}
		addOpt("💰", "Budget", b.BudgetRange)
		addOpt("⏰", "Timeline", b.Timeline)
		addOpt("🔍", "Found us via", b.Source)
		addOpt("📝", "Description", b.Description)
	}

	lines = append(lines, "", "Status: 🟢 New")
	return strings.Join(lines, "\n")
}
