// Package telegram posts operational notifications to a Telegram chat through
// the Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"journal-portal/config"
	"journal-portal/models"
)

const apiBase = "https://api.telegram.org"

// Notifier sends messages to the configured admin chat. A Notifier with an
// empty bot token is disabled and drops all messages.
type Notifier struct {
	cfg    *config.Config
	log    *zap.Logger
	client *http.Client
}

func NewNotifier(cfg *config.Config, log *zap.Logger) *Notifier {
	return &Notifier{
		cfg: cfg,
		log: log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether a bot token and chat are configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.TelegramBotToken != "" && n.cfg.TelegramChatID != ""
}

// NotifySubmission announces a new article submission in the admin chat.
func (n *Notifier) NotifySubmission(ctx context.Context, sub *models.ArticleSubmission) error {
	text := fmt.Sprintf(
		"<b>Yangi maqola yuborildi</b>\nMuallif: %s\nEmail: %s\nTelefon: %s\nSoha: %s",
		sub.AuthorName, sub.Email, sub.Phone, sub.Field,
	)
	return n.sendMessage(ctx, text)
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	if !n.Enabled() {
		return nil
	}

	form := url.Values{}
	form.Set("chat_id", n.cfg.TelegramChatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", apiBase, n.cfg.TelegramBotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send: unexpected status %d", resp.StatusCode)
	}
	n.log.Info("telegram notification sent")
	return nil
}
