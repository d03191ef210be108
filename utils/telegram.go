package utils

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	EmojiCheck       = "✅"
	EmojiGreenCircle = "🟢"
	EmojiWarning     = "⚠️"
)

const DefaultTelegramAPI = "https://api.telegram.org"

// APIError is returned when the Bot API answers with a non-2xx status.
type APIError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s %d: %s", e.Method, e.StatusCode, e.Body)
}

type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

func NewTelegram(apiURL, token, chatID string, timeout time.Duration) *Telegram {
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(timeout)

	return &Telegram{
		client: client,
		token:  token,
		chatID: chatID,
	}
}

func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatID != ""
}

func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	if !t.Configured() {
		slog.Warn("telegram not configured, message not sent", slog.String("text", text))
		return nil
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(t.endpoint("sendMessage"))
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !resp.IsSuccess() {
		return &APIError{Method: "sendMessage", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	slog.Debug("telegram message sent")
	return nil
}

func (t *Telegram) SendPhoto(ctx context.Context, caption string, png []byte) error {
	if !t.Configured() {
		slog.Warn("telegram not configured, photo not sent", slog.String("caption", caption))
		return nil
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"chat_id":    t.chatID,
			"caption":    caption,
			"parse_mode": "HTML",
		}).
		SetMultipartField("photo", "proof.png", "image/png", bytes.NewReader(png)).
		Post(t.endpoint("sendPhoto"))
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	if !resp.IsSuccess() {
		return &APIError{Method: "sendPhoto", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	slog.Debug("telegram photo sent")
	return nil
}

func (t *Telegram) endpoint(method string) string {
	return "/bot" + t.token + "/" + method
}
