package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TelegramSink posts messages through the Telegram Bot API. The recipient is
// the chat id.
type TelegramSink struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewTelegramSink(botToken string) *TelegramSink {
	return &TelegramSink{
		endpoint: "https://api.telegram.org/bot" + botToken + "/sendMessage",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.With().Str("component", "telegram_sink").Logger(),
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (s *TelegramSink) Notify(ctx context.Context, recipient, message string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                recipient,
		Text:                  message,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encode sendMessage: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("chat_id", recipient).Msg("telegram delivery failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn().Int("status", resp.StatusCode).Str("chat_id", recipient).Msg("telegram rejected message")
		return fmt.Errorf("telegram sendMessage returned %d", resp.StatusCode)
	}
	return nil
}
