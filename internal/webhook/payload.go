package webhook

import (
	"fmt"
	"net/url"
	"strings"
)

// Payload is the set of fields extracted from a form-encoded Bitrix24
// webhook request. Fields the platform did not send stay empty.
type Payload struct {
	// Message is the inbound text, trimmed and lower-cased.
	Message   string
	UserID    string
	ChatID    string
	BotID     string
	AuthToken string
}

// parsePayload extracts the bracketed form fields. botKey is the bot id
// segment of the data[BOT][<id>][BOT_ID] field name. The chat id falls back
// to the to-chat field when empty.
func parsePayload(form url.Values, botKey string) Payload {
	chatID := form.Get("data[PARAMS][CHAT_ID]")
	if chatID == "" {
		chatID = form.Get("data[PARAMS][TO_CHAT_ID]")
	}

	return Payload{
		Message:   normalizeMessage(form.Get("data[PARAMS][MESSAGE]")),
		UserID:    form.Get("data[PARAMS][FROM_USER_ID]"),
		ChatID:    chatID,
		BotID:     form.Get(fmt.Sprintf("data[BOT][%s][BOT_ID]", botKey)),
		AuthToken: form.Get("auth[application_token]"),
	}
}

func normalizeMessage(text string) string {
	return strings.ToLower(strings.Trim(text, "\r\n\t "))
}
