// Package webhook dispatches inbound Bitrix24 bot events.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bitrix_material_bot/internal/catalog"

	"github.com/rs/zerolog/log"
)

// Sender delivers bot replies into a Bitrix24 dialog.
type Sender interface {
	SendMessage(ctx context.Context, chatID, message, botID, authToken string) error
	SendButton(ctx context.Context, chatID, botID, authToken string) error
}

// greetings are the keywords that trigger the welcome message.
var greetings = map[string]bool{
	"привет": true,
	"начать": true,
	"hello":  true,
	"hi":     true,
	"start":  true,
}

const welcomeMessage = "Привет! 👋\n" +
	"Я помощник для поиска информации по материалам из базы Ф-ТД-008.\n" +
	"Чтобы начать, просто введите ID или заказной номер материала, и я предоставлю вам необходимую информацию.\n\n" +
	"По вопросам работы инструмента, улучшениям и предложениям обращайтесь к Гаврилову Михаилу.\n" +
	"📧E-mail: Gavrilov.Mikhail@vsmservice.ru"

const notFoundMessage = "Не найдено совпадений.\n" +
	"Если вы видите это сообщение, значит запрашиваемый вами материал не внесен в базу Ф-ТД-008."

// Handler answers material lookup requests against a table loaded once at
// startup. The table is never mutated, so it is shared across requests
// without locking.
type Handler struct {
	table  []catalog.Row
	sender Sender
	botKey string
}

func NewHandler(table []catalog.Row, sender Sender, botKey string) *Handler {
	return &Handler{
		table:  table,
		sender: sender,
		botKey: botKey,
	}
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeResponse(w http.ResponseWriter, statusCode int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response{Status: status, Message: message}); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Panic while handling webhook")
			writeResponse(w, http.StatusInternalServerError, "error", "Внутренняя ошибка сервера")
		}
	}()

	contentType := r.Header.Get("Content-Type")
	log.Info().Str("content_type", contentType).Msg("Received webhook request")

	switch {
	case strings.Contains(contentType, "application/json"):
		// JSON events are not handled yet; reject them outright.
		writeResponse(w, http.StatusBadRequest, "error", "JSON пока не поддерживается")

	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		h.handleForm(w, r)

	default:
		log.Warn().Str("content_type", contentType).Msg("Unknown content type")
		writeResponse(w, http.StatusUnsupportedMediaType, "error", "Неподдерживаемый формат данных")
	}
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Failed to parse form data")
		writeResponse(w, http.StatusBadRequest, "error", "Недостаточно данных")
		return
	}

	payload := parsePayload(r.PostForm, h.botKey)

	log.Info().
		Str("message_text", payload.Message).
		Str("chat_id", payload.ChatID).
		Str("user_id", payload.UserID).
		Msg("Parsed webhook payload")

	if payload.Message == "" || payload.ChatID == "" {
		log.Warn().
			Str("message_text", payload.Message).
			Str("chat_id", payload.ChatID).
			Msg("Insufficient data to handle request")
		writeResponse(w, http.StatusBadRequest, "error", "Недостаточно данных")
		return
	}

	ctx := r.Context()

	if greetings[payload.Message] {
		h.deliver(ctx, payload, welcomeMessage)
		writeResponse(w, http.StatusOK, "success", "Приветственное сообщение отправлено")
		return
	}

	if payload.Message == "" {
		if err := h.sender.SendButton(ctx, payload.ChatID, payload.BotID, payload.AuthToken); err != nil {
			log.Error().Err(err).Str("chat_id", payload.ChatID).Msg("Failed to send button")
		}
		writeResponse(w, http.StatusOK, "success", "Кнопка отправлена")
		return
	}

	message := notFoundMessage
	if row, ok := catalog.Lookup(h.table, payload.Message); ok {
		log.Info().
			Str("sheet", row.Sheet).
			Str("query", payload.Message).
			Msg("Found matching row")
		message = catalog.FormatRow(row)
	} else {
		log.Info().Str("query", payload.Message).Msg("No matching row")
	}

	h.deliver(ctx, payload, message)
	writeResponse(w, http.StatusOK, "success", "Сообщение обработано")
}

// deliver sends the reply before the inbound response is written; delivery
// failures are logged and never surface to the caller.
func (h *Handler) deliver(ctx context.Context, payload Payload, message string) {
	if err := h.sender.SendMessage(ctx, payload.ChatID, message, payload.BotID, payload.AuthToken); err != nil {
		log.Error().Err(err).Str("chat_id", payload.ChatID).Msg("Failed to send message")
	}
}
