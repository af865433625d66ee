package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Client talks to the two Bitrix24 surfaces the bot needs: the Drive
// folder-listing API (document fetch) and the incoming-webhook imbot API
// (message delivery).
type Client struct {
	folderListURL string
	incomingURL   string
	client        *http.Client
}

// FileEntry is one file in a Drive folder listing.
type FileEntry struct {
	Name        string `json:"NAME"`
	DownloadURL string `json:"DOWNLOAD_URL"`
}

type childrenResponse struct {
	Result []FileEntry `json:"result"`
}

// button mirrors the KEYBOARD.BUTTONS entry of imbot.message.add.
type button struct {
	Text      string `json:"TEXT"`
	Command   string `json:"COMMAND"`
	BgColor   string `json:"BG_COLOR"`
	TextColor string `json:"TEXT_COLOR"`
}

type keyboard struct {
	Buttons []button `json:"BUTTONS"`
}

type messagePayload struct {
	BotID    string    `json:"BOT_ID"`
	DialogID string    `json:"DIALOG_ID"`
	Message  string    `json:"MESSAGE"`
	Keyboard *keyboard `json:"KEYBOARD,omitempty"`
	ClientID string    `json:"CLIENT_ID"`
}

func NewClient(folderListURL, incomingURL string) *Client {
	return &Client{
		folderListURL: folderListURL,
		incomingURL:   incomingURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetChildren lists the contents of a Drive folder.
func (c *Client) GetChildren(ctx context.Context, folderID string) ([]FileEntry, error) {
	u, err := url.Parse(c.folderListURL)
	if err != nil {
		return nil, fmt.Errorf("invalid folder listing URL: %w", err)
	}
	q := u.Query()
	q.Set("id", folderID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("folder listing failed with status %d: %s", resp.StatusCode, string(body))
	}

	var children childrenResponse
	if err := json.NewDecoder(resp.Body).Decode(&children); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.Debug().
		Str("folder_id", folderID).
		Int("entries", len(children.Result)).
		Msg("Listed Drive folder")

	return children.Result, nil
}

// DownloadFile fetches raw file bytes from a Drive download URL.
func (c *Client) DownloadFile(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download failed with status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}

	log.Debug().
		Int("bytes", len(data)).
		Msg("Downloaded file from Drive")

	return data, nil
}

// FetchDocument lists the folder, finds the entry whose name exactly matches
// fileName and downloads its content.
func (c *Client) FetchDocument(ctx context.Context, folderID, fileName string) ([]byte, error) {
	entries, err := c.GetChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.Name == fileName {
			return c.DownloadFile(ctx, entry.DownloadURL)
		}
	}

	return nil, fmt.Errorf("file %q not found in folder %s", fileName, folderID)
}

// MaxMessageLength is the Bitrix24 message size limit used for chunking.
const MaxMessageLength = 4096

// SplitMessage splits a long message into chunks of at most maxLength runes.
func SplitMessage(message string, maxLength int) []string {
	runes := []rune(message)
	var parts []string
	for start := 0; start < len(runes); start += maxLength {
		end := start + maxLength
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

// SendMessage posts a text message into the given dialog. Texts above the
// platform limit are split and posted chunk by chunk.
func (c *Client) SendMessage(ctx context.Context, chatID, message, botID, authToken string) error {
	for _, part := range SplitMessage(message, MaxMessageLength) {
		payload := messagePayload{
			BotID:    botID,
			DialogID: chatID,
			Message:  part,
			ClientID: authToken,
		}
		if err := c.postMessage(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

// SendButton posts the start prompt with a single clickable button whose
// command is echoed back as the next inbound message.
func (c *Client) SendButton(ctx context.Context, chatID, botID, authToken string) error {
	payload := messagePayload{
		BotID:    botID,
		DialogID: chatID,
		Message:  "Нажмите кнопку ниже, чтобы начать:",
		Keyboard: &keyboard{
			Buttons: []button{
				{
					Text:      "Привет",
					Command:   "привет",
					BgColor:   "#2961c2",
					TextColor: "#fff",
				},
			},
		},
		ClientID: authToken,
	}
	return c.postMessage(ctx, payload)
}

func (c *Client) postMessage(ctx context.Context, payload messagePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.incomingURL+"/imbot.message.add", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("imbot.message.add failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Debug().
		Str("dialog_id", payload.DialogID).
		Int("message_len", len(payload.Message)).
		Msg("Delivered message to Bitrix24")

	return nil
}
