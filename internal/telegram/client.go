package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a thin Telegram Bot API client. It supports https and socks5
// proxies through the standard transport and throttles outgoing calls to
// stay under the Bot API flood limits.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a Telegram client. proxyURL may be empty for a direct
// connection; socks5://, http:// and https:// schemes are accepted.
func NewClient(token, proxyURL string, logger zerolog.Logger) (*Client, error) {
	transport := &http.Transport{
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(parsed)
		logger.Info().
			Str("scheme", parsed.Scheme).
			Str("host", parsed.Host).
			Msg("Telegram proxy enabled")
	} else {
		logger.Info().Msg("Telegram proxy disabled, connecting directly")
	}

	return &Client{
		token:   token,
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   90 * time.Second,
		},
		// Bot API allows ~30 messages per second overall.
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		logger:  logger.With().Str("component", "telegram_client").Logger(),
	}, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// call invokes one Bot API method and decodes its result envelope.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: api error %d: %s", method, envelope.ErrorCode, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// SendMessage delivers a plain text message to a chat. The target may be a
// numeric chat id or an @channel username. Implements domain.Notifier.
func (c *Client) SendMessage(ctx context.Context, target, text string) error {
	return c.SendMessageWithMarkup(ctx, target, text, nil)
}

// SendMessageWithMarkup delivers a text message with an optional reply or
// inline keyboard.
func (c *Client) SendMessageWithMarkup(ctx context.Context, target, text string, markup any) error {
	params := map[string]any{
		"chat_id": chatIDParam(target),
		"text":    text,
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	return c.call(ctx, "sendMessage", params, nil)
}

// AnswerCallbackQuery acknowledges an inline-keyboard button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil)
}

// GetMe returns the bot's own account, used as a startup connectivity check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for new updates starting after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// DownloadFile fetches the content of a file uploaded to the bot, such as a
// receipt photo, via getFile and the file endpoint.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	var file File
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("telegram getFile: empty file path for %s", fileID)
	}

	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram file download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// chatIDParam passes numeric ids as JSON numbers and @usernames as strings,
// matching what the Bot API expects for each form.
func chatIDParam(target string) any {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "@") {
		return target
	}
	var id int64
	if _, err := fmt.Sscanf(target, "%d", &id); err == nil {
		return id
	}
	return target
}
