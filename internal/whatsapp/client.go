// Package whatsapp is a thin client for the WBOX WhatsApp cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

type Config struct {
	BaseURL  string
	APIKey   string
	Channel  string
	Language string
	Timeout  time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Language is the template language code sent with every message.
func (c *Client) Language() string { return c.cfg.Language }

func (c *Client) CreateTemplate(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "create-templates/"+url.PathEscape(c.cfg.Channel), payload)
}

func (c *Client) SyncTemplate(ctx context.Context, name string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "sync-templates/"+url.PathEscape(name), nil)
}

func (c *Client) ListTemplates(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "templates", nil)
}

// SendTemplate sends one template message to every recipient in msg.To.
func (c *Client) SendTemplate(ctx context.Context, msg TemplateMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "messages/send-template/"+url.PathEscape(c.cfg.Channel), msg)
}

// SendText sends a free-form text to a single recipient.
func (c *Client) SendText(ctx context.Context, to, body string) (json.RawMessage, error) {
	msg := TextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             model.MediaText,
		Text:             TextBody{Body: body},
	}
	return c.do(ctx, http.MethodPost, "messages/send-text/"+url.PathEscape(c.cfg.Channel), msg)
}

// UploadMedia stores a header image or video with the provider. The returned
// handle goes into the template definition, the URL into template sends.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, content []byte) (*UploadedMedia, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("create upload part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write upload part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close upload: %w", err)
	}

	raw, err := c.call(ctx, http.MethodPost, "uploads/"+url.PathEscape(c.cfg.Channel), &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var out struct {
		Data UploadedMedia `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Data.Handle == "" || out.Data.URL == "" {
		return nil, &appErrors.ErrUpstream{StatusCode: http.StatusBadGateway, Body: raw}
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.call(ctx, method, path, reader, contentType)
}

func (c *Client) call(ctx context.Context, method, path string, body io.Reader, contentType string) (json.RawMessage, error) {
	endpoint := c.cfg.BaseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("apikey", c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("wbox call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &appErrors.ErrUpstream{StatusCode: resp.StatusCode, Body: respBody}
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(respBody) {
		quoted, _ := json.Marshal(string(respBody))
		return quoted, nil
	}
	return respBody, nil
}
