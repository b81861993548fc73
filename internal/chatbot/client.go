package chatbot

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

	"go.uber.org/zap"

	"complaint-chat/internal/domain"
)

// Client es el adaptador de transporte hacia la API del chatbot.
type Client interface {
	SendMessage(ctx context.Context, text string, sc domain.SessionContext, history []domain.HistoryEntry) (domain.Reply, error)
	RateMessage(ctx context.Context, messageID string, rating domain.Rating, feedback string) error
	FAQCategories(ctx context.Context) ([]domain.FAQCategory, error)
	FAQsByCategory(ctx context.Context, categoryID string) ([]domain.FAQ, error)
	SearchFAQ(ctx context.Context, query string) ([]domain.FAQ, error)
}

// StatusError se devuelve cuando la API responde con un código no 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatbot http error: status=%d", e.StatusCode)
}

// HTTPClient implementa Client contra la API REST /chatbot. No reintenta.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithToken devuelve una copia que autentica con el bearer token dado.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	cp := *c
	cp.token = token
	return &cp
}

func (c *HTTPClient) SendMessage(ctx context.Context, text string, sc domain.SessionContext, history []domain.HistoryEntry) (domain.Reply, error) {
	req := MessageRequest{
		Message:   text,
		SessionID: sc.SessionID,
		Context:   NewWireContext(sc, history),
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/chatbot/message", req, &resp); err != nil {
		return domain.Reply{}, err
	}
	return resp.ToReply(), nil
}

func (c *HTTPClient) RateMessage(ctx context.Context, messageID string, rating domain.Rating, feedback string) error {
	req := RateRequest{
		MessageID: messageID,
		Rating:    string(rating),
		Feedback:  feedback,
	}
	return c.do(ctx, http.MethodPost, "/chatbot/rate", req, nil)
}

func (c *HTTPClient) FAQCategories(ctx context.Context) ([]domain.FAQCategory, error) {
	var resp struct {
		Categories []domain.FAQCategory `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/chatbot/faq/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *HTTPClient) FAQsByCategory(ctx context.Context, categoryID string) ([]domain.FAQ, error) {
	var resp struct {
		FAQs []domain.FAQ `json:"faqs"`
	}
	path := "/chatbot/faq/" + url.PathEscape(categoryID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.FAQs, nil
}

func (c *HTTPClient) SearchFAQ(ctx context.Context, query string) ([]domain.FAQ, error) {
	var resp struct {
		FAQs []domain.FAQ `json:"faqs"`
	}
	path := "/chatbot/faq/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.FAQs, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("chatbot api error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
