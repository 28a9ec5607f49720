package gateway

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

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// 金流交易狀態
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// webhook 事件
const EventChargeSuccess = "charge.success"

type IPaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*Transaction, error)
	VerifySignature(body []byte, signature string) bool
}

// InitializeRequest amount 為最小貨幣單位
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction verify 與 webhook 共用的交易資料
type Transaction struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Fees      int64  `json:"fees"`
	Channel   string `json:"channel"`
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
	// 原始內容，寫入 payment.details
	Raw json.RawMessage `json:"-"`
}

func (t *Transaction) Succeeded() bool {
	return t.Status == StatusSuccess
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	client      *http.Client
}

func NewClient(baseURL, secretKey, callbackURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secretKey:   secretKey,
		callbackURL: callbackURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Initialize 建立 hosted checkout，回傳導轉網址
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding initialize request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("decoding initialize response: %w", err))
	}
	if result.AuthorizationURL == "" {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("initialize response missing authorization url"))
	}
	return &result, nil
}

// Verify 以 reference 查詢交易狀態
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	return ParseTransaction(data)
}

func ParseTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("decoding transaction: %w", err))
	}
	tx.Raw = append(json.RawMessage(nil), data...)
	return &tx, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("reading response: %w", err))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err))
	}
	if resp.StatusCode >= 300 || !env.Status {
		return nil, apperr.ErrGateway.Wrap(fmt.Errorf("gateway responded %d: %s", resp.StatusCode, env.Message))
	}
	return env.Data, nil
}
