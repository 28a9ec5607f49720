package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

func mac(body []byte, secret string) []byte {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write(body)
	return h.Sum(nil)
}

// Sign HMAC-SHA512(body, secret) 的 hex 字串
func Sign(body []byte, secret string) string {
	return hex.EncodeToString(mac(body, secret))
}

// VerifySignature 重新計算簽章並以固定時間比對
func (c *Client) VerifySignature(body []byte, signature string) bool {
	return VerifySignature(body, signature, c.secretKey)
}

func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(mac(body, secret), got)
}

// WebhookEvent 簽章驗證通過後才可以解析
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, *Transaction, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, nil, apperr.ErrInvalidRequest.Wrap(fmt.Errorf("decoding webhook: %w", err))
	}
	if len(evt.Data) == 0 {
		return &evt, nil, nil
	}
	tx, err := ParseTransaction(evt.Data)
	if err != nil {
		return nil, nil, apperr.ErrInvalidRequest.Wrap(err)
	}
	return &evt, tx, nil
}
