package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var ErrNotifierClosed = errors.New("notifier is closed")

// 信件樣板名稱
const (
	TemplateVendorNewOrder    = "vendor_new_order"
	TemplateCustomerConfirmed = "customer_order_confirmation"
	TemplateAdminNewOrder     = "admin_new_order"
	TemplatePaymentReceived   = "customer_payment_received"
)

// Notification 寄信請求，下游 email worker 依 template 套版寄送
type Notification struct {
	Template  string         `json:"template"`
	Recipient string         `json:"recipient"`
	Data      map[string]any `json:"data"`
	// 同一張訂單的通知進同一個 partition
	Key string `json:"-"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close() error
}

// MessageWriter kafka.Writer 的子集合，測試時可替換
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaNotifier struct {
	writer        MessageWriter
	topic         string
	retryAttempts int
	closed        atomic.Bool
}

func NewKafkaNotifier(brokers []string, topic string, logger *zerolog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,

		// 重試機制設置
		MaxAttempts: 3,

		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Str("component", "kafka_notifier").Msgf(msg, args...)
		}),

		Compression: kafka.Snappy,
	}
	return NewKafkaNotifierWithWriter(writer, topic)
}

func NewKafkaNotifierWithWriter(writer MessageWriter, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, topic: topic, retryAttempts: 2}
}

// Notify 同步寫入，會block到 broker 確認
func (p *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	if p.closed.Load() {
		return ErrNotifierClosed
	}
	msg, err := p.convertToMessage(n)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		// 檢查外部 context 是否已經取消
		if ctx.Err() != nil {
			return fmt.Errorf("notify %s: %w", p.topic, ctx.Err())
		}
		err = p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		if attempt >= p.retryAttempts || !isTemporary(err) {
			return fmt.Errorf("notify %s: %w", p.topic, err)
		}
	}
}

func (p *KafkaNotifier) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaNotifier) convertToMessage(n Notification) (kafka.Message, error) {
	value, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(n.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "template", Value: []byte(n.Template)},
		},
	}, nil
}

func isTemporary(err error) bool {
	if errors.Is(err, kafka.LeaderNotAvailable) ||
		errors.Is(err, kafka.NotLeaderForPartition) ||
		errors.Is(err, kafka.RequestTimedOut) ||
		errors.Is(err, kafka.RebalanceInProgress) {
		return true
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	return false
}

// LogNotifier 沒有設定 kafka 時使用，只記錄不寄送
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.Info().
		Str("template", n.Template).
		Str("recipient", n.Recipient).
		Str("key", n.Key).
		Interface("data", n.Data).
		Msg("notification")
	return nil
}

func (l *LogNotifier) Close() error {
	return nil
}
