package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// MessageWriter — то, что нужно от *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier публикует уведомления в топик для внешних доставщиков (push, sms).
// Ключ сообщения — получатель, чтобы уведомления одного пользователя шли по порядку.
type KafkaNotifier struct {
	writer MessageWriter
	now    func() time.Time
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: time.Now}
}

type kafkaNotice struct {
	EventID       string         `json:"event_id"`
	UserID        string         `json:"user_id"`
	AppointmentID string         `json:"appointment_id"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	Category      string         `json:"category"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notice) error {
	eventID := uuid.NewString()
	value, err := json.Marshal(kafkaNotice{
		EventID:       eventID,
		UserID:        n.UserID.String(),
		AppointmentID: n.AppointmentID.String(),
		Title:         n.Title,
		Message:       n.Message,
		Category:      n.Category,
		Payload:       n.Payload,
		CreatedAt:     k.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode kafka notice: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(n.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(n.Category)},
		},
	}
	carrier := &headerCarrier{headers: msg.Headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	msg.Headers = carrier.headers

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

// headerCarrier — W3C trace context поверх заголовков kafka.
type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range c.headers {
		if h.Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
