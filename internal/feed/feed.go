// Package feed — лента изменений очереди поверх Redis Pub/Sub.
//
// Сигнал только сообщает, что партиция изменилась. Получатель перечитывает
// состояние из хранилища, payload авторитетом не является.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Виды сигналов.
const (
	KindSubmitted   = "submitted"
	KindTransition  = "transition"
	KindQueueChange = "queue_changed"
)

// Signal — уведомление об изменении партиции.
type Signal struct {
	Kind          string    `json:"kind"`
	ProviderID    uuid.UUID `json:"provider_id"`
	Date          string    `json:"date"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to,omitempty"`
	Revision      int64     `json:"revision"`
	At            time.Time `json:"at"`
}

type Feed interface {
	Publish(ctx context.Context, channel string, s Signal) error
	// Канал закрывается, когда ctx отменён или лента закрыта.
	Subscribe(ctx context.Context, channel string) (<-chan Signal, error)
	Close() error
}

func ProviderChannel(providerID uuid.UUID) string {
	return fmt.Sprintf("queue:provider:%s", providerID)
}

func PartitionChannel(providerID uuid.UUID, date string) string {
	return fmt.Sprintf("queue:provider:%s:%s", providerID, date)
}

func CustomerChannel(customerID uuid.UUID) string {
	return fmt.Sprintf("queue:customer:%s", customerID)
}

// Channels — все каналы, в которые уходит сигнал.
func Channels(s Signal) []string {
	channels := []string{
		ProviderChannel(s.ProviderID),
		PartitionChannel(s.ProviderID, s.Date),
	}
	if s.CustomerID != uuid.Nil {
		channels = append(channels, CustomerChannel(s.CustomerID))
	}
	return channels
}

// Broadcast публикует сигнал во все его каналы и возвращает первую ошибку.
func Broadcast(ctx context.Context, f Feed, s Signal) error {
	var first error
	for _, ch := range Channels(s) {
		if err := f.Publish(ctx, ch, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Nop — лента выключена. Subscribe отдаёт канал, который закроется вместе с ctx.
type Nop struct{}

func (Nop) Publish(context.Context, string, Signal) error { return nil }

func (Nop) Subscribe(ctx context.Context, _ string) (<-chan Signal, error) {
	ch := make(chan Signal)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (Nop) Close() error { return nil }
