package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

// StoreNotifier пишет уведомление во внутренний inbox пользователя.
type StoreNotifier struct {
	repo repository.NotificationRepository
}

func NewStoreNotifier(repo repository.NotificationRepository) *StoreNotifier {
	return &StoreNotifier{repo: repo}
}

func (s *StoreNotifier) Notify(ctx context.Context, n Notice) error {
	payload, err := encodePayload(n)
	if err != nil {
		return err
	}

	row := &model.Notification{
		UserID:   n.UserID,
		Title:    n.Title,
		Message:  n.Message,
		Category: n.Category,
		Payload:  datatypes.JSON(payload),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// В payload всегда есть appointment_id.
func encodePayload(n Notice) ([]byte, error) {
	data := make(map[string]any, len(n.Payload)+1)
	for k, v := range n.Payload {
		data[k] = v
	}
	data["appointment_id"] = n.AppointmentID.String()

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode notification payload: %w", err)
	}
	return raw, nil
}
