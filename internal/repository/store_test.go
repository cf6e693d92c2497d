package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/appointment-queue/internal/db"
	"github.com/Leganyst/appointment-queue/internal/model"
)

const testDate = "2026-03-02"

func newTestStore(t *testing.T) *Store {
	t.Helper()

	gdb, err := db.NewMemoryDB(zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(gdb)
}

func seedProvider(t *testing.T, s *Store) *model.Provider {
	t.Helper()
	p := &model.Provider{UserID: uuid.New(), DisplayName: "Barber"}
	require.NoError(t, s.Providers.Create(context.Background(), p))
	return p
}

func seedAppointment(t *testing.T, s *Store, providerID uuid.UUID, status model.AppointmentStatus, number *int) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		CustomerID:  uuid.New(),
		ProviderID:  providerID,
		Date:        testDate,
		ServiceID:   uuid.New(),
		Status:      status,
		QueueNumber: number,
	}
	require.NoError(t, s.Appointments.Create(context.Background(), a))
	return a
}

func intPtr(v int) *int { return &v }

func TestAppointmentRepository_QueueQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProvider(t, s)

	max, err := s.Appointments.MaxQueueNumber(ctx, p.ID, testDate)
	require.NoError(t, err)
	require.Zero(t, max)

	a := seedAppointment(t, s, p.ID, model.AppointmentStatusScheduled, intPtr(1))
	b := seedAppointment(t, s, p.ID, model.AppointmentStatusScheduled, intPtr(3))
	seedAppointment(t, s, p.ID, model.AppointmentStatusPending, nil)
	seedAppointment(t, s, p.ID, model.AppointmentStatusOngoing, intPtr(0))

	max, err = s.Appointments.MaxQueueNumber(ctx, p.ID, testDate)
	require.NoError(t, err)
	require.Equal(t, 3, max)

	count, err := s.Appointments.CountByStatus(ctx, p.ID, testDate, model.AppointmentStatusPending, model.AppointmentStatusScheduled)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	shifted, err := s.Appointments.ShiftQueue(ctx, p.ID, testDate, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, shifted)

	list, err := s.Appointments.ListPartition(ctx, p.ID, testDate, model.AppointmentStatusScheduled)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, a.ID, list[0].ID)
	require.Equal(t, 2, list[0].Position())
	require.Equal(t, b.ID, list[1].ID)
	require.Equal(t, 4, list[1].Position())

	// ongoing не сдвигается
	ongoing, err := s.Appointments.ListPartition(ctx, p.ID, testDate, model.AppointmentStatusOngoing)
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	require.Equal(t, 0, ongoing[0].Position())
}

func TestAppointmentRepository_UpdateIfStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProvider(t, s)
	a := seedAppointment(t, s, p.ID, model.AppointmentStatusPending, nil)

	err := s.Appointments.UpdateIfStatus(ctx, a.ID, model.AppointmentStatusPending, map[string]any{
		"status":       model.AppointmentStatusScheduled,
		"queue_number": 1,
	})
	require.NoError(t, err)

	err = s.Appointments.UpdateIfStatus(ctx, a.ID, model.AppointmentStatusPending, map[string]any{
		"status": model.AppointmentStatusCancelled,
	})
	require.ErrorIs(t, err, ErrStatusChanged)

	got, err := s.Appointments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, model.AppointmentStatusScheduled, got.Status)
	require.Equal(t, 1, got.Position())
}

func TestAppointmentRepository_OneOngoingPerPartition(t *testing.T) {
	s := newTestStore(t)
	p := seedProvider(t, s)
	seedAppointment(t, s, p.ID, model.AppointmentStatusOngoing, intPtr(0))

	second := &model.Appointment{
		CustomerID:  uuid.New(),
		ProviderID:  p.ID,
		Date:        testDate,
		ServiceID:   uuid.New(),
		Status:      model.AppointmentStatusOngoing,
		QueueNumber: intPtr(0),
	}
	require.Error(t, s.Appointments.Create(context.Background(), second))
}

func TestAppointmentRepository_ListPendingUrgentFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProvider(t, s)

	plain := seedAppointment(t, s, p.ID, model.AppointmentStatusPending, nil)
	urgent := &model.Appointment{
		CustomerID: uuid.New(),
		ProviderID: p.ID,
		Date:       testDate,
		ServiceID:  uuid.New(),
		Status:     model.AppointmentStatusPending,
		IsUrgent:   true,
		CreatedAt:  time.Now().UTC().Add(time.Minute),
	}
	require.NoError(t, s.Appointments.Create(ctx, urgent))

	list, total, err := s.Appointments.ListPending(ctx, p.ID, "", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, urgent.ID, list[0].ID)
	require.Equal(t, plain.ID, list[1].ID)

	page, total, err := s.Appointments.ListPending(ctx, p.ID, testDate, 1, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, page, 1)
	require.Equal(t, plain.ID, page[0].ID)
}

func TestPartitionRepository_LockAndBump(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProvider(t, s)

	rev, err := s.Partitions.Revision(ctx, p.ID, testDate)
	require.NoError(t, err)
	require.Zero(t, rev)

	err = s.Transaction(ctx, func(tx *Store) error {
		part, err := tx.Partitions.Lock(ctx, p.ID, testDate)
		require.NoError(t, err)
		require.Zero(t, part.Revision)

		// повторная блокировка в той же транзакции не создаёт вторую строку
		_, err = tx.Partitions.Lock(ctx, p.ID, testDate)
		require.NoError(t, err)

		rev, err := tx.Partitions.Bump(ctx, p.ID, testDate)
		require.NoError(t, err)
		require.EqualValues(t, 1, rev)
		return nil
	})
	require.NoError(t, err)

	rev, err = s.Partitions.Revision(ctx, p.ID, testDate)
	require.NoError(t, err)
	require.EqualValues(t, 1, rev)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProvider(t, s)
	sentinel := errors.New("boom")

	var id uuid.UUID
	err := s.Transaction(ctx, func(tx *Store) error {
		a := seedAppointment(t, tx, p.ID, model.AppointmentStatusPending, nil)
		id = a.ID
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Appointments.GetByID(ctx, id)
	require.Error(t, err)
}

func TestProviderRepository_SetAvailability(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProvider(t, s)
	require.Equal(t, model.ProviderAvailable, p.Availability)

	require.NoError(t, s.Providers.SetAvailability(ctx, p.ID, model.ProviderOffline))
	got, err := s.Providers.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.ProviderOffline, got.Availability)

	require.Error(t, s.Providers.SetAvailability(ctx, uuid.New(), model.ProviderBusy))
}

func TestNotificationRepository_ListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := uuid.New()

	n := &model.Notification{UserID: user, Title: "Appointment Confirmed!", Message: "#1", Category: "appointment_confirmed"}
	require.NoError(t, s.Notifications.Create(ctx, n))

	list, err := s.Notifications.ListByUser(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, list[0].IsRead)

	require.NoError(t, s.Notifications.MarkRead(ctx, n.ID))
	list, err = s.Notifications.ListByUser(ctx, user, 0)
	require.NoError(t, err)
	require.True(t, list[0].IsRead)
	require.NotNil(t, list[0].ReadAt)
}
