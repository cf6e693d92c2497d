package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/db"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

const day = "2026-03-02"

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	gdb, err := db.NewMemoryDB(zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))
	return repository.NewStore(gdb)
}

func addProvider(t *testing.T, s *repository.Store, capacity int) *model.Provider {
	t.Helper()
	p := &model.Provider{UserID: uuid.New(), DisplayName: "Barber", DailyCapacity: capacity}
	require.NoError(t, s.Providers.Create(context.Background(), p))
	return p
}

func addAppointment(t *testing.T, s *repository.Store, p *model.Provider, status model.AppointmentStatus, number int) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		CustomerID:       uuid.New(),
		ProviderID:       p.ID,
		Date:             day,
		ServiceID:        uuid.New(),
		Status:           status,
		TotalDurationMin: 30,
	}
	if status.HoldsQueueNumber() {
		a.QueueNumber = &number
	}
	require.NoError(t, s.Appointments.Create(context.Background(), a))
	return a
}

func positions(t *testing.T, s *repository.Store, p *model.Provider) map[uuid.UUID]int {
	t.Helper()
	list, err := s.Appointments.ListPartition(context.Background(), p.ID, day, model.AppointmentStatusScheduled)
	require.NoError(t, err)
	out := make(map[uuid.UUID]int, len(list))
	for _, a := range list {
		out[a.ID] = a.Position()
	}
	return out
}

func TestEngine_NextPosition(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addProvider(t, s, 0)
	e := NewEngine(15, "")

	n, err := e.NextPosition(ctx, s, p.ID, day)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	addAppointment(t, s, p, model.AppointmentStatusScheduled, 1)
	addAppointment(t, s, p, model.AppointmentStatusScheduled, 4)
	// ongoing и pending не влияют
	addAppointment(t, s, p, model.AppointmentStatusOngoing, 0)
	addAppointment(t, s, p, model.AppointmentStatusPending, 0)

	n, err = e.NextPosition(ctx, s, p.ID, day)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestEngine_InsertUrgentShiftsScheduled(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addProvider(t, s, 0)
	e := NewEngine(15, "")

	a := addAppointment(t, s, p, model.AppointmentStatusScheduled, 1)
	b := addAppointment(t, s, p, model.AppointmentStatusScheduled, 2)
	c := addAppointment(t, s, p, model.AppointmentStatusScheduled, 3)
	serving := addAppointment(t, s, p, model.AppointmentStatusOngoing, 0)

	n, err := e.Assign(ctx, s, p.ID, day, true)
	require.NoError(t, err)
	require.Equal(t, UrgentPosition, n)

	require.Equal(t, map[uuid.UUID]int{a.ID: 2, b.ID: 3, c.ID: 4}, positions(t, s, p))

	got, err := s.Appointments.GetByID(ctx, serving.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Position())
}

func TestCheckCapacity(t *testing.T) {
	require.NoError(t, CheckCapacity(14, 15, false))
	require.NoError(t, CheckCapacity(15, 15, true))

	err := CheckCapacity(15, 15, false)
	require.True(t, apperrors.Is(err, apperrors.ErrorTypeCapacityExceeded))
}

func TestEngine_CapacityCountsPendingAndScheduled(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addProvider(t, s, 3)
	e := NewEngine(15, "")

	addAppointment(t, s, p, model.AppointmentStatusPending, 0)
	addAppointment(t, s, p, model.AppointmentStatusScheduled, 1)
	addAppointment(t, s, p, model.AppointmentStatusCancelled, 0)
	addAppointment(t, s, p, model.AppointmentStatusDone, 0)

	info, err := e.Capacity(ctx, s, p, day)
	require.NoError(t, err)
	require.Equal(t, CapacityInfo{Current: 2, Max: 3, Available: 1, IsFull: false}, info)
	require.NoError(t, e.CapacityCheck(ctx, s, p, day, false))

	addAppointment(t, s, p, model.AppointmentStatusPending, 0)
	err = e.CapacityCheck(ctx, s, p, day, false)
	require.True(t, apperrors.Is(err, apperrors.ErrorTypeCapacityExceeded))
	require.NoError(t, e.CapacityCheck(ctx, s, p, day, true))
}

func TestEngine_CapacityDefault(t *testing.T) {
	s := newStore(t)
	p := addProvider(t, s, 0)

	info, err := NewEngine(0, "").Capacity(context.Background(), s, p, day)
	require.NoError(t, err)
	require.EqualValues(t, model.DefaultDailyCapacity, info.Max)
}

func TestEngine_CompactGapTolerant(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addProvider(t, s, 0)
	e := NewEngine(15, CompactionGapTolerant)

	a := addAppointment(t, s, p, model.AppointmentStatusScheduled, 1)
	addAppointment(t, s, p, model.AppointmentStatusCancelled, 0)
	c := addAppointment(t, s, p, model.AppointmentStatusScheduled, 3)

	_, err := s.Partitions.Lock(ctx, p.ID, day)
	require.NoError(t, err)

	survivors, rev, err := e.Compact(ctx, s, p.ID, day)
	require.NoError(t, err)
	require.EqualValues(t, 1, rev)
	require.Len(t, survivors, 2)

	require.Equal(t, map[uuid.UUID]int{a.ID: 1, c.ID: 3}, positions(t, s, p))

	ranked := Ranked(survivors, 0)
	require.Equal(t, a.ID, ranked[0].Appointment.ID)
	require.Equal(t, 2, ranked[1].Rank)
	require.Equal(t, c.ID, ranked[1].Appointment.ID)
}

func TestEngine_CompactRenumber(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addProvider(t, s, 0)
	e := NewEngine(15, CompactionRenumber)

	b := addAppointment(t, s, p, model.AppointmentStatusScheduled, 2)
	d := addAppointment(t, s, p, model.AppointmentStatusScheduled, 4)

	_, err := s.Partitions.Lock(ctx, p.ID, day)
	require.NoError(t, err)

	survivors, _, err := e.Compact(ctx, s, p.ID, day)
	require.NoError(t, err)
	require.Equal(t, 1, survivors[0].Position())
	require.Equal(t, 2, survivors[1].Position())
	require.Equal(t, map[uuid.UUID]int{b.ID: 1, d.ID: 2}, positions(t, s, p))
}

func TestRanked_EstimatedWait(t *testing.T) {
	n1, n2, n5 := 1, 2, 5
	queue := []model.Appointment{
		{ID: uuid.New(), Status: model.AppointmentStatusScheduled, QueueNumber: &n5, TotalDurationMin: 20},
		{ID: uuid.New(), Status: model.AppointmentStatusScheduled, QueueNumber: &n1, TotalDurationMin: 45},
		{ID: uuid.New(), Status: model.AppointmentStatusPending},
		{ID: uuid.New(), Status: model.AppointmentStatusScheduled, QueueNumber: &n2},
	}

	entries := Ranked(queue, 0)
	require.Len(t, entries, 3)
	require.Equal(t, []int{1, 2, 5}, []int{
		entries[0].Appointment.Position(),
		entries[1].Appointment.Position(),
		entries[2].Appointment.Position(),
	})

	require.Zero(t, entries[0].EstimatedWait)
	require.Equal(t, 45*time.Minute, entries[1].EstimatedWait)
	// у второй длительность не сохранена, берётся средняя
	require.Equal(t, 45*time.Minute+DefaultServiceDuration, entries[2].EstimatedWait)
}

func TestFormatWait(t *testing.T) {
	require.Equal(t, "45 min", FormatWait(45*time.Minute))
	require.Equal(t, "1h 10m", FormatWait(70*time.Minute))
}
