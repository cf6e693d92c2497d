package status

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/db"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/notify"
	"github.com/Leganyst/appointment-queue/internal/queue"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

const day = "2026-03-02"

type fixture struct {
	store    *repository.Store
	machine  *Machine
	provider *model.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.NewMemoryDB(zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	s := repository.NewStore(gdb)
	p := &model.Provider{UserID: uuid.New(), DisplayName: "Barber"}
	require.NoError(t, s.Providers.Create(context.Background(), p))

	return &fixture{
		store:    s,
		machine:  NewMachine(queue.NewEngine(15, queue.CompactionGapTolerant)),
		provider: p,
	}
}

func (f *fixture) add(t *testing.T, status model.AppointmentStatus, number int, urgent bool) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		CustomerID: uuid.New(),
		ProviderID: f.provider.ID,
		Date:       day,
		ServiceID:  uuid.New(),
		Status:     status,
		IsUrgent:   urgent,
	}
	if status.HoldsQueueNumber() {
		a.QueueNumber = &number
	}
	require.NoError(t, f.store.Appointments.Create(context.Background(), a))
	return a
}

// apply повторяет то, что делает контроллер: блокировка, перечитывание, переход.
func (f *fixture) apply(t *testing.T, id uuid.UUID, req Request) (*Outcome, error) {
	t.Helper()
	ctx := context.Background()
	var out *Outcome
	err := f.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Partitions.Lock(ctx, f.provider.ID, day); err != nil {
			return err
		}
		appt, err := tx.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		out, err = f.machine.Apply(ctx, tx, f.provider, appt, req)
		return err
	})
	return out, err
}

func (f *fixture) get(t *testing.T, id uuid.UUID) *model.Appointment {
	t.Helper()
	a, err := f.store.Appointments.GetByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func TestCanTransition(t *testing.T) {
	allowed := map[model.AppointmentStatus][]model.AppointmentStatus{
		model.AppointmentStatusPending:   {model.AppointmentStatusScheduled, model.AppointmentStatusCancelled},
		model.AppointmentStatusScheduled: {model.AppointmentStatusOngoing, model.AppointmentStatusCancelled},
		model.AppointmentStatusOngoing:   {model.AppointmentStatusDone},
	}
	all := []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusScheduled,
		model.AppointmentStatusOngoing,
		model.AppointmentStatusDone,
		model.AppointmentStatusCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			require.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	require.Empty(t, Next(model.AppointmentStatusDone))
}

func TestApply_InvalidTransitionNamesStatuses(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusPending, 0, false)

	_, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusDone, Origin: OriginProvider})
	require.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidTransition))
	require.Contains(t, err.Error(), `"pending"`)
	require.Contains(t, err.Error(), `"done"`)

	require.Equal(t, model.AppointmentStatusPending, f.get(t, a.ID).Status)
}

func TestApply_AcceptAssignsNextPosition(t *testing.T) {
	f := newFixture(t)
	f.add(t, model.AppointmentStatusScheduled, 1, false)
	f.add(t, model.AppointmentStatusScheduled, 2, false)
	a := f.add(t, model.AppointmentStatusPending, 0, false)

	out, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusScheduled, Origin: OriginProvider, ActorID: f.provider.UserID})
	require.NoError(t, err)
	require.Equal(t, model.AppointmentStatusPending, out.From)
	require.Equal(t, model.AppointmentStatusScheduled, out.Appointment.Status)
	require.Equal(t, 3, out.Appointment.Position())
	require.NotNil(t, out.Appointment.ConfirmedAt)
	require.EqualValues(t, 1, out.Revision)

	require.Len(t, out.Notices, 1)
	n := out.Notices[0]
	require.Equal(t, a.CustomerID, n.UserID)
	require.Equal(t, "Appointment Confirmed!", n.Title)
	require.Equal(t, 3, n.Payload["queue_number"])

	events, err := f.store.Events.ListByAppointment(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.EventTypeBookingAccepted, events[0].EventType)

	var details map[string]any
	require.NoError(t, json.Unmarshal(events[0].Details, &details))
	require.EqualValues(t, 3, details["queue_number"])
}

func TestApply_AcceptUrgentTakesHead(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusScheduled, 1, false)
	b := f.add(t, model.AppointmentStatusScheduled, 2, false)
	c := f.add(t, model.AppointmentStatusScheduled, 3, false)
	u := f.add(t, model.AppointmentStatusPending, 0, true)

	out, err := f.apply(t, u.ID, Request{To: model.AppointmentStatusScheduled, Origin: OriginProvider})
	require.NoError(t, err)
	require.Equal(t, 1, out.Appointment.Position())

	require.Equal(t, 2, f.get(t, a.ID).Position())
	require.Equal(t, 3, f.get(t, b.ID).Position())
	require.Equal(t, 4, f.get(t, c.ID).Position())
}

func TestApply_DeclineDefaultReason(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusPending, 0, false)

	out, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusCancelled, Origin: OriginProvider})
	require.NoError(t, err)
	require.Equal(t, ReasonDeclined, out.Appointment.CancellationReason)
	require.Nil(t, out.Appointment.QueueNumber)
	require.Equal(t, "Appointment Declined", out.Notices[0].Title)
	require.Equal(t, a.CustomerID, out.Notices[0].UserID)
}

func TestApply_StartRequiresIdleProvider(t *testing.T) {
	f := newFixture(t)
	f.add(t, model.AppointmentStatusOngoing, 0, false)
	a := f.add(t, model.AppointmentStatusScheduled, 1, false)

	_, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusOngoing, Origin: OriginProvider})
	require.True(t, apperrors.Is(err, apperrors.ErrorTypePreconditionFailed))
	require.Equal(t, model.AppointmentStatusScheduled, f.get(t, a.ID).Status)
}

func TestApply_StartThenCompleteNotifiesNewHeadOnly(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusScheduled, 1, false)
	b := f.add(t, model.AppointmentStatusScheduled, 2, false)
	c := f.add(t, model.AppointmentStatusScheduled, 3, false)

	out, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusOngoing, Origin: OriginProvider})
	require.NoError(t, err)
	require.Equal(t, model.QueueNumberServing, out.Appointment.Position())
	require.NotNil(t, out.Appointment.QueueNumber)

	out, err = f.apply(t, a.ID, Request{To: model.AppointmentStatusDone, Origin: OriginProvider})
	require.NoError(t, err)
	require.Nil(t, out.Appointment.QueueNumber)
	require.NotNil(t, out.Appointment.CompletedAt)
	require.Len(t, out.Queue, 2)

	var upNext []notify.Notice
	for _, n := range out.Notices {
		if n.Category == notify.CategoryQueue {
			upNext = append(upNext, n)
		}
	}
	require.Len(t, upNext, 1)
	require.Equal(t, b.CustomerID, upNext[0].UserID)
	require.Equal(t, "You're up next!", upNext[0].Title)
	require.NotEqual(t, c.CustomerID, upNext[0].UserID)

	// политика A: номера оставшихся не меняются
	require.Equal(t, 2, f.get(t, b.ID).Position())
	require.Equal(t, 3, f.get(t, c.ID).Position())
}

func TestApply_CustomerCancelNotifiesProvider(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusScheduled, 1, false)
	b := f.add(t, model.AppointmentStatusScheduled, 2, false)

	out, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusCancelled, Origin: OriginCustomer, Reason: "ignored"})
	require.NoError(t, err)
	require.Equal(t, ReasonCancelledCustomer, out.Appointment.CancellationReason)
	require.Len(t, out.Notices, 1)
	require.Equal(t, f.provider.UserID, out.Notices[0].UserID)
	require.Equal(t, "Appointment Cancelled", out.Notices[0].Title)

	require.Len(t, out.Queue, 1)
	require.Equal(t, b.ID, out.Queue[0].ID)
}

func TestApply_TerminalIsFinal(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusCancelled, 0, false)

	for _, to := range []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusScheduled,
		model.AppointmentStatusOngoing,
		model.AppointmentStatusDone,
	} {
		_, err := f.apply(t, a.ID, Request{To: to, Origin: OriginProvider})
		require.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidTransition), to)
	}
}

func TestApply_StaleReadIsRejected(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.AppointmentStatusPending, 0, false)
	stale := *a

	_, err := f.apply(t, a.ID, Request{To: model.AppointmentStatusCancelled, Origin: OriginProvider})
	require.NoError(t, err)

	// запись уже отменена, а у вызывающего старая копия
	ctx := context.Background()
	err = f.store.Transaction(ctx, func(tx *repository.Store) error {
		_, err := f.machine.Apply(ctx, tx, f.provider, &stale, Request{To: model.AppointmentStatusScheduled, Origin: OriginProvider})
		return err
	})
	require.True(t, apperrors.Is(err, apperrors.ErrorTypePreconditionFailed))
	require.Equal(t, model.AppointmentStatusCancelled, f.get(t, a.ID).Status)
}

func TestCompacts(t *testing.T) {
	cases := []struct {
		from, to model.AppointmentStatus
		want     bool
	}{
		{model.AppointmentStatusPending, model.AppointmentStatusScheduled, false},
		{model.AppointmentStatusPending, model.AppointmentStatusCancelled, false},
		{model.AppointmentStatusScheduled, model.AppointmentStatusOngoing, true},
		{model.AppointmentStatusScheduled, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusOngoing, model.AppointmentStatusDone, true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, compacts(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
