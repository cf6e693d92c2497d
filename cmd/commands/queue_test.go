package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/appointment-queue/internal/booking"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/queue"
)

func TestPrintQueue(t *testing.T) {
	one := 1
	current := &model.Appointment{ID: uuid.New(), CustomerID: uuid.New(), Status: model.AppointmentStatusOngoing}
	next := model.Appointment{ID: uuid.New(), Status: model.AppointmentStatusScheduled, QueueNumber: &one, IsUrgent: true, TotalPrice: 400_00}

	view := &booking.QueueView{
		ProviderID: uuid.New(),
		Date:       "2026-03-02",
		Current:    current,
		Entries:    []queue.Entry{{Appointment: next, Rank: 1, EstimatedWait: 70 * time.Minute}},
		Pending:    []model.Appointment{{ID: uuid.New()}},
		Capacity:   queue.CapacityInfo{Current: 2, Max: 15, Available: 13},
	}

	var buf bytes.Buffer
	require.NoError(t, printQueue(&buf, view))

	out := buf.String()
	require.Contains(t, out, "2/15 booked")
	require.Contains(t, out, "now serving: "+current.ID.String())
	require.Contains(t, out, next.ID.String())
	require.Contains(t, out, "400.00")
	require.Contains(t, out, "1h 10m")
	require.Contains(t, out, "1 pending request(s)")
}
