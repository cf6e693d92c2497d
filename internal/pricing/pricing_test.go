package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/appointment-queue/internal/model"
)

func TestQuote_UrgentWithAddOn(t *testing.T) {
	service := Item{Price: 300_00, DurationMin: 30}
	addOn := Item{Price: 50_00, DurationMin: 15}

	res := Quote(service, []Item{addOn}, true)

	require.Equal(t, Money(450_00), res.Price)
	require.Equal(t, 45, res.DurationMin)
	require.Equal(t, UrgentFee, res.UrgentFee)
}

func TestQuote_NotUrgent(t *testing.T) {
	res := Quote(Item{Price: 300_00, DurationMin: 30}, nil, false)

	require.Equal(t, Money(300_00), res.Price)
	require.Equal(t, 30, res.DurationMin)
	require.Zero(t, res.UrgentFee)
}

func TestQuoteBooking_SumsAllServices(t *testing.T) {
	res := QuoteBooking(
		[]Item{{Price: 300_00, DurationMin: 30}, {Price: 150_00, DurationMin: 20}},
		[]Item{{Price: 30_00, DurationMin: 10}, {Price: 25_00, DurationMin: 5}},
		false,
	)

	require.Equal(t, Money(505_00), res.Price)
	require.Equal(t, 65, res.DurationMin)
}

func TestCatalog_UnknownIDsContributeZero(t *testing.T) {
	haircut := model.Service{ID: uuid.New(), Price: 300_00, DurationMin: 30}
	beard := model.AddOn{ID: uuid.New(), Price: 50_00, DurationMin: 15}
	c := NewCatalog([]model.Service{haircut}, []model.AddOn{beard})

	res := c.QuoteIDs(
		[]uuid.UUID{haircut.ID, uuid.New()},
		[]uuid.UUID{beard.ID, uuid.New()},
		true,
	)

	require.Equal(t, Money(450_00), res.Price)
	require.Equal(t, 45, res.DurationMin)
}

func TestMoney_String(t *testing.T) {
	require.Equal(t, "450.00", Money(450_00).String())
	require.Equal(t, "0.50", Money(50).String())
}
