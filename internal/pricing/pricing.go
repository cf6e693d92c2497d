// Package pricing считает цену и длительность заявки по каталогу.
//
// Результат сохраняется в записи как снимок и дальше не пересчитывается.
package pricing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/appointment-queue/internal/model"
)

// Money — сумма в минорных единицах валюты.
type Money int64

// UrgentFee — надбавка за срочную заявку: 100 единиц валюты.
const UrgentFee Money = 100_00

// Units возвращает сумму в целых единицах валюты.
func (m Money) Units() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f", m.Units())
}

// Item — позиция каталога с ценой и длительностью в минутах.
type Item struct {
	ID          uuid.UUID
	Price       Money
	DurationMin int
}

// Result — итог расчёта.
type Result struct {
	Price       Money
	DurationMin int
	UrgentFee   Money
}

// Quote считает услугу с доп. опциями и надбавкой за срочность.
func Quote(service Item, addOns []Item, urgent bool) Result {
	return QuoteBooking([]Item{service}, addOns, urgent)
}

// QuoteBooking — то же для нескольких услуг в одной заявке.
func QuoteBooking(services []Item, addOns []Item, urgent bool) Result {
	var res Result
	for _, s := range services {
		res.Price += s.Price
		res.DurationMin += s.DurationMin
	}
	for _, a := range addOns {
		res.Price += a.Price
		res.DurationMin += a.DurationMin
	}
	if urgent {
		res.UrgentFee = UrgentFee
		res.Price += UrgentFee
	}
	return res
}

// Catalog — срез каталога, загруженный под конкретную заявку.
type Catalog struct {
	services map[uuid.UUID]Item
	addOns   map[uuid.UUID]Item
}

func NewCatalog(services []model.Service, addOns []model.AddOn) *Catalog {
	c := &Catalog{
		services: make(map[uuid.UUID]Item, len(services)),
		addOns:   make(map[uuid.UUID]Item, len(addOns)),
	}
	for _, s := range services {
		c.services[s.ID] = Item{ID: s.ID, Price: Money(s.Price), DurationMin: s.DurationMin}
	}
	for _, a := range addOns {
		c.addOns[a.ID] = Item{ID: a.ID, Price: Money(a.Price), DurationMin: a.DurationMin}
	}
	return c
}

// Services возвращает позиции по ID. Неизвестный ID даёт нулевую позицию, а не ошибку.
func (c *Catalog) Services(ids []uuid.UUID) []Item {
	return lookup(c.services, ids)
}

// AddOns — аналогично Services.
func (c *Catalog) AddOns(ids []uuid.UUID) []Item {
	return lookup(c.addOns, ids)
}

// QuoteIDs считает заявку по идентификаторам.
func (c *Catalog) QuoteIDs(serviceIDs, addOnIDs []uuid.UUID, urgent bool) Result {
	return QuoteBooking(c.Services(serviceIDs), c.AddOns(addOnIDs), urgent)
}

func lookup(items map[uuid.UUID]Item, ids []uuid.UUID) []Item {
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			item = Item{ID: id}
		}
		out = append(out, item)
	}
	return out
}
