package queue

import (
	"fmt"
	"sort"
	"time"

	"github.com/Leganyst/appointment-queue/internal/model"
)

// Entry — запись очереди с её относительным рангом (1 — следующий на обслуживание).
type Entry struct {
	Appointment model.Appointment
	Rank        int
	// Ожидание до начала обслуживания по сумме длительностей впереди.
	EstimatedWait time.Duration
}

// Ranked упорядочивает scheduled по номеру и выдаёт ранги 1..N независимо от дырок.
// Записи в других статусах пропускаются.
func Ranked(appts []model.Appointment, fallback time.Duration) []Entry {
	scheduled := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.AppointmentStatusScheduled && a.QueueNumber != nil {
			scheduled = append(scheduled, a)
		}
	}

	sort.SliceStable(scheduled, func(i, j int) bool {
		if scheduled[i].Position() != scheduled[j].Position() {
			return scheduled[i].Position() < scheduled[j].Position()
		}
		return scheduled[i].CreatedAt.Before(scheduled[j].CreatedAt)
	})

	entries := make([]Entry, len(scheduled))
	for i, a := range scheduled {
		entries[i] = Entry{Appointment: a, Rank: i + 1}
	}
	for i := range entries {
		entries[i].EstimatedWait = EstimateWait(entries, entries[i].Rank, fallback)
	}
	return entries
}

// EstimateWait суммирует длительности всех записей с меньшим рангом.
func EstimateWait(entries []Entry, rank int, fallback time.Duration) time.Duration {
	if fallback <= 0 {
		fallback = DefaultServiceDuration
	}
	var wait time.Duration
	for _, e := range entries {
		if e.Rank >= rank {
			continue
		}
		wait += Duration(e.Appointment, fallback)
	}
	return wait
}

// Duration возвращает длительность записи из снимка или fallback.
func Duration(a model.Appointment, fallback time.Duration) time.Duration {
	if a.TotalDurationMin > 0 {
		return time.Duration(a.TotalDurationMin) * time.Minute
	}
	return fallback
}

// Head — первая по рангу запись или nil.
func Head(entries []Entry) *Entry {
	if len(entries) == 0 {
		return nil
	}
	return &entries[0]
}

// FormatWait печатает ожидание как "45 min" или "1h 10m".
func FormatWait(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
