// Package status — переходы записи между статусами и их побочные эффекты.
package status

import (
	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/model"
)

var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending:   {model.AppointmentStatusScheduled, model.AppointmentStatusCancelled},
	model.AppointmentStatusScheduled: {model.AppointmentStatusOngoing, model.AppointmentStatusCancelled},
	model.AppointmentStatusOngoing:   {model.AppointmentStatusDone},
}

// CanTransition сообщает, разрешён ли переход from -> to.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate возвращает InvalidTransition с текущим и запрошенным статусом.
func Validate(from, to model.AppointmentStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperrors.NewInvalidTransitionError(string(from), string(to))
}

// Next — допустимые статусы из from.
func Next(from model.AppointmentStatus) []model.AppointmentStatus {
	out := make([]model.AppointmentStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// leavesQueue — переход убирает запись из scheduled/ongoing в терминальный статус.
func leavesQueue(from, to model.AppointmentStatus) bool {
	return from.HoldsQueueNumber() && to.IsTerminal()
}

// compacts — после перехода нужно уплотнить очередь: запись ушла из scheduled
// (в том числе в ongoing) или покинула очередь совсем.
func compacts(from, to model.AppointmentStatus) bool {
	if from == model.AppointmentStatusScheduled && to != model.AppointmentStatusScheduled {
		return true
	}
	return leavesQueue(from, to)
}
