package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/appointment-queue/internal/booking"
	"github.com/Leganyst/appointment-queue/internal/calendar"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/pricing"
	"github.com/Leganyst/appointment-queue/internal/queue"
)

// fields — обёртка над полями запроса.
type fields map[string]*structpb.Value

func fieldsOf(in *structpb.Struct) fields {
	return fields(in.GetFields())
}

func (f fields) str(key string) string {
	return f[key].GetStringValue()
}

func (f fields) boolean(key string) bool {
	return f[key].GetBoolValue()
}

func (f fields) integer(key string) int {
	return int(f[key].GetNumberValue())
}

func (f fields) uuid(key string) (uuid.UUID, error) {
	raw := f.str(key)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s must be a uuid: %v", key, err)
	}
	return id, nil
}

// optionalUUID — пустое поле даёт uuid.Nil без ошибки.
func (f fields) optionalUUID(key string) (uuid.UUID, error) {
	if f.str(key) == "" {
		return uuid.Nil, nil
	}
	return f.uuid(key)
}

func (f fields) uuids(key string) ([]uuid.UUID, error) {
	values := f[key].GetListValue().GetValues()
	out := make([]uuid.UUID, 0, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v.GetStringValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s[%d] must be a uuid: %v", key, i, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func submitRequest(in *structpb.Struct) (booking.SubmitRequest, error) {
	f := fieldsOf(in)

	customerID, err := f.optionalUUID("customer_id")
	if err != nil {
		return booking.SubmitRequest{}, err
	}
	providerID, err := f.optionalUUID("provider_id")
	if err != nil {
		return booking.SubmitRequest{}, err
	}
	serviceID, err := f.uuid("service_id")
	if err != nil {
		return booking.SubmitRequest{}, err
	}
	extra, err := f.uuids("additional_service_ids")
	if err != nil {
		return booking.SubmitRequest{}, err
	}
	addOns, err := f.uuids("add_on_ids")
	if err != nil {
		return booking.SubmitRequest{}, err
	}

	req := booking.SubmitRequest{
		CustomerID:           customerID,
		ProviderID:           providerID,
		ServiceID:            serviceID,
		AdditionalServiceIDs: extra,
		AddOnIDs:             addOns,
		Date:                 f.str("date"),
		IsUrgent:             f.boolean("is_urgent"),
		Notes:                f.str("notes"),
	}

	rebookedFrom, err := f.optionalUUID("rebooked_from_id")
	if err != nil {
		return booking.SubmitRequest{}, err
	}
	if rebookedFrom != uuid.Nil {
		req.RebookedFromID = &rebookedFrom
	}
	return req, nil
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func idList(ids []uuid.UUID) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func appointmentMap(a *model.Appointment) map[string]any {
	m := map[string]any{
		"id":                     a.ID.String(),
		"customer_id":            a.CustomerID.String(),
		"provider_id":            a.ProviderID.String(),
		"date":                   a.Date,
		"service_id":             a.ServiceID.String(),
		"additional_service_ids": idList(a.AdditionalServiceIDs),
		"add_on_ids":             idList(a.AddOnIDs),
		"status":                 string(a.Status),
		"queue_number":           nil,
		"is_urgent":              a.IsUrgent,
		"is_rebooking":           a.IsRebooking,
		"rebooked_from_id":       nil,
		"notes":                  a.Notes,
		"cancellation_reason":    a.CancellationReason,
		"total_price":            a.TotalPrice,
		"total_price_display":    pricing.Money(a.TotalPrice).String(),
		"total_duration_min":     a.TotalDurationMin,
		"created_at":             a.CreatedAt.UTC().Format(time.RFC3339),
		"confirmed_at":           optionalTime(a.ConfirmedAt),
		"started_at":             optionalTime(a.StartedAt),
		"completed_at":           optionalTime(a.CompletedAt),
		"cancelled_at":           optionalTime(a.CancelledAt),
	}
	if a.QueueNumber != nil {
		m["queue_number"] = *a.QueueNumber
	}
	if a.RebookedFromID != nil {
		m["rebooked_from_id"] = a.RebookedFromID.String()
	}
	return m
}

func appointmentList(items []model.Appointment) []any {
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, appointmentMap(&items[i]))
	}
	return out
}

func capacityMap(c queue.CapacityInfo) map[string]any {
	return map[string]any{
		"current":   c.Current,
		"max":       c.Max,
		"available": c.Available,
		"is_full":   c.IsFull,
	}
}

func queueViewMap(v *booking.QueueView) map[string]any {
	entries := make([]any, 0, len(v.Entries))
	for _, e := range v.Entries {
		entry := appointmentMap(&e.Appointment)
		entry["rank"] = e.Rank
		entry["estimated_wait_min"] = int64(e.EstimatedWait / time.Minute)
		entry["estimated_wait"] = queue.FormatWait(e.EstimatedWait)
		entries = append(entries, entry)
	}

	var current any
	if v.Current != nil {
		current = appointmentMap(v.Current)
	}

	return map[string]any{
		"provider_id": v.ProviderID.String(),
		"date":        v.Date,
		"revision":    v.Revision,
		"current":     current,
		"entries":     entries,
		"pending":     appointmentList(v.Pending),
		"capacity":    capacityMap(v.Capacity),
	}
}

func pageMap(p calendar.Page[model.Appointment]) map[string]any {
	return map[string]any{
		"items":     appointmentList(p.Items),
		"page":      p.Page,
		"page_size": p.PageSize,
		"total":     p.Total,
		"has_next":  p.HasNext,
		"has_prev":  p.HasPrev,
	}
}

func quoteMap(r pricing.Result) map[string]any {
	return map[string]any{
		"price":         int64(r.Price),
		"price_display": r.Price.String(),
		"duration_min":  r.DurationMin,
		"urgent_fee":    int64(r.UrgentFee),
	}
}

func eventList(events []model.Event) []any {
	out := make([]any, 0, len(events))
	for _, e := range events {
		item := map[string]any{
			"id":         e.ID.String(),
			"event_type": string(e.EventType),
			"created_at": e.CreatedAt.UTC().Format(time.RFC3339),
			"actor_id":   nil,
			"details":    string(e.Details),
		}
		if e.ActorID != nil {
			item["actor_id"] = e.ActorID.String()
		}
		out = append(out, item)
	}
	return out
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}
