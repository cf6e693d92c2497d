package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/appointment-queue/internal/booking"
	"github.com/Leganyst/appointment-queue/internal/model"
	bstatus "github.com/Leganyst/appointment-queue/internal/status"
)

// QueueService — gRPC-обёртка над контроллером жизненного цикла.
type QueueService struct {
	ctl *booking.Controller
}

func NewQueueService(ctl *booking.Controller) *QueueService {
	return &QueueService{ctl: ctl}
}

var _ QueueServiceServer = (*QueueService)(nil)

func (s *QueueService) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := submitRequest(in)
	if err != nil {
		return nil, err
	}
	appt, err := s.ctl.Submit(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

func (s *QueueService) Quote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := submitRequest(in)
	if err != nil {
		return nil, err
	}
	res, err := s.ctl.Quote(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(quoteMap(res))
}

// Respond: {appointment_id, accept, reason, actor_id}.
func (s *QueueService) Respond(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	id, err := f.uuid("appointment_id")
	if err != nil {
		return nil, err
	}
	actor, err := f.optionalUUID("actor_id")
	if err != nil {
		return nil, err
	}

	appt, err := s.ctl.Respond(ctx, id, booking.Decision{Accept: f.boolean("accept"), Reason: f.str("reason")}, actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

// Advance: {appointment_id, status: "ongoing"|"done", actor_id}.
func (s *QueueService) Advance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	id, err := f.uuid("appointment_id")
	if err != nil {
		return nil, err
	}
	actor, err := f.optionalUUID("actor_id")
	if err != nil {
		return nil, err
	}

	appt, err := s.ctl.Advance(ctx, id, model.AppointmentStatus(f.str("status")), actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

// Cancel: {appointment_id, reason, actor_id, origin}.
func (s *QueueService) Cancel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	id, err := f.uuid("appointment_id")
	if err != nil {
		return nil, err
	}
	actor, err := f.optionalUUID("actor_id")
	if err != nil {
		return nil, err
	}

	appt, err := s.ctl.Cancel(ctx, id, f.str("reason"), actor, bstatus.Origin(f.str("origin")))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

// CancelByCustomer: {appointment_id, customer_id}.
func (s *QueueService) CancelByCustomer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	id, err := f.uuid("appointment_id")
	if err != nil {
		return nil, err
	}
	customer, err := f.uuid("customer_id")
	if err != nil {
		return nil, err
	}

	appt, err := s.ctl.CancelByCustomer(ctx, id, customer)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

// StartNext: {provider_id, date, actor_id}.
func (s *QueueService) StartNext(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	provider, err := f.uuid("provider_id")
	if err != nil {
		return nil, err
	}
	actor, err := f.optionalUUID("actor_id")
	if err != nil {
		return nil, err
	}

	appt, err := s.ctl.StartNext(ctx, provider, f.str("date"), actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

func (s *QueueService) GetAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(in).uuid("appointment_id")
	if err != nil {
		return nil, err
	}
	appt, err := s.ctl.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(appointmentMap(appt))
}

func (s *QueueService) partition(in *structpb.Struct) (f fields, err error) {
	f = fieldsOf(in)
	if _, err = f.uuid("provider_id"); err != nil {
		return nil, err
	}
	if f.str("date") == "" {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	return f, nil
}

// GetQueue: {provider_id, date}.
func (s *QueueService) GetQueue(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f, err := s.partition(in)
	if err != nil {
		return nil, err
	}
	provider, _ := f.uuid("provider_id")

	view, err := s.ctl.Queue(ctx, provider, f.str("date"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(queueViewMap(view))
}

func (s *QueueService) GetCapacity(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f, err := s.partition(in)
	if err != nil {
		return nil, err
	}
	provider, _ := f.uuid("provider_id")

	info, err := s.ctl.Capacity(ctx, provider, f.str("date"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(capacityMap(info))
}

// ListPending: {provider_id, date?, page, page_size}.
func (s *QueueService) ListPending(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	provider, err := f.uuid("provider_id")
	if err != nil {
		return nil, err
	}

	page, err := s.ctl.ListPending(ctx, provider, f.str("date"), f.integer("page"), f.integer("page_size"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(pageMap(page))
}

func (s *QueueService) ListByCustomer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	customer, err := f.uuid("customer_id")
	if err != nil {
		return nil, err
	}

	page, err := s.ctl.ListByCustomer(ctx, customer, f.integer("page"), f.integer("page_size"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(pageMap(page))
}

// History: {appointment_id, page, page_size}.
func (s *QueueService) History(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(in)
	id, err := f.uuid("appointment_id")
	if err != nil {
		return nil, err
	}
	events, err := s.ctl.History(ctx, id, f.integer("page"), f.integer("page_size"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{
		"events":    eventList(events.Items),
		"page":      events.Page,
		"page_size": events.PageSize,
		"total":     events.Total,
		"has_next":  events.HasNext,
	})
}

// WatchQueue шлёт состояние партиции при подключении и после каждого изменения.
func (s *QueueService) WatchQueue(in *structpb.Struct, stream grpc.ServerStream) error {
	f, err := s.partition(in)
	if err != nil {
		return err
	}
	provider, _ := f.uuid("provider_id")

	err = s.ctl.Watch(stream.Context(), provider, f.str("date"), func(v *booking.QueueView) error {
		msg, err := toStruct(queueViewMap(v))
		if err != nil {
			return err
		}
		return stream.SendMsg(msg)
	})
	if err != nil {
		return toStatus(err)
	}
	return nil
}
