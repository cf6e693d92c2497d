package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName — полное имя gRPC-сервиса очереди.
const ServiceName = "queuecore.v1.QueueService"

// QueueServiceServer — методы сервиса. Запросы и ответы — google.protobuf.Struct.
type QueueServiceServer interface {
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Quote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Respond(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Advance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelByCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartNext(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetQueue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCapacity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPending(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListByCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchQueue(*structpb.Struct, grpc.ServerStream) error
}

type unaryCall func(QueueServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(QueueServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(QueueServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(QueueServiceServer).WatchQueue(in, stream)
}

// QueueServiceDesc описывает сервис для grpc.Server.RegisterService.
var QueueServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueueServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Submit", QueueServiceServer.Submit),
		unary("Quote", QueueServiceServer.Quote),
		unary("Respond", QueueServiceServer.Respond),
		unary("Advance", QueueServiceServer.Advance),
		unary("Cancel", QueueServiceServer.Cancel),
		unary("CancelByCustomer", QueueServiceServer.CancelByCustomer),
		unary("StartNext", QueueServiceServer.StartNext),
		unary("GetAppointment", QueueServiceServer.GetAppointment),
		unary("GetQueue", QueueServiceServer.GetQueue),
		unary("GetCapacity", QueueServiceServer.GetCapacity),
		unary("ListPending", QueueServiceServer.ListPending),
		unary("ListByCustomer", QueueServiceServer.ListByCustomer),
		unary("History", QueueServiceServer.History),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchQueue",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "queuecore/v1/queue.proto",
}

func RegisterQueueServiceServer(s grpc.ServiceRegistrar, srv QueueServiceServer) {
	s.RegisterService(&QueueServiceDesc, srv)
}
