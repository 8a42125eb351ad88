package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "inpaint.Pipeline"

const (
	MethodHealth          = "Health"
	MethodLoadModel       = "LoadModel"
	MethodSchedulerConfig = "SchedulerConfig"
	MethodSetScheduler    = "SetScheduler"
	MethodToDevice        = "ToDevice"
	MethodInpaint         = "Inpaint"
	MethodStatus          = "Status"
)

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// pipelineServer is the handler type registered with grpc.
type pipelineServer interface {
	call(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error)
}

func unaryMethod(method string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(pipelineServer)
			if interceptor == nil {
				return s.call(ctx, method, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return s.call(ctx, method, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*pipelineServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodHealth),
		unaryMethod(MethodLoadModel),
		unaryMethod(MethodSchedulerConfig),
		unaryMethod(MethodSetScheduler),
		unaryMethod(MethodToDevice),
		unaryMethod(MethodInpaint),
		unaryMethod(MethodStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "backend/inpaint.proto",
}
