package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/mudler/xlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// A gRPC server exposing a Diffuser to inpaintd.
// Every call is a unary exchange of Struct messages; the concrete runtime
// decides what is actually supported.
type server struct {
	diffuser Diffuser
}

func (s *server) call(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	var out any
	var err error

	switch method {
	case MethodHealth:
		out = s.Health()
	case MethodLoadModel:
		opts := &ModelOptions{}
		if err := fromStruct(in, opts); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		out, err = s.LoadModel(opts)
	case MethodSchedulerConfig:
		out, err = s.SchedulerConfig()
	case MethodSetScheduler:
		state := &SchedulerState{}
		if err := fromStruct(in, state); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		out, err = s.SetScheduler(state)
	case MethodToDevice:
		req := &DeviceRequest{}
		if err := fromStruct(in, req); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		out, err = s.ToDevice(req)
	case MethodInpaint:
		req := &InpaintRequest{}
		if err := fromStruct(in, req); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		out, err = s.Inpaint(req)
	case MethodStatus:
		out, err = s.Status()
	default:
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", method)
	}
	if err != nil {
		return nil, err
	}
	return toStruct(out)
}

func (s *server) Health() *Reply {
	return newReply("OK")
}

func (s *server) LoadModel(in *ModelOptions) (*Result, error) {
	if s.diffuser.Locking() {
		s.diffuser.Lock()
		defer s.diffuser.Unlock()
	}
	if err := s.diffuser.Load(in); err != nil {
		return nil, fmt.Errorf("error loading model: %w", err)
	}
	return &Result{Message: "Loading succeeded", Success: true}, nil
}

func (s *server) SchedulerConfig() (*SchedulerState, error) {
	if s.diffuser.Locking() {
		s.diffuser.Lock()
		defer s.diffuser.Unlock()
	}
	return s.diffuser.SchedulerConfig()
}

func (s *server) SetScheduler(in *SchedulerState) (*Result, error) {
	if s.diffuser.Locking() {
		s.diffuser.Lock()
		defer s.diffuser.Unlock()
	}
	if err := s.diffuser.SetScheduler(in); err != nil {
		return nil, err
	}
	return &Result{Message: "Scheduler set to " + in.Class, Success: true}, nil
}

func (s *server) ToDevice(in *DeviceRequest) (*Result, error) {
	if s.diffuser.Locking() {
		s.diffuser.Lock()
		defer s.diffuser.Unlock()
	}
	if err := s.diffuser.ToDevice(in.Device); err != nil {
		return nil, err
	}
	return &Result{Message: "Moved to " + in.Device, Success: true}, nil
}

func (s *server) Inpaint(in *InpaintRequest) (*InpaintResult, error) {
	if s.diffuser.Locking() {
		s.diffuser.Lock()
		defer s.diffuser.Unlock()
	}
	return s.diffuser.Inpaint(in)
}

func (s *server) Status() (*StatusResponse, error) {
	res, err := s.diffuser.Status()
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// NewServer returns a grpc.Server with the diffuser registered.
func NewServer(d Diffuser, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}, opts...)
	s := grpc.NewServer(opts...)
	s.RegisterService(&serviceDesc, &server{diffuser: d})
	return s
}

func StartServer(address string, d Diffuser) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return Serve(lis, d)
}

func Serve(lis net.Listener, d Diffuser) error {
	s := NewServer(d)
	xlog.Info("gRPC Server listening", "address", lis.Addr())
	return s.Serve(lis)
}
