package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// MaxMessageSize bounds a single message; inpaint requests carry two PNGs.
const MaxMessageSize = 50 * 1024 * 1024

type Client struct {
	address string
	busy    bool
	sync.Mutex
	connMutex sync.Mutex
	conn      *grpc.ClientConn
}

func (c *Client) IsBusy() bool {
	c.Lock()
	defer c.Unlock()
	return c.busy
}

func (c *Client) setBusy(v bool) {
	c.Lock()
	c.busy = v
	c.Unlock()
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) connection() (*grpc.ClientConn, error) {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := grpc.NewClient(c.address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
			grpc.MaxCallSendMsgSize(MaxMessageSize),
		),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, fullMethod(method), req, resp, opts...); err != nil {
		return err
	}
	return fromStruct(resp, out)
}

func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	// The healthcheck call shouldn't take long time
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := &Reply{}
	if err := c.invoke(ctx, MethodHealth, &HealthMessage{}, res); err != nil {
		return false, err
	}
	if res.Message == "OK" {
		return true, nil
	}
	return false, fmt.Errorf("health check failed: %s", res.Message)
}

func (c *Client) LoadModel(ctx context.Context, in *ModelOptions, opts ...grpc.CallOption) (*Result, error) {
	c.setBusy(true)
	defer c.setBusy(false)
	res := &Result{}
	return res, c.invoke(ctx, MethodLoadModel, in, res, opts...)
}

func (c *Client) SchedulerConfig(ctx context.Context, opts ...grpc.CallOption) (*SchedulerState, error) {
	res := &SchedulerState{}
	return res, c.invoke(ctx, MethodSchedulerConfig, &HealthMessage{}, res, opts...)
}

func (c *Client) SetScheduler(ctx context.Context, in *SchedulerState, opts ...grpc.CallOption) (*Result, error) {
	res := &Result{}
	return res, c.invoke(ctx, MethodSetScheduler, in, res, opts...)
}

func (c *Client) ToDevice(ctx context.Context, device string, opts ...grpc.CallOption) (*Result, error) {
	res := &Result{}
	return res, c.invoke(ctx, MethodToDevice, &DeviceRequest{Device: device}, res, opts...)
}

func (c *Client) Inpaint(ctx context.Context, in *InpaintRequest, opts ...grpc.CallOption) (*InpaintResult, error) {
	c.setBusy(true)
	defer c.setBusy(false)
	res := &InpaintResult{}
	return res, c.invoke(ctx, MethodInpaint, in, res, opts...)
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	res := &StatusResponse{}
	return res, c.invoke(ctx, MethodStatus, &HealthMessage{}, res)
}

func (c *Client) Close() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
