package server

import (
	"context"

	betapb "agones.dev/agones/pkg/sdk/beta"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msto63/agones-sdk-go/internal/localsidecar/service"
)

var _ betapb.SDKServer = (*countsServer)(nil)

// countsServer implements the beta counters and lists service
type countsServer struct {
	betapb.UnimplementedSDKServer
	service *service.Service
}

func (c *countsServer) GetCounter(ctx context.Context, in *betapb.GetCounterRequest) (*betapb.Counter, error) {
	c.service.Record("getcounter")
	count, capacity, err := c.service.Counter(in.GetName())
	if err != nil {
		return nil, toStatus(err)
	}
	return &betapb.Counter{Name: in.GetName(), Count: count, Capacity: capacity}, nil
}

func (c *countsServer) UpdateCounter(ctx context.Context, in *betapb.UpdateCounterRequest) (*betapb.Counter, error) {
	req := in.GetCounterUpdateRequest()
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "CounterUpdateRequest cannot be nil")
	}
	c.service.Record("updatecounter")

	update := service.CounterUpdate{Name: req.GetName(), Diff: req.GetCountDiff()}
	if req.Count != nil {
		v := req.Count.GetValue()
		update.Count = &v
	}
	if req.Capacity != nil {
		v := req.Capacity.GetValue()
		update.Capacity = &v
	}

	count, capacity, err := c.service.UpdateCounter(update)
	if err != nil {
		return nil, toStatus(err)
	}
	return &betapb.Counter{Name: req.GetName(), Count: count, Capacity: capacity}, nil
}

func (c *countsServer) GetList(ctx context.Context, in *betapb.GetListRequest) (*betapb.List, error) {
	c.service.Record("getlist")
	capacity, values, err := c.service.List(in.GetName())
	if err != nil {
		return nil, toStatus(err)
	}
	return &betapb.List{Name: in.GetName(), Capacity: capacity, Values: values}, nil
}

func (c *countsServer) UpdateList(ctx context.Context, in *betapb.UpdateListRequest) (*betapb.List, error) {
	if in.GetList() == nil || in.GetUpdateMask() == nil {
		return nil, status.Error(codes.InvalidArgument, "list and update mask are required")
	}
	c.service.Record("updatelist")

	list := in.GetList()
	capacity, values, err := c.service.UpdateList(list.GetName(), in.GetUpdateMask().GetPaths(), list.GetCapacity(), list.GetValues())
	if err != nil {
		return nil, toStatus(err)
	}
	return &betapb.List{Name: list.GetName(), Capacity: capacity, Values: values}, nil
}

func (c *countsServer) AddListValue(ctx context.Context, in *betapb.AddListValueRequest) (*betapb.List, error) {
	c.service.Record("addlistvalue")
	capacity, values, err := c.service.AddListValue(in.GetName(), in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return &betapb.List{Name: in.GetName(), Capacity: capacity, Values: values}, nil
}

func (c *countsServer) RemoveListValue(ctx context.Context, in *betapb.RemoveListValueRequest) (*betapb.List, error) {
	c.service.Record("removelistvalue")
	capacity, values, err := c.service.RemoveListValue(in.GetName(), in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return &betapb.List{Name: in.GetName(), Capacity: capacity, Values: values}, nil
}
