package sdk

import (
	"context"

	betapb "agones.dev/agones/pkg/sdk/beta"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BetaClient is the counters and lists part of the generated beta client.
// betapb.SDKClient satisfies it.
type BetaClient interface {
	GetCounter(ctx context.Context, in *betapb.GetCounterRequest, opts ...grpc.CallOption) (*betapb.Counter, error)
	UpdateCounter(ctx context.Context, in *betapb.UpdateCounterRequest, opts ...grpc.CallOption) (*betapb.Counter, error)
	GetList(ctx context.Context, in *betapb.GetListRequest, opts ...grpc.CallOption) (*betapb.List, error)
	UpdateList(ctx context.Context, in *betapb.UpdateListRequest, opts ...grpc.CallOption) (*betapb.List, error)
	AddListValue(ctx context.Context, in *betapb.AddListValueRequest, opts ...grpc.CallOption) (*betapb.List, error)
	RemoveListValue(ctx context.Context, in *betapb.RemoveListValueRequest, opts ...grpc.CallOption) (*betapb.List, error)
}

// Beta is the struct for Beta SDK functionality
type Beta struct {
	client BetaClient
}

func newBeta(client BetaClient) *Beta {
	return &Beta{client: client}
}

func (b *Beta) ready() error {
	if b == nil || b.client == nil {
		return ErrNoConnection
	}
	return nil
}

func (b *Beta) counter(ctx context.Context, key string) (*betapb.Counter, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return b.client.GetCounter(ctx, &betapb.GetCounterRequest{Name: key})
}

func (b *Beta) list(ctx context.Context, key string) (*betapb.List, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	list, err := b.client.GetList(ctx, &betapb.GetListRequest{Name: key})
	return list, errors.Wrapf(err, "could not get List %s", key)
}

func (b *Beta) updateCounter(ctx context.Context, req *betapb.CounterUpdateRequest) error {
	if err := b.ready(); err != nil {
		return err
	}
	_, err := b.client.UpdateCounter(ctx, &betapb.UpdateCounterRequest{CounterUpdateRequest: req})
	return err
}

// GetCounterCount returns the Count for a Counter, given the Counter's key (name).
// Will error if the key was not predefined in the GameServer resource on creation.
func (b *Beta) GetCounterCount(ctx context.Context, key string) (int64, error) {
	counter, err := b.counter(ctx, key)
	if err != nil {
		return -1, errors.Wrapf(err, "could not get Counter %s count", key)
	}
	return counter.GetCount(), nil
}

// IncrementCounter increases a counter by the given nonnegative integer amount.
// Errors if the result would exceed the Counter's capacity.
func (b *Beta) IncrementCounter(ctx context.Context, key string, amount int64) error {
	if amount < 0 {
		return errors.Errorf("amount must be a positive int64, found %d", amount)
	}
	err := b.updateCounter(ctx, &betapb.CounterUpdateRequest{Name: key, CountDiff: amount})
	return errors.Wrapf(err, "could not increment Counter %s by amount %d", key, amount)
}

// DecrementCounter decreases the current count by the given nonnegative integer amount.
// The count cannot go below zero.
func (b *Beta) DecrementCounter(ctx context.Context, key string, amount int64) error {
	if amount < 0 {
		return errors.Errorf("amount must be a positive int64, found %d", amount)
	}
	err := b.updateCounter(ctx, &betapb.CounterUpdateRequest{Name: key, CountDiff: -amount})
	return errors.Wrapf(err, "could not decrement Counter %s by amount %d", key, amount)
}

// SetCounterCount sets a count to the given value. Must be between 0 and the
// Counter's capacity.
func (b *Beta) SetCounterCount(ctx context.Context, key string, amount int64) error {
	err := b.updateCounter(ctx, &betapb.CounterUpdateRequest{Name: key, Count: wrapperspb.Int64(amount)})
	return errors.Wrapf(err, "could not set Counter %s count to amount %d", key, amount)
}

// GetCounterCapacity returns the Capacity for a Counter, given the Counter's key (name).
func (b *Beta) GetCounterCapacity(ctx context.Context, key string) (int64, error) {
	counter, err := b.counter(ctx, key)
	if err != nil {
		return -1, errors.Wrapf(err, "could not get Counter %s capacity", key)
	}
	return counter.GetCapacity(), nil
}

// SetCounterCapacity sets the capacity for the given Counter. A capacity of 0 is no capacity.
func (b *Beta) SetCounterCapacity(ctx context.Context, key string, amount int64) error {
	err := b.updateCounter(ctx, &betapb.CounterUpdateRequest{Name: key, Capacity: wrapperspb.Int64(amount)})
	return errors.Wrapf(err, "could not set Counter %s capacity to amount %d", key, amount)
}

// GetListCapacity returns the Capacity for a List, given the List's key (name).
func (b *Beta) GetListCapacity(ctx context.Context, key string) (int64, error) {
	list, err := b.list(ctx, key)
	if err != nil {
		return -1, err
	}
	return list.GetCapacity(), nil
}

// SetListCapacity sets the capacity for a given list. Capacity must be between 0 and 1000.
func (b *Beta) SetListCapacity(ctx context.Context, key string, amount int64) error {
	if err := b.ready(); err != nil {
		return err
	}
	_, err := b.client.UpdateList(ctx, &betapb.UpdateListRequest{
		List:       &betapb.List{Name: key, Capacity: amount},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"capacity"}},
	})
	return errors.Wrapf(err, "could not set List %s capacity to amount %d", key, amount)
}

// ListContains returns if a string exists in a List's values list
func (b *Beta) ListContains(ctx context.Context, key, value string) (bool, error) {
	list, err := b.list(ctx, key)
	if err != nil {
		return false, err
	}
	for _, v := range list.GetValues() {
		if v == value {
			return true, nil
		}
	}
	return false, nil
}

// GetListLength returns the length of the Values list for a List
func (b *Beta) GetListLength(ctx context.Context, key string) (int, error) {
	list, err := b.list(ctx, key)
	if err != nil {
		return -1, err
	}
	return len(list.GetValues()), nil
}

// GetListValues returns the Values for a List
func (b *Beta) GetListValues(ctx context.Context, key string) ([]string, error) {
	list, err := b.list(ctx, key)
	if err != nil {
		return nil, err
	}
	return list.GetValues(), nil
}

// AppendListValue appends a string to a List's values list. Errors if the
// string already exists in the list or the list is at capacity.
func (b *Beta) AppendListValue(ctx context.Context, key, value string) error {
	if err := b.ready(); err != nil {
		return err
	}
	_, err := b.client.AddListValue(ctx, &betapb.AddListValueRequest{Name: key, Value: value})
	return errors.Wrapf(err, "could not append %s to List %s", value, key)
}

// DeleteListValue removes a string from a List's values list. Errors if the
// string does not exist in the list.
func (b *Beta) DeleteListValue(ctx context.Context, key, value string) error {
	if err := b.ready(); err != nil {
		return err
	}
	_, err := b.client.RemoveListValue(ctx, &betapb.RemoveListValueRequest{Name: key, Value: value})
	return errors.Wrapf(err, "could not remove %s from List %s", value, key)
}
