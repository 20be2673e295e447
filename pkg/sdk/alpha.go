package sdk

import (
	"context"

	alphapb "agones.dev/agones/pkg/sdk/alpha"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

// AlphaClient is the player tracking part of the generated alpha client.
// alphapb.SDKClient satisfies it.
type AlphaClient interface {
	PlayerConnect(ctx context.Context, in *alphapb.PlayerID, opts ...grpc.CallOption) (*alphapb.Bool, error)
	PlayerDisconnect(ctx context.Context, in *alphapb.PlayerID, opts ...grpc.CallOption) (*alphapb.Bool, error)
	SetPlayerCapacity(ctx context.Context, in *alphapb.Count, opts ...grpc.CallOption) (*alphapb.Empty, error)
	GetPlayerCapacity(ctx context.Context, in *alphapb.Empty, opts ...grpc.CallOption) (*alphapb.Count, error)
	GetPlayerCount(ctx context.Context, in *alphapb.Empty, opts ...grpc.CallOption) (*alphapb.Count, error)
	IsPlayerConnected(ctx context.Context, in *alphapb.PlayerID, opts ...grpc.CallOption) (*alphapb.Bool, error)
	GetConnectedPlayers(ctx context.Context, in *alphapb.Empty, opts ...grpc.CallOption) (*alphapb.PlayerIDList, error)
}

// Alpha is the struct for Alpha SDK functionality
type Alpha struct {
	client AlphaClient
}

func newAlpha(client AlphaClient) *Alpha {
	return &Alpha{client: client}
}

func (a *Alpha) ready() error {
	if a == nil || a.client == nil {
		return ErrNoConnection
	}
	return nil
}

// GetPlayerCapacity gets the last player capacity that was set through the SDK.
// If the player capacity is set from outside the SDK, use SDK.GameServer() instead.
func (a *Alpha) GetPlayerCapacity(ctx context.Context) (int64, error) {
	if err := a.ready(); err != nil {
		return 0, err
	}
	c, err := a.client.GetPlayerCapacity(ctx, &alphapb.Empty{})
	return c.GetCount(), errors.Wrap(err, "could not get player capacity")
}

// SetPlayerCapacity changes the player capacity to a new value
func (a *Alpha) SetPlayerCapacity(ctx context.Context, capacity int64) error {
	if err := a.ready(); err != nil {
		return err
	}
	_, err := a.client.SetPlayerCapacity(ctx, &alphapb.Count{Count: capacity})
	return errors.Wrap(err, "could not set player capacity")
}

// PlayerConnect increases the player count by one and appends the playerID
// to the connected players list. Returns false without error if the player
// was already connected.
func (a *Alpha) PlayerConnect(ctx context.Context, id string) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	ok, err := a.client.PlayerConnect(ctx, &alphapb.PlayerID{PlayerID: id})
	return ok.GetBool(), errors.Wrap(err, "could not register connected player")
}

// PlayerDisconnect removes the playerID from the connected players list.
// Returns false without error if the player was not connected.
func (a *Alpha) PlayerDisconnect(ctx context.Context, id string) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	ok, err := a.client.PlayerDisconnect(ctx, &alphapb.PlayerID{PlayerID: id})
	return ok.GetBool(), errors.Wrap(err, "could not register disconnected player")
}

// GetPlayerCount returns the current player count
func (a *Alpha) GetPlayerCount(ctx context.Context) (int64, error) {
	if err := a.ready(); err != nil {
		return 0, err
	}
	count, err := a.client.GetPlayerCount(ctx, &alphapb.Empty{})
	return count.GetCount(), errors.Wrap(err, "could not get player count")
}

// IsPlayerConnected returns if the playerID is currently connected to the GameServer
func (a *Alpha) IsPlayerConnected(ctx context.Context, id string) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	ok, err := a.client.IsPlayerConnected(ctx, &alphapb.PlayerID{PlayerID: id})
	return ok.GetBool(), errors.Wrap(err, "could not get if player is connected")
}

// GetConnectedPlayers returns the list of the currently connected player ids
func (a *Alpha) GetConnectedPlayers(ctx context.Context) ([]string, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	list, err := a.client.GetConnectedPlayers(ctx, &alphapb.Empty{})
	return list.GetList(), errors.Wrap(err, "could not list connected players")
}
