package server

import (
	"context"

	alphapb "agones.dev/agones/pkg/sdk/alpha"

	"github.com/msto63/agones-sdk-go/internal/localsidecar/service"
)

var _ alphapb.SDKServer = (*playerServer)(nil)

// playerServer implements the alpha player tracking service
type playerServer struct {
	alphapb.UnimplementedSDKServer
	service *service.Service
}

func (p *playerServer) PlayerConnect(ctx context.Context, id *alphapb.PlayerID) (*alphapb.Bool, error) {
	p.service.Record("playerconnect")
	ok, err := p.service.PlayerConnect(id.GetPlayerID())
	if err != nil {
		return nil, toStatus(err)
	}
	return &alphapb.Bool{Bool: ok}, nil
}

func (p *playerServer) PlayerDisconnect(ctx context.Context, id *alphapb.PlayerID) (*alphapb.Bool, error) {
	p.service.Record("playerdisconnect")
	return &alphapb.Bool{Bool: p.service.PlayerDisconnect(id.GetPlayerID())}, nil
}

func (p *playerServer) IsPlayerConnected(ctx context.Context, id *alphapb.PlayerID) (*alphapb.Bool, error) {
	p.service.Record("isplayerconnected")
	return &alphapb.Bool{Bool: p.service.IsPlayerConnected(id.GetPlayerID())}, nil
}

func (p *playerServer) GetConnectedPlayers(ctx context.Context, _ *alphapb.Empty) (*alphapb.PlayerIDList, error) {
	p.service.Record("getconnectedplayers")
	return &alphapb.PlayerIDList{List: p.service.ConnectedPlayers()}, nil
}

func (p *playerServer) GetPlayerCount(ctx context.Context, _ *alphapb.Empty) (*alphapb.Count, error) {
	p.service.Record("getplayercount")
	return &alphapb.Count{Count: p.service.PlayerCount()}, nil
}

func (p *playerServer) SetPlayerCapacity(ctx context.Context, c *alphapb.Count) (*alphapb.Empty, error) {
	p.service.Record("setplayercapacity")
	if err := p.service.SetPlayerCapacity(c.GetCount()); err != nil {
		return nil, toStatus(err)
	}
	return &alphapb.Empty{}, nil
}

func (p *playerServer) GetPlayerCapacity(ctx context.Context, _ *alphapb.Empty) (*alphapb.Count, error) {
	p.service.Record("getplayercapacity")
	return &alphapb.Count{Count: p.service.PlayerCapacity()}, nil
}
