package sdk

import (
	"context"
	"io"

	sdkpb "agones.dev/agones/pkg/sdk"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msto63/agones-sdk-go/pkg/core/logging"
)

// Watcher consumes the GameServer snapshots of one watch stream.
// OnNext is called once per snapshot; exactly one of OnError or
// OnCompleted ends the sequence.
type Watcher interface {
	OnNext(gs *sdkpb.GameServer)
	OnError(err error)
	OnCompleted()
}

// GameServerCallback is a function definition to be called
// when a GameServer CRD has been changed
type GameServerCallback func(gs *sdkpb.GameServer)

// OnNext calls f
func (f GameServerCallback) OnNext(gs *sdkpb.GameServer) { f(gs) }

// OnError does nothing; the SDK logs watch errors itself
func (f GameServerCallback) OnError(error) {}

// OnCompleted does nothing
func (f GameServerCallback) OnCompleted() {}

// WatcherFuncs builds a Watcher from optional functions
type WatcherFuncs struct {
	Next      func(gs *sdkpb.GameServer)
	Error     func(err error)
	Completed func()
}

// OnNext calls Next if set
func (w WatcherFuncs) OnNext(gs *sdkpb.GameServer) {
	if w.Next != nil {
		w.Next(gs)
	}
}

// OnError calls Error if set
func (w WatcherFuncs) OnError(err error) {
	if w.Error != nil {
		w.Error(err)
	}
}

// OnCompleted calls Completed if set
func (w WatcherFuncs) OnCompleted() {
	if w.Completed != nil {
		w.Completed()
	}
}

// GameServerStream is the receiving side of a watch stream
type GameServerStream interface {
	Recv() (*sdkpb.GameServer, error)
}

// receive pumps one watch stream into w. There is no reconnect: the first
// receive error ends the watch.
func receive(ctx context.Context, stream GameServerStream, w Watcher, logger *logging.Logger) {
	for {
		gs, err := stream.Recv()
		if err != nil {
			if err == io.EOF || ctx.Err() != nil || status.Code(err) == codes.Canceled {
				logger.Debug("gameserver watch finished", "reason", err)
				w.OnCompleted()
				return
			}
			logger.Warn("error watching GameServer", "error", err)
			w.OnError(errors.Wrap(err, "error watching GameServer"))
			return
		}
		w.OnNext(gs)
	}
}
