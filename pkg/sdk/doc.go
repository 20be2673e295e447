// Package sdk is the Go client for the Agones game server sidecar.
//
// An SDK value owns one gRPC connection to the sidecar (localhost:59357 by
// default), the generated stub derived from it and one long-lived health
// stream opened at construction. Every method maps to exactly one call on
// the sidecar API; failures are returned wrapped with github.com/pkg/errors
// and keep their gRPC status, so status.Code(err) still works.
//
//	s, err := sdk.NewSDK()
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	if err := s.Ready(ctx); err != nil {
//		return err
//	}
//	err = s.WatchGameServer(ctx, sdk.GameServerCallback(func(gs *sdkpb.GameServer) {
//		log.Println(gs.GetStatus().GetState())
//	}))
//
// Player tracking lives behind Alpha, counters and lists behind Beta.
package sdk
