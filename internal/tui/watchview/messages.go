// ============================================================================
// agones-sdk-go - Go client for the Agones game server sidecar
// ============================================================================
//
// Package:     watchview
// Description: Message types and the SDK watcher bridge for the watch view
// Author:      Mike Stoffels
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package watchview

import (
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	tea "github.com/charmbracelet/bubbletea"
)

// snapshotMsg carries one GameServer pushed by the sidecar
type snapshotMsg struct {
	gs *sdkpb.GameServer
	at time.Time
}

// watchEndedMsg is sent once when the watch stream finishes
type watchEndedMsg struct {
	err error
}

// Bridge turns SDK watch callbacks into Bubbletea messages.
// It implements sdk.Watcher.
type Bridge struct {
	msgs chan tea.Msg
	done chan struct{}
}

// NewBridge creates a bridge; call Stop when the program exits
func NewBridge() *Bridge {
	return &Bridge{
		msgs: make(chan tea.Msg, 16),
		done: make(chan struct{}),
	}
}

// OnNext queues a snapshot
func (b *Bridge) OnNext(gs *sdkpb.GameServer) {
	b.send(snapshotMsg{gs: gs, at: time.Now()})
}

// OnError queues the end of the watch with its error
func (b *Bridge) OnError(err error) {
	b.send(watchEndedMsg{err: err})
}

// OnCompleted queues the end of the watch
func (b *Bridge) OnCompleted() {
	b.send(watchEndedMsg{})
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.msgs <- msg:
	case <-b.done:
	}
}

// Stop releases a watch goroutine blocked on a full queue
func (b *Bridge) Stop() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// next waits for the next queued message
func (b *Bridge) next() tea.Msg {
	select {
	case msg := <-b.msgs:
		return msg
	case <-b.done:
		return nil
	}
}
