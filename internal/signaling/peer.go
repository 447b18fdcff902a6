package signaling

import (
	"sync"
	"sync/atomic"
)

// Transport is the per-connection primitive the transport layer provides.
// Send must not block; it queues the frame or fails.
type Transport interface {
	Send(f Frame) error
	Close() error
}

type peerState int

const (
	unjoined peerState = iota
	joined
	left
)

// Peer is the handle for one client connection. Identity is attached once
// at join; the registry only keeps a non-owning reference to it.
type Peer struct {
	id string
	tr Transport

	open atomic.Bool

	mu     sync.RWMutex
	state  peerState
	userID string
	roomID string
	isHost bool
}

// NewPeer wraps a transport connection in the Unjoined state
func NewPeer(id string, tr Transport) *Peer {
	p := &Peer{id: id, tr: tr}
	p.open.Store(true)
	return p
}

func (p *Peer) ID() string { return p.id }

func (p *Peer) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID
}

func (p *Peer) RoomID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.roomID
}

func (p *Peer) IsHost() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isHost
}

// Connected reports whether the transport is still open
func (p *Peer) Connected() bool { return p.open.Load() }

// Joined reports whether the peer is currently a room member
func (p *Peer) Joined() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == joined
}

// identity returns a consistent snapshot of the join attributes
func (p *Peer) identity() (roomID, userID string, isHost, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.roomID, p.userID, p.isHost, p.state == joined
}

// Emit queues f for this connection only
func (p *Peer) Emit(f Frame) error { return p.tr.Send(f) }

// Close closes the underlying transport
func (p *Peer) Close() error { return p.tr.Close() }

// attach moves Unjoined -> Joined
func (p *Peer) attach(roomID, userID string, isHost bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case joined:
		return ErrAlreadyJoined
	case left:
		return ErrConnectionClosed
	}
	p.state = joined
	p.roomID, p.userID, p.isHost = roomID, userID, isHost
	return nil
}

// detach undoes attach when the registry refused the member
func (p *Peer) detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == joined {
		p.state = unjoined
		p.roomID, p.userID, p.isHost = "", "", false
	}
}

// leave moves the peer to Left and reports whether it was joined. Only the
// first call can return wasJoined=true.
func (p *Peer) leave() (roomID, userID string, isHost, wasJoined bool) {
	p.open.Store(false)

	p.mu.Lock()
	defer p.mu.Unlock()
	wasJoined = p.state == joined
	p.state = left
	return p.roomID, p.userID, p.isHost, wasJoined
}
