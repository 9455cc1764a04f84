package network

import "errors"

var (
	// ErrMaxPeers is returned by Manager.Add when the registry is at
	// capacity.
	ErrMaxPeers = errors.New("network: max peers reached")

	// ErrFrameTooLarge is returned when a wire frame's declared length
	// exceeds Params.MaxMessageSize.
	ErrFrameTooLarge = errors.New("network: frame exceeds maximum message size")

	// ErrUnexpectedMessage reports a message of the wrong kind. Nothing in
	// this package returns it: MeasureLatency completes only on a Pong
	// routed through NotifyPong and returns ErrLatencyTimeout when none
	// arrives, whatever other messages the peer sends meanwhile.
	ErrUnexpectedMessage = errors.New("network: unexpected message type")

	// ErrPeerBanned is returned by Session.SendMessage and
	// Session.ReceiveMessage on a banned session.
	ErrPeerBanned = errors.New("network: peer is banned")

	// ErrNotConnected is returned when an operation requires an open
	// connection that the session does not have.
	ErrNotConnected = errors.New("network: peer is not connected")

	// ErrAlreadySyncing is returned by SyncManager.StartSync when a sync
	// is already in progress.
	ErrAlreadySyncing = errors.New("network: sync already in progress")

	// ErrUnknownPeer names a peer id the registry doesn't know about.
	// Nothing in this package returns it: Manager.Get reports an unknown
	// id through its bool result and Manager.Remove ignores one.
	ErrUnknownPeer = errors.New("network: unknown peer")

	// ErrLatencyTimeout is returned by Session.MeasureLatency when no Pong
	// is observed within Params.ConnectionTimeout.
	ErrLatencyTimeout = errors.New("network: timed out waiting for pong")
)
