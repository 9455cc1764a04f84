package network

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

// Kind discriminates the tagged union a Message carries. Go has no native
// sum type, so the payload fields below are a flat struct with only the
// field matching Kind populated - the msgpack analogue of the original
// implementation's Rust enum.
type Kind uint8

const (
	KindTransaction Kind = iota
	KindPing
	KindPong
	KindSyncRequest
	KindSyncResponse
	KindPeerDiscovery
)

func (k Kind) String() string {
	switch k {
	case KindTransaction:
		return "transaction"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindSyncRequest:
		return "sync_request"
	case KindSyncResponse:
		return "sync_response"
	case KindPeerDiscovery:
		return "peer_discovery"
	default:
		return "unknown"
	}
}

// PeerInfo is the address-book entry exchanged by PeerDiscovery messages.
type PeerInfo struct {
	ID      []byte `msgpack:"id"`
	Address string `msgpack:"address"`
}

// Message is the single wire envelope for every peer-to-peer exchange.
// At most one of Transaction, FromHeight, Transactions, or Peers is
// meaningful, selected by Kind; Ping and Pong carry none of them.
type Message struct {
	ID        dag.Hash `msgpack:"id"`
	Kind      Kind     `msgpack:"kind"`
	Timestamp int64    `msgpack:"timestamp"`
	Sender    []byte   `msgpack:"sender,omitempty"`

	Transaction  *dag.Transaction  `msgpack:"transaction,omitempty"`
	FromHeight   uint64            `msgpack:"from_height,omitempty"`
	Transactions []dag.Transaction `msgpack:"transactions,omitempty"`
	Peers        []PeerInfo        `msgpack:"peers,omitempty"`
}

// NewTransactionMessage wraps tx for gossip.
func NewTransactionMessage(tx dag.Transaction, sender []byte) Message {
	m := Message{Kind: KindTransaction, Timestamp: nowUnix(), Sender: sender, Transaction: &tx}
	m.ID = m.computeID()
	return m
}

// NewPingMessage builds a liveness probe.
func NewPingMessage(sender []byte) Message {
	m := Message{Kind: KindPing, Timestamp: nowUnix(), Sender: sender}
	m.ID = m.computeID()
	return m
}

// NewPongMessage builds a liveness reply.
func NewPongMessage(sender []byte) Message {
	m := Message{Kind: KindPong, Timestamp: nowUnix(), Sender: sender}
	m.ID = m.computeID()
	return m
}

// NewSyncRequestMessage asks a peer for every transaction admitted at or
// after fromHeight.
func NewSyncRequestMessage(fromHeight uint64, sender []byte) Message {
	m := Message{Kind: KindSyncRequest, Timestamp: nowUnix(), Sender: sender, FromHeight: fromHeight}
	m.ID = m.computeID()
	return m
}

// NewSyncResponseMessage carries a batch of transactions satisfying a
// SyncRequest.
func NewSyncResponseMessage(txs []dag.Transaction, sender []byte) Message {
	m := Message{Kind: KindSyncResponse, Timestamp: nowUnix(), Sender: sender, Transactions: txs}
	m.ID = m.computeID()
	return m
}

// NewPeerDiscoveryMessage shares known peer addresses.
func NewPeerDiscoveryMessage(peers []PeerInfo, sender []byte) Message {
	m := Message{Kind: KindPeerDiscovery, Timestamp: nowUnix(), Sender: sender, Peers: peers}
	m.ID = m.computeID()
	return m
}

func nowUnix() int64 {
	return time.Now().Unix()
}

// computeID hashes the message's timestamp together with a payload-specific
// digest, so two structurally identical messages sent a second apart get
// different ids (needed for gossip dedup) while two deliveries of the same
// message collide.
func (m Message) computeID() dag.Hash {
	var buf []byte
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.Timestamp))

	switch m.Kind {
	case KindTransaction:
		if m.Transaction != nil {
			id := m.Transaction.ID()
			buf = append(buf, id[:]...)
		}
	case KindPing:
		buf = append(buf, []byte("ping")...)
	case KindPong:
		buf = append(buf, []byte("pong")...)
	case KindSyncRequest:
		buf = binary.BigEndian.AppendUint64(buf, m.FromHeight)
	case KindSyncResponse:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Transactions)))
	case KindPeerDiscovery:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Peers)))
	}

	return dag.HashBytes(buf)
}

// WriteFrame writes msg to w as a msgpack payload prefixed with a 4-byte
// big-endian length, rejecting payloads above params.MaxMessageSize.
func WriteFrame(w io.Writer, msg Message, params Params) error {
	payload, err := msgpack.Marshal(msg)
	if err != nil {
		return fmt.Errorf("network: encode message: %w", err)
	}
	if len(payload) > params.MaxMessageSize {
		return ErrFrameTooLarge
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed msgpack message from r, rejecting
// declared lengths above params.MaxMessageSize before allocating a buffer
// for them.
func ReadFrame(r io.Reader, params Params) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if int(n) > params.MaxMessageSize {
		return Message{}, ErrFrameTooLarge
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, err
	}

	var msg Message
	if err := msgpack.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("network: decode message: %w", err)
	}
	return msg, nil
}
