package network

import (
	"container/list"
	"log"
	"sync"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

// Stats is a point-in-time snapshot of the gossip engine's bookkeeping.
type Stats struct {
	SeenMessages   int
	ActivePeers    int
	PendingMessages int
}

// GossipEngine deduplicates and fans out messages to connected peers. Its
// seen-set is a real time-indexed LRU (container/list ordered by insertion,
// backed by a map for O(1) lookup) rather than the arbitrary hash-map
// iteration order the original implementation used to pick eviction
// victims - that evicted whatever the runtime's map iteration happened to
// visit first, not necessarily the oldest entries.
//
// The peer-stream registry below is intentionally separate from a
// network.Manager: gossip fan-out must never be blocked by whatever lock
// the peer manager holds, and broadcasting must never be done while
// holding the DAG engine's lock.
type GossipEngine struct {
	params Params

	mu      sync.Mutex
	seen    map[dag.Hash]*list.Element
	seenAge *list.List // front = oldest

	peerMu sync.Mutex
	peers  map[string]*Session

	pendingMu sync.Mutex
	pending   map[dag.Hash]struct{}
}

// NewGossipEngine builds an empty gossip engine.
func NewGossipEngine(params Params) *GossipEngine {
	return &GossipEngine{
		params:  params,
		seen:    make(map[dag.Hash]*list.Element),
		seenAge: list.New(),
		peers:   make(map[string]*Session),
		pending: make(map[dag.Hash]struct{}),
	}
}

// MarkSeen records id as seen and reports whether it was new. When the
// seen-set is at capacity it evicts the oldest SeenMessageEvictBatch
// entries before inserting, preserving true FIFO/LRU order instead of a
// size-triggered bulk clear.
func (g *GossipEngine) MarkSeen(id dag.Hash) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[id]; ok {
		return false
	}

	if len(g.seen) >= g.params.MaxSeenMessages {
		g.evictOldestLocked(g.params.SeenMessageEvictBatch)
	}

	elem := g.seenAge.PushBack(id)
	g.seen[id] = elem
	return true
}

func (g *GossipEngine) evictOldestLocked(n int) {
	for i := 0; i < n; i++ {
		front := g.seenAge.Front()
		if front == nil {
			return
		}
		g.seenAge.Remove(front)
		delete(g.seen, front.Value.(dag.Hash))
	}
}

// Seen reports whether id has already been gossiped.
func (g *GossipEngine) Seen(id dag.Hash) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[id]
	return ok
}

// RegisterPeer adds s to the broadcast fan-out set.
func (g *GossipEngine) RegisterPeer(s *Session) {
	g.peerMu.Lock()
	defer g.peerMu.Unlock()
	g.peers[s.IDString()] = s
}

// UnregisterPeer removes a peer from the fan-out set.
func (g *GossipEngine) UnregisterPeer(idHex string) {
	g.peerMu.Lock()
	defer g.peerMu.Unlock()
	delete(g.peers, idHex)
}

// Broadcast sends msg to every registered peer except excludeIDHex (the
// sender, when forwarding). Send failures are logged and otherwise
// ignored: a single unreachable peer must never stall fan-out to the
// rest.
func (g *GossipEngine) Broadcast(msg Message, excludeIDHex string) {
	g.peerMu.Lock()
	targets := make([]*Session, 0, len(g.peers))
	for idHex, s := range g.peers {
		if idHex == excludeIDHex {
			continue
		}
		targets = append(targets, s)
	}
	g.peerMu.Unlock()

	g.pendingMu.Lock()
	g.pending[msg.ID] = struct{}{}
	g.pendingMu.Unlock()

	for _, s := range targets {
		if err := s.SendMessage(msg, g.params); err != nil {
			log.Printf("[Gossip] send to %s failed: %v", s.Address, err)
		}
	}

	g.pendingMu.Lock()
	delete(g.pending, msg.ID)
	g.pendingMu.Unlock()
}

// GossipTransaction broadcasts tx to every peer except the one it arrived
// from, unless it has already been seen - the standard
// mark-seen-then-forward gossip rule. Returns false if tx had already
// been gossiped.
func (g *GossipEngine) GossipTransaction(tx dag.Transaction, senderID []byte) bool {
	msg := NewTransactionMessage(tx, senderID)
	if !g.MarkSeen(msg.ID) {
		return false
	}
	g.Broadcast(msg, hexID(senderID))
	return true
}

// Stats returns a snapshot of the engine's bookkeeping.
func (g *GossipEngine) Stats() Stats {
	g.mu.Lock()
	seen := len(g.seen)
	g.mu.Unlock()

	g.peerMu.Lock()
	peers := len(g.peers)
	g.peerMu.Unlock()

	g.pendingMu.Lock()
	pending := len(g.pending)
	g.pendingMu.Unlock()

	return Stats{SeenMessages: seen, ActivePeers: peers, PendingMessages: pending}
}
