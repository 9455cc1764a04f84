package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nyx-Blockchain/Nyx/internal/mempool"
	"github.com/Nyx-Blockchain/Nyx/internal/network"
	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

// NodeView is the minimal surface the API needs from the running node,
// kept as an interface so handlers can be tested against a fake without
// standing up a real listener.
type NodeView interface {
	Engine() *dag.Engine
	Mempool() *mempool.Mempool
	Peers() *network.Manager
	SyncState() network.SyncState
	Gossip() *network.GossipEngine
}

// APIHandler serves the admin/status surface: GET /status, GET /balance,
// POST /send, POST /submit, plus the public health check and live event
// stream.
type APIHandler struct {
	node  NodeView
	wsHub *Hub
}

// SetupRouter builds the gin.Engine serving the admin API, reusing the
// CORS/auth/rate-limit/websocket machinery as-is and wiring the four
// domain handlers on top.
func SetupRouter(node NodeView, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{node: node, wsHub: wsHub}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
		pub.GET("/status", handler.handleStatus)
	}

	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.GET("/balance/:address", handler.handleBalance)
		auth.POST("/send", handler.handleSend)
		auth.POST("/submit", handler.handleSubmit)
	}

	return r
}

// handleHealth reports basic liveness.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational"})
}

// handleStatus returns node/DAG/mempool/sync status per SPEC_FULL.md's
// GET /status endpoint.
func (h *APIHandler) handleStatus(c *gin.Context) {
	stats := h.node.Engine().GetStats()
	sync := h.node.SyncState()

	c.JSON(http.StatusOK, gin.H{
		"peers":       h.node.Peers().Count(),
		"mempoolSize": h.node.Mempool().Len(),
		"dag": gin.H{
			"total":      stats.Total,
			"pending":    stats.Pending,
			"confirmed":  stats.Confirmed,
			"finalized":  stats.Finalized,
			"conflicted": stats.Conflicted,
			"tips":       stats.CurrentTips,
		},
		"sync": gin.H{
			"currentHeight": sync.CurrentHeight,
			"targetHeight":  sync.TargetHeight,
			"isSyncing":     sync.IsSyncing,
			"syncedCount":   sync.SyncedCount,
		},
	})
}

// handleBalance is explicitly a structural stub: SPEC_FULL.md's Non-goals
// exclude economic balance validation and UTXO tracking from this module.
// It exists so the endpoint named in the spec is routable, and returns a
// clear "not implemented here" response rather than fabricating a number.
func (h *APIHandler) handleBalance(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error":   "balance tracking is out of scope for this node",
		"address": c.Param("address"),
		"hint":    "balance computation belongs in a wallet/indexer layer reading this node's confirmed transactions",
	})
}

// handleSend is likewise a structural stub: constructing and signing a
// spend is wallet business logic, explicitly out of scope here. The
// endpoint exists to be routable and to document the boundary.
func (h *APIHandler) handleSend(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "transaction construction is out of scope for this node",
		"hint":  "build and sign a transaction with pkg/dag.TransactionBuilder and POST it to /submit",
	})
}

// handleSubmit accepts an already-built, already-signed transaction and
// admits it into the mempool and DAG, then gossips it onward.
func (h *APIHandler) handleSubmit(c *gin.Context) {
	var tx dag.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction payload", "details": err.Error()})
		return
	}

	if _, err := h.node.Mempool().Add(tx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	id, err := h.node.Engine().AddTransaction(tx)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if gossip := h.node.Gossip(); gossip != nil {
		gossip.GossipTransaction(tx, nil)
	}

	if h.wsHub != nil {
		h.wsHub.Broadcast([]byte(`{"type":"transaction_submitted","id":"` + id.String() + `"}`))
	}

	c.JSON(http.StatusAccepted, gin.H{"id": id.String()})
}
