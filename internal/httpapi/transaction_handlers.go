package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// lookupTransaction resolves :tid or writes a 404 and returns ok=false.
func (h *Handler) lookupTransaction(c *gin.Context) (tid string, ok bool) {
	tid = c.Param("tid")
	if _, err := h.ctrl.Transaction(tid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return tid, false
	}
	return tid, true
}

// Start binds :role and the request body to the transaction at :tid
// and begins it (§4.8, §6.2). There is one Start route for every role:
// Transaction.Start itself is role-agnostic, so the HTTP surface
// doesn't need a hand-written method per role either.
// (POST /transactions/:tid/start/:role)
func (h *Handler) Start(c *gin.Context) {
	tid, ok := h.lookupTransaction(c)
	if !ok {
		return
	}
	role, ok := enums.ParseRole(c.Param("role"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized role"})
		return
	}
	tx, _ := h.ctrl.Transaction(tid)

	var body startRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	req := body.toRequest(callerUID(c), c.GetHeader("X-Caller-Cmdline"), c.ClientIP(), h.takeHints(tid))
	if hint, ok := h.ctrl.ProxyFor(req.CallerUID); ok {
		req.HTTPProxy = hint.HTTPProxy
		req.FTPProxy = hint.FTPProxy
	}

	// A SETUP-stage validation or authorization failure is never
	// reported here: it finishes the transaction through failSetup and
	// is only ever observable via the ErrorCode+Finished signal pair on
	// /signals (§7). The only error Start can still return is caller
	// misuse (role already bound), which is this daemon's bug, not the
	// request's.
	if err := tx.Start(c.Request.Context(), role, req); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// SetHints records client hints for tid, to be folded into its next
// Start call (§4.8); ParseHints only ever runs inside Start, once the
// role is known.
// (PUT /transactions/:tid/hints)
func (h *Handler) SetHints(c *gin.Context) {
	tid, ok := h.lookupTransaction(c)
	if !ok {
		return
	}
	var body setHintsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.putHints(tid, body.Hints)
	c.Status(http.StatusNoContent)
}

// Get renders the transaction's current properties (§3.5, §6.3).
// (GET /transactions/:tid)
func (h *Handler) Get(c *gin.Context) {
	tid, ok := h.lookupTransaction(c)
	if !ok {
		return
	}
	tx, _ := h.ctrl.Transaction(tid)
	c.JSON(http.StatusOK, newSnapshotDTO(tx.Progress().Snapshot()))
}

// Cancel asks the transaction to abort (§4.8, §5 "Cancel is a hint").
// (POST /transactions/:tid/cancel)
func (h *Handler) Cancel(c *gin.Context) {
	tid, ok := h.lookupTransaction(c)
	if !ok {
		return
	}
	tx, _ := h.ctrl.Transaction(tid)
	if err := tx.Cancel(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// Signals streams the transaction's backend events as server-sent
// events until Finished, the last signal on its path (§5). It is the
// HTTP surface's stand-in for the bus signal mechanism.
// (GET /transactions/:tid/signals)
func (h *Handler) Signals(c *gin.Context) {
	tid, ok := h.lookupTransaction(c)
	if !ok {
		return
	}
	tx, _ := h.ctrl.Transaction(tid)
	h.streamSignals(c, tx)
}
