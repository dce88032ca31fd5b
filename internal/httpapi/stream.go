package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/transaction"
)

// streamSignals relays tx's backend events as SSE frames until
// Finished arrives or the client disconnects (§5 "Finished is the last
// signal on a transaction's path").
//
// A transaction that fails SETUP-stage validation or authorization
// (internal/transaction.Transaction.failSetup) never dispatches a
// backend job, so no Finished event ever reaches Subscribe; by the time
// a client's first GET /signals arrives, failSetup has already recorded
// the ErrorCode and finished the transaction synchronously inside
// Start. These two signals are what this branch replays for a late
// subscriber rather than relaying verbatim off Subscribe/OnFinished.
func (h *Handler) streamSignals(c *gin.Context, tx *transaction.Transaction) {
	if exit, done := tx.Exit(); done {
		if errRec := tx.Results().Error(); errRec != nil {
			c.SSEvent("ErrorCode", signalPayload(backend.Event{Kind: backend.EventErrorCode, Payload: *errRec}))
		}
		c.SSEvent("Finished", gin.H{"exit": exit.String()})
		return
	}

	events := make(chan backend.Event, 64)
	finished := make(chan enums.Exit, 1)
	seenFinished := make(chan struct{})

	tx.Subscribe(func(ev backend.Event) {
		if ev.Kind == backend.EventFinished {
			close(seenFinished)
		}
		select {
		case events <- ev:
		default:
			h.log.Warnw("signal stream backpressure, dropping event", "tid", tx.TID())
		}
	})
	tx.OnFinished(func(exit enums.Exit, _ int64) {
		select {
		case <-seenFinished:
		default:
			finished <- exit
		}
	})

	c.Stream(func(w gin.ResponseWriter) bool {
		select {
		case ev := <-events:
			c.SSEvent(signalName(ev.Kind), signalPayload(ev))
			return ev.Kind != backend.EventFinished
		case exit := <-finished:
			c.SSEvent("Finished", gin.H{"exit": exit.String()})
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}
