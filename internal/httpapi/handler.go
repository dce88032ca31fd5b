package httpapi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/control"
)

// Handler fronts the control surface for internal/server's router. It
// carries no state of its own beyond its collaborators, the same shape
// as the teacher's handlers.Handler{consoleSrv, collector}, plus a
// small pending-hints table: SetHints and Start are two separate HTTP
// requests, so the hints a client sets have to outlive the request
// that set them until the Start call that consumes them.
type Handler struct {
	ctrl    *control.Control
	quitter control.DaemonQuitter
	log     *zap.SugaredLogger

	mu    sync.Mutex
	hints map[string][]string
}

// New builds a Handler wrapping ctrl. quitter is invoked by
// SuggestDaemonQuit once the transaction list is idle; it may be nil,
// in which case SuggestDaemonQuit is a pure idleness check.
func New(ctrl *control.Control, quitter control.DaemonQuitter) *Handler {
	return &Handler{
		ctrl:    ctrl,
		quitter: quitter,
		log:     zap.S().Named("httpapi"),
		hints:   make(map[string][]string),
	}
}

// putHints records hints for tid, overwriting any previous call.
func (h *Handler) putHints(tid string, hints []string) {
	h.mu.Lock()
	h.hints[tid] = hints
	h.mu.Unlock()
}

// takeHints returns and clears the hints recorded for tid.
func (h *Handler) takeHints(tid string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	hints := h.hints[tid]
	delete(h.hints, tid)
	return hints
}
