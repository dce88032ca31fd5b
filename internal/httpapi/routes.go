package httpapi

import "github.com/gin-gonic/gin"

// Register mounts every route under group, which internal/server
// prefixes with /api/v1 (mirrors the teacher's registerHandlerFn
// callback in server.NewServer).
func Register(group *gin.RouterGroup, h *Handler) {
	group.GET("/properties", h.GetProperties)
	group.POST("/transactions", h.GetTid)
	group.POST("/suggest-daemon-quit", h.SuggestDaemonQuit)
	group.GET("/time-since-action/:role", h.GetTimeSinceAction)
	group.GET("/can-authorize/:action", h.CanAuthorize)
	group.PUT("/proxy", h.SetProxy)
	group.GET("/daemon-state", h.GetDaemonState)

	group.GET("/transactions/:tid", h.Get)
	group.PUT("/transactions/:tid/hints", h.SetHints)
	group.POST("/transactions/:tid/start/:role", h.Start)
	group.POST("/transactions/:tid/cancel", h.Cancel)
	group.GET("/transactions/:tid/signals", h.Signals)
}
