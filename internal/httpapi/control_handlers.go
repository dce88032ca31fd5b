package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// GetProperties returns the control surface's read-only properties
// (§4.7).
// (GET /properties)
func (h *Handler) GetProperties(c *gin.Context) {
	major, minor, micro := h.ctrl.Version()
	c.JSON(http.StatusOK, propertiesDTO{
		BackendName:        h.ctrl.BackendName(),
		BackendDescription: h.ctrl.BackendDescription(),
		BackendAuthor:      h.ctrl.BackendAuthor(),
		MimeTypes:          h.ctrl.MimeTypes(),
		Roles:              h.ctrl.Roles().Text(enums.AllRoles()),
		Groups:             h.ctrl.Groups().Text(enums.AllGroups()),
		Filters:            h.ctrl.Filters().Text(enums.AllFilters()),
		VersionMajor:       major,
		VersionMinor:       minor,
		VersionMicro:       micro,
		Locked:             h.ctrl.Locked(),
		NetworkState:       h.ctrl.NetworkState().String(),
		DistroID:           h.ctrl.DistroID(),
	})
}

// GetTid allocates a fresh transaction and returns its tid (§4.7
// "GetTid → path"; the HTTP surface hands back the bare tid rather than
// a bus object path).
// (POST /transactions)
func (h *Handler) GetTid(c *gin.Context) {
	_, tid := h.ctrl.GetTid()
	c.JSON(http.StatusCreated, gin.H{"tid": tid})
}

// SuggestDaemonQuit asks the daemon to consider exiting (§4.7).
// (POST /suggest-daemon-quit)
func (h *Handler) SuggestDaemonQuit(c *gin.Context) {
	if err := h.ctrl.SuggestDaemonQuit(h.quitter); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTimeSinceAction reports how long ago role last completed (§4.7).
// (GET /time-since-action/:role)
func (h *Handler) GetTimeSinceAction(c *gin.Context) {
	role, ok := enums.ParseRole(c.Param("role"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized role"})
		return
	}
	d, err := h.ctrl.GetTimeSinceAction(c.Request.Context(), role)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"seconds": int64(d.Seconds())})
}

// CanAuthorize answers whether actionID could be authorized without
// prompting (§4.7).
// (GET /can-authorize/:action)
func (h *Handler) CanAuthorize(c *gin.Context) {
	result, err := h.ctrl.CanAuthorize(c.Request.Context(), c.Param("action"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result.String()})
}

// SetProxy records per-uid proxy hints (§4.7).
// (PUT /proxy)
func (h *Handler) SetProxy(c *gin.Context) {
	var body struct {
		UID       uint32 `json:"uid"`
		HTTPProxy string `json:"http-proxy"`
		FTPProxy  string `json:"ftp-proxy"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.ctrl.SetProxy(body.UID, body.HTTPProxy, body.FTPProxy)
	c.Status(http.StatusNoContent)
}

// GetDaemonState returns an opaque debug dump (§4.7).
// (GET /daemon-state)
func (h *Handler) GetDaemonState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.ctrl.GetDaemonState()})
}

func callerUID(c *gin.Context) uint32 {
	v := c.GetHeader("X-Caller-Uid")
	if v == "" {
		return 0
	}
	uid, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(uid)
}
