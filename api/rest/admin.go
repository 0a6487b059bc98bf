package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aokumo/nightwarden/audit"
	"github.com/aokumo/nightwarden/game/player"
	"github.com/aokumo/nightwarden/game/world"
	"github.com/aokumo/nightwarden/model"
	"github.com/aokumo/nightwarden/scheduler"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	sm     *player.SessionManager
	wm     *world.Manager
	runs   *audit.Service
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	db *gorm.DB,
	sm *player.SessionManager,
	wm *world.Manager,
	runs *audit.Service,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{db: db, sm: sm, wm: wm, runs: runs, sched: sched, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_players":  h.sm.Count(),
		"active_rooms":    h.wm.Count(),
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListRooms returns a snapshot of every active room.
// GET /api/admin/rooms
func (h *AdminHandler) ListRooms(c *gin.Context) {
	rooms := h.wm.List()
	result := make([]map[string]interface{}, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, r.Snapshot())
	}
	c.JSON(http.StatusOK, gin.H{"rooms": result, "count": len(result)})
}

// RoomState returns the full state of one room.
// GET /api/admin/rooms/:id
func (h *AdminHandler) RoomState(c *gin.Context) {
	room := h.wm.Get(c.Param("id"))
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, room.Snapshot())
}

// ForceChase points the warden at the player's position, pre-empting
// whatever it was doing.
// POST /api/admin/rooms/:id/chase
func (h *AdminHandler) ForceChase(c *gin.Context) {
	room := h.wm.Get(c.Param("id"))
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	room.ForceChase()
	h.logger.Info("admin forced chase", zap.String("room_id", room.ID))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// FinalChase arms the endgame pursuit: the warden runs at the given speed
// and the next contact ends the level in success.
// POST /api/admin/rooms/:id/final-chase
func (h *AdminHandler) FinalChase(c *gin.Context) {
	room := h.wm.Get(c.Param("id"))
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	var req struct {
		Speed float64 `json:"speed" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room.EnableFinalChase(req.Speed)
	h.logger.Info("admin armed final chase",
		zap.String("room_id", room.ID), zap.Float64("speed", req.Speed))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DestroyRoom stops a room and drops it from the manager.
// DELETE /api/admin/rooms/:id
func (h *AdminHandler) DestroyRoom(c *gin.Context) {
	if !h.wm.Destroy(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RecentRuns returns the latest recorded run outcomes.
// GET /api/admin/runs?limit=N
func (h *AdminHandler) RecentRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.runs.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// KickPlayer forcibly disconnects a player by session ID.
// POST /api/admin/kick/:session_id
func (h *AdminHandler) KickPlayer(c *gin.Context) {
	s := h.sm.Get(c.Param("session_id"))
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not online"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked player", zap.Int64("account_id", s.AccountID))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BanAccount bans or unbans a player account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Ban {
		status = 0
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	// Kick the player if currently online.
	if req.Ban {
		for _, s := range h.sm.All() {
			if s.AccountID == accountID {
				s.Close()
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
