package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"lightningtracker/internal/model"
	"lightningtracker/internal/service/session"

	"github.com/gin-gonic/gin"
)

const (
	locationWaitTimeout = 5 * time.Second
	historyLimit        = 20
)

// FixHistory reads back the location outcomes logged for a session
type FixHistory interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]model.LocationFixPG, error)
}

type sessionHandlers struct {
	sessions *session.Service
	history  FixHistory
}

type locationRequest struct {
	Longitude   *float64 `json:"longitude"`
	Latitude    *float64 `json:"latitude"`
	Error       string   `json:"error"`
	Unsupported bool     `json:"unsupported"`
}

type moveRequest struct {
	Longitude *float64 `json:"longitude" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Zoom      *float64 `json:"zoom" binding:"required"`
}

// SetupSessionHandlers registers the map session endpoints
func SetupSessionHandlers(router *gin.RouterGroup, sessions *session.Service, history FixHistory) {
	h := &sessionHandlers{sessions: sessions, history: history}

	group := router.Group("/sessions")
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.DELETE("/:id", h.destroy)
	group.POST("/:id/location", h.location)
	group.POST("/:id/move", h.move)
	group.GET("/:id/overlays", h.overlays)
	group.GET("/:id/zones", h.zones)
	group.GET("/:id/history", h.fixHistory)
}

func (h *sessionHandlers) create(c *gin.Context) {
	sess, err := h.sessions.Create()
	if err != nil {
		log.Printf("Map session mount failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (h *sessionHandlers) get(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *sessionHandlers) destroy(c *gin.Context) {
	if err := h.sessions.Destroy(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *sessionHandlers) location(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if req.Unsupported || req.Error != "" {
		snap, err := h.sessions.ReportLocationFailure(id, req.Error, req.Unsupported)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
		return
	}

	if req.Longitude == nil || req.Latitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "longitude and latitude are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), locationWaitTimeout)
	defer cancel()

	snap, err := h.sessions.ReportLocation(ctx, id, model.NewGeoPoint(*req.Longitude, *req.Latitude))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *sessionHandlers) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.sessions.Move(c.Param("id"), model.NewGeoPoint(*req.Longitude, *req.Latitude), *req.Zoom)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *sessionHandlers) overlays(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Overlays())
}

func (h *sessionHandlers) zones(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	point := model.NewGeoPoint(lng, lat)
	if errLng != nil || errLat != nil || !point.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lng and lat query parameters must be valid coordinates"})
		return
	}

	zones := sess.ZonesAt(point)
	if zones == nil {
		zones = []model.OverlayRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"point": point, "zones": zones})
}

func (h *sessionHandlers) fixHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "location history is not configured"})
		return
	}
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	rows, err := h.history.Recent(c.Request.Context(), sess.ID, historyLimit)
	if err != nil {
		log.Printf("Failed to read location history for session %s: %v", sess.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read location history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": rows})
}

func (h *sessionHandlers) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrLocationAlreadyReported):
		status = http.StatusConflict
	case errors.Is(err, session.ErrInvalidLocation):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
