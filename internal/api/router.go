package api

import (
	"net/http"

	routes "lightningtracker/internal/api/handlers"
	"lightningtracker/internal/model"
	"lightningtracker/internal/service/session"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP routes are served from
type Deps struct {
	Info     map[string]string
	Sessions *session.Service
	Zones    []model.RingSpec
	Metrics  http.Handler
	History  routes.FixHistory // optional
}

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, deps Deps) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), deps.Info, deps.Metrics)

	// Setup zone legend and status handlers
	routes.SetupZoneHandlers(api, deps.Zones)

	// Setup map session handlers
	routes.SetupSessionHandlers(api, deps.Sessions, deps.History)
}
