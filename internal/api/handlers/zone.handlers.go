package routes

import (
	"net/http"

	"lightningtracker/internal/model"

	"github.com/gin-gonic/gin"
)

type zoneLegend struct {
	DistanceMiles float64          `json:"distance_miles"`
	Color         model.ColorToken `json:"color"`
	Hex           string           `json:"hex"`
	Label         string           `json:"label"`
}

// SetupZoneHandlers registers the alert zone legend and the status bar
func SetupZoneHandlers(router *gin.RouterGroup, zones []model.RingSpec) {
	legend := make([]zoneLegend, 0, len(zones))
	for _, z := range zones {
		legend = append(legend, zoneLegend{
			DistanceMiles: z.DistanceMiles,
			Color:         z.Color,
			Hex:           z.Color.Hex(),
			Label:         z.Legend(),
		})
	}

	router.GET("/zones", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"zones": legend})
	})

	// Strike ingestion does not exist yet, the status bar shows fixed values
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connection":  "Connected",
			"last_update": "Just now",
			"strikes":     0,
			"risk_level":  "Low",
		})
	})
}
