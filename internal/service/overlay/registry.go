package overlay

import (
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"lightningtracker/internal/mapview"
	"lightningtracker/internal/model"
	"lightningtracker/internal/observability"
	"lightningtracker/internal/util"

	"github.com/paulmach/orb/geojson"
)

const (
	LineWidth   = 2.0
	LineOpacity = 0.8
)

// Registry materialises alert rings on a map view at most once per identity key
type Registry struct {
	metrics *observability.Metrics
	now     func() time.Time

	mu      sync.RWMutex
	records map[string]model.OverlayRecord
}

// NewRegistry creates an empty registry; metrics may be nil
func NewRegistry(metrics *observability.Metrics) *Registry {
	return &Registry{
		metrics: metrics,
		now:     time.Now,
		records: make(map[string]model.OverlayRecord),
	}
}

// EnsureRing registers the ring source and line layer on view unless a source
// with the ring's identity key is already there. It returns true only when
// something was registered. A nil or not-ready view is skipped.
func (r *Registry) EnsureRing(view mapview.MapView, center model.GeoPoint, ring model.RingSpec) bool {
	if view == nil || !view.Ready() {
		return false
	}

	key := ring.SourceID()
	if _, exists := view.GetSource(key); exists {
		r.metrics.OverlayDuplicate()
		if existing, ok := r.Record(key); ok && existing.Center != center {
			// Keyed by distance only: a ring built for an older fix stays where it was
			log.Printf("Overlay %s already drawn around %v, keeping it for new center %v",
				key, existing.Center, center)
		}
		return false
	}

	record := r.buildRecord(center, ring)

	if err := view.AddSource(mapview.Source{ID: key, Data: record.Feature}); err != nil {
		log.Printf("Failed to add source %s: %v", key, err)
		return false
	}
	if err := view.AddLayer(mapview.Layer{
		ID:     record.LayerID,
		Type:   "line",
		Source: key,
		Paint:  record.Style,
	}); err != nil {
		log.Printf("Failed to add layer %s: %v", record.LayerID, err)
		return false
	}

	r.mu.Lock()
	r.records[key] = record
	r.mu.Unlock()

	r.metrics.OverlayRegistered(strconv.FormatFloat(ring.DistanceMiles, 'f', -1, 64))
	return true
}

func (r *Registry) buildRecord(center model.GeoPoint, ring model.RingSpec) model.OverlayRecord {
	radiusMeters := util.MilesToMeters(ring.DistanceMiles)
	circle := util.GenerateCircle(center, radiusMeters)
	minSpread, maxSpread := util.RadiusSpread(center, circle)

	feature := geojson.NewFeature(circle.Polygon())
	feature.Properties["distance_miles"] = ring.DistanceMiles
	feature.Properties["radius_m"] = radiusMeters
	feature.Properties["risk"] = ring.Color.RiskLabel()
	feature.Properties["color"] = string(ring.Color)
	feature.Properties["geodesic_min_m"] = minSpread
	feature.Properties["geodesic_max_m"] = maxSpread

	return model.OverlayRecord{
		Key:     ring.SourceID(),
		LayerID: ring.LayerID(),
		Ring:    ring,
		Center:  center,
		Polygon: circle,
		Feature: feature,
		Style: model.LineStyle{
			Color:   ring.Color.Hex(),
			Width:   LineWidth,
			Opacity: LineOpacity,
		},
		CreatedAt: r.now(),
	}
}

// Record returns the overlay registered under key
func (r *Registry) Record(key string) (model.OverlayRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[key]
	return record, ok
}

// Records returns all registered overlays ordered by distance
func (r *Registry) Records() []model.OverlayRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.OverlayRecord, 0, len(r.records))
	for _, record := range r.records {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ring.DistanceMiles < result[j].Ring.DistanceMiles
	})
	return result
}

// Count returns the number of registered overlays
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
