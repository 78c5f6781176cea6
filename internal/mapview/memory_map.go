package mapview

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"lightningtracker/internal/model"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// sourceSpatial represents a source with its bounds for R-tree indexing
type sourceSpatial struct {
	ID      string
	Polygon orb.Polygon
	Bound   orb.Bound
}

// Bounds implements the rtreego.Spatial interface
func (s *sourceSpatial) Bounds() rtreego.Rect {
	minX, minY := s.Bound.Min[0], s.Bound.Min[1]
	maxX, maxY := s.Bound.Max[0], s.Bound.Max[1]

	// rtreego rejects zero-length sides
	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{nonZero(maxX - minX), nonZero(maxY - minY)},
	)

	return rect
}

func nonZero(v float64) float64 {
	if v <= 0 {
		return 1e-9
	}
	return v
}

// MemoryMap is a headless map view that keeps sources, layers and markers in memory
type MemoryMap struct {
	mu       sync.RWMutex
	opts     Options
	removed  bool
	center   model.GeoPoint
	zoom     float64
	controls map[Control]string

	sources     map[string]Source
	sourceOrder []string
	layers      map[string]Layer
	layerOrder  []string
	markers     []Marker

	spatialIndex *rtreego.Rtree

	listeners      map[int]MoveListener
	nextListenerID int
}

// NewMemoryMap creates a ready in-memory map view with the given options
func NewMemoryMap(opts Options) *MemoryMap {
	return &MemoryMap{
		opts:         opts,
		center:       opts.Center,
		zoom:         opts.Zoom,
		controls:     make(map[Control]string),
		sources:      make(map[string]Source),
		layers:       make(map[string]Layer),
		spatialIndex: rtreego.NewTree(2, 25, 50),
		listeners:    make(map[int]MoveListener),
	}
}

// Options returns the options the map was created with
func (m *MemoryMap) Options() Options {
	return m.opts
}

func (m *MemoryMap) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.removed
}

func (m *MemoryMap) AddControl(control Control, position string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls[control] = position
}

// Controls returns the attached controls with their positions
func (m *MemoryMap) Controls() map[Control]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[Control]string, len(m.controls))
	for k, v := range m.controls {
		result[k] = v
	}
	return result
}

func (m *MemoryMap) Center() model.GeoPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.center
}

func (m *MemoryMap) Zoom() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.zoom
}

func (m *MemoryMap) SetCenter(center model.GeoPoint) {
	m.move(func() { m.center = center })
}

func (m *MemoryMap) SetZoom(zoom float64) {
	m.move(func() { m.zoom = zoom })
}

func (m *MemoryMap) JumpTo(center model.GeoPoint, zoom float64) {
	m.move(func() {
		m.center = center
		m.zoom = zoom
	})
}

// move applies the change under lock and fires listeners after unlocking,
// so listeners may read the view back.
func (m *MemoryMap) move(apply func()) {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	apply()
	center, zoom := m.center, m.zoom

	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]MoveListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(center, zoom)
	}
}

func (m *MemoryMap) OnMove(fn MoveListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *MemoryMap) GetSource(id string) (Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[id]
	return src, ok
}

func (m *MemoryMap) AddSource(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrRemoved
	}
	if _, exists := m.sources[src.ID]; exists {
		return fmt.Errorf("%w: %s", ErrSourceExists, src.ID)
	}

	m.sources[src.ID] = src
	m.sourceOrder = append(m.sourceOrder, src.ID)

	if src.Data != nil {
		if poly, ok := src.Data.Geometry.(orb.Polygon); ok && len(poly) > 0 {
			spatial := &sourceSpatial{ID: src.ID, Polygon: poly, Bound: poly.Bound()}
			m.spatialIndex.Insert(spatial)
		}
	}
	return nil
}

func (m *MemoryMap) GetLayer(id string) (Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	layer, ok := m.layers[id]
	return layer, ok
}

func (m *MemoryMap) AddLayer(layer Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrRemoved
	}
	if _, exists := m.layers[layer.ID]; exists {
		return fmt.Errorf("%w: %s", ErrLayerExists, layer.ID)
	}
	if _, exists := m.sources[layer.Source]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSource, layer.Source)
	}

	m.layers[layer.ID] = layer
	m.layerOrder = append(m.layerOrder, layer.ID)
	return nil
}

func (m *MemoryMap) AddMarker(marker Marker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrRemoved
	}
	m.markers = append(m.markers, marker)
	return nil
}

// Markers returns a copy of the placed markers
func (m *MemoryMap) Markers() []Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Marker(nil), m.markers...)
}

// SourceCount returns the number of registered sources
func (m *MemoryMap) SourceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}

// LayerCount returns the number of registered layers
func (m *MemoryMap) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// SourcesAt returns the ids of polygon sources containing the point, in registration order
func (m *MemoryMap) SourcesAt(p model.GeoPoint) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.removed {
		return nil
	}

	searchRect, err := rtreego.NewRect(
		rtreego.Point{p.Longitude, p.Latitude},
		[]float64{0.0001, 0.0001},
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	candidates := make(map[string]bool)
	for _, item := range m.spatialIndex.SearchIntersect(searchRect) {
		spatial := item.(*sourceSpatial)
		// Bound filter first, then the precise point-in-polygon check
		if planar.PolygonContains(spatial.Polygon, p.Point()) {
			candidates[spatial.ID] = true
		}
	}

	var result []string
	for _, id := range m.sourceOrder {
		if candidates[id] {
			result = append(result, id)
		}
	}
	return result
}

// FeatureCollection renders the sources (with their layer paint) and markers as GeoJSON
func (m *MemoryMap) FeatureCollection() *geojson.FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fc := geojson.NewFeatureCollection()

	paintBySource := make(map[string]Layer)
	for _, id := range m.layerOrder {
		layer := m.layers[id]
		paintBySource[layer.Source] = layer
	}

	for _, id := range m.sourceOrder {
		src := m.sources[id]
		if src.Data == nil {
			continue
		}

		feature := geojson.NewFeature(src.Data.Geometry)
		feature.ID = id
		for k, v := range src.Data.Properties {
			feature.Properties[k] = v
		}
		feature.Properties["source"] = id
		if layer, ok := paintBySource[id]; ok {
			feature.Properties["layer"] = layer.ID
			feature.Properties["line-color"] = layer.Paint.Color
			feature.Properties["line-width"] = layer.Paint.Width
			feature.Properties["line-opacity"] = layer.Paint.Opacity
		}
		fc.Append(feature)
	}

	for _, marker := range m.markers {
		feature := geojson.NewFeature(marker.Position.Point())
		feature.Properties["type"] = "marker"
		feature.Properties["marker-color"] = marker.Color
		feature.Properties["popup"] = marker.PopupHTML
		fc.Append(feature)
	}

	return fc
}

func (m *MemoryMap) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return
	}
	m.removed = true
	m.sources = make(map[string]Source)
	m.sourceOrder = nil
	m.layers = make(map[string]Layer)
	m.layerOrder = nil
	m.markers = nil
	m.spatialIndex = rtreego.NewTree(2, 25, 50)
	m.listeners = make(map[int]MoveListener)
}

// MemoryFactory creates MemoryMap views. Like a hosted map service it refuses
// to initialise without an access token.
type MemoryFactory struct {
	created atomic.Int64
}

// NewMemoryFactory creates a factory
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{}
}

func (f *MemoryFactory) Create(opts Options) (MapView, error) {
	if opts.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	f.created.Add(1)
	return NewMemoryMap(opts), nil
}

// Created returns the number of views created so far
func (f *MemoryFactory) Created() int {
	return int(f.created.Load())
}
