package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"lightningtracker/internal/config"
	"lightningtracker/internal/mapview"
	"lightningtracker/internal/model"
	"lightningtracker/internal/service/location"
	"lightningtracker/internal/service/overlay"
	"lightningtracker/internal/service/viewport"

	"github.com/paulmach/orb/geojson"
)

const offlineToken = "offline"

type options struct {
	Longitude float64
	Latitude  float64
	Output    string
	Timeout   time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	fc, err := renderRings(context.Background(), opts)
	if err != nil {
		log.Fatalf("Failed to render alert rings: %v", err)
	}

	if err := exportRingsToGeoJSON(fc, opts.Output); err != nil {
		log.Fatalf("Failed to export alert rings: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("ring-export", flag.ContinueOnError)
	fs.Float64Var(&opts.Longitude, "lng", math.NaN(), "Longitude of the ring center")
	fs.Float64Var(&opts.Latitude, "lat", math.NaN(), "Latitude of the ring center")
	fs.StringVar(&opts.Output, "out", "alert_rings.geojson", "Output GeoJSON file")
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "How long to wait for the rings to be drawn")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if math.IsNaN(opts.Longitude) || math.IsNaN(opts.Latitude) {
		return opts, errors.New("-lng and -lat are required")
	}
	if !model.NewGeoPoint(opts.Longitude, opts.Latitude).Valid() {
		return opts, fmt.Errorf("coordinate out of range: lng=%v lat=%v", opts.Longitude, opts.Latitude)
	}
	return opts, nil
}

// renderRings mounts a headless map, feeds it the coordinate as the device
// location and returns everything drawn on it.
func renderRings(ctx context.Context, opts options) (*geojson.FeatureCollection, error) {
	if err := config.ValidateRings(config.AlertZones); err != nil {
		return nil, err
	}

	view := mapview.NewMemoryMap(mapview.Options{
		Container:   config.DefaultContainer,
		Style:       config.DefaultMapStyle,
		AccessToken: offlineToken,
		Center:      config.DefaultCenter,
		Zoom:        config.DefaultZoom,
	})
	factory := singleViewFactory{view: view}

	center := model.NewGeoPoint(opts.Longitude, opts.Latitude)
	adapter := location.NewAdapter(location.StaticSource{Point: center}, nil, nil)
	controller := viewport.NewController(viewport.Options{
		Container:     config.DefaultContainer,
		Style:         config.DefaultMapStyle,
		AccessToken:   offlineToken,
		DefaultCenter: config.DefaultCenter,
		DefaultZoom:   config.DefaultZoom,
		FixZoom:       config.FixZoom,
		Rings:         config.AlertZones,
	}, factory, adapter, overlay.NewRegistry(nil), nil)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := controller.Mount(ctx); err != nil {
		return nil, err
	}
	defer view.Remove()

	select {
	case <-controller.FixApplied():
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for location fix: %w", ctx.Err())
	}

	log.Printf("Rendered %d alert rings around lng=%.4f lat=%.4f", view.SourceCount(), center.Longitude, center.Latitude)
	return view.FeatureCollection(), nil
}

type singleViewFactory struct {
	view *mapview.MemoryMap
}

func (f singleViewFactory) Create(mapview.Options) (mapview.MapView, error) {
	return f.view, nil
}
