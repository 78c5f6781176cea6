package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/paulmach/orb/geojson"
)

// exportRingsToGeoJSON writes the rendered rings to a GeoJSON file for visualization
func exportRingsToGeoJSON(fc *geojson.FeatureCollection, outputFile string) error {
	log.Printf("Exporting %d features to GeoJSON file: %s", len(fc.Features), outputFile)

	// Marshal the FeatureCollection to JSON
	jsonData, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	// Write to file
	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write GeoJSON file: %w", err)
	}

	log.Printf("Successfully exported rings to %s", outputFile)
	return nil
}
