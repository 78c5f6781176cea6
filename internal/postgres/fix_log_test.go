package postgres

import (
	"testing"

	"lightningtracker/internal/model"
	"lightningtracker/internal/service/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationFixRowForFix(t *testing.T) {
	p := model.NewGeoPoint(-122.4, 37.8)
	row := NewLocationFixRow("s1", location.Outcome{Kind: model.LocationOutcomeFix, Point: &p})

	assert.Equal(t, "s1", row.SessionID)
	assert.Equal(t, model.LocationOutcomeFix, row.Outcome)
	require.NotNil(t, row.Longitude)
	require.NotNil(t, row.Latitude)
	assert.Equal(t, -122.4, *row.Longitude)
	assert.Equal(t, 37.8, *row.Latitude)
	assert.Empty(t, row.Reason)
}

func TestNewLocationFixRowForFailure(t *testing.T) {
	row := NewLocationFixRow("s2", location.Outcome{Kind: model.LocationOutcomeDenied, Err: location.ErrPermissionDenied})

	assert.Equal(t, model.LocationOutcomeDenied, row.Outcome)
	assert.Nil(t, row.Longitude)
	assert.Nil(t, row.Latitude)
	assert.Equal(t, "user denied geolocation", row.Reason)
	assert.Equal(t, "location_fixes", row.TableName())
}
