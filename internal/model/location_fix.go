package model

import (
	"time"
)

// LocationOutcome classifies the result of a location request
type LocationOutcome string

const (
	LocationOutcomeFix         LocationOutcome = "fix"
	LocationOutcomeDenied      LocationOutcome = "denied"
	LocationOutcomeUnsupported LocationOutcome = "unsupported"
	LocationOutcomeInvalid     LocationOutcome = "invalid"
)

// LocationFixPG is the diagnostics row written for every location request
type LocationFixPG struct {
	ID        uint            `gorm:"primaryKey"`
	SessionID string          `gorm:"size:32;not null;index"`
	Outcome   LocationOutcome `gorm:"size:16;not null"`
	Longitude *float64
	Latitude  *float64
	Reason    string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name
func (LocationFixPG) TableName() string {
	return "location_fixes"
}
