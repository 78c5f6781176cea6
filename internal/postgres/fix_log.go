package postgres

import (
	"context"

	"lightningtracker/internal/model"
	"lightningtracker/internal/service/location"

	"gorm.io/gorm"
)

// FixLog stores location request outcomes for diagnostics
type FixLog struct {
	db *gorm.DB
}

// NewFixLog creates a fix log on top of db
func NewFixLog(db *gorm.DB) *FixLog {
	return &FixLog{db: db}
}

// ForSession binds the log to one map session
func (l *FixLog) ForSession(sessionID string) location.OutcomeRecorder {
	return sessionFixLog{log: l, sessionID: sessionID}
}

// Record inserts one outcome row
func (l *FixLog) Record(ctx context.Context, sessionID string, outcome location.Outcome) error {
	return l.db.WithContext(ctx).Create(NewLocationFixRow(sessionID, outcome)).Error
}

// Recent returns the latest rows of a session, newest first
func (l *FixLog) Recent(ctx context.Context, sessionID string, limit int) ([]model.LocationFixPG, error) {
	var rows []model.LocationFixPG
	err := l.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// NewLocationFixRow converts an outcome into its table row
func NewLocationFixRow(sessionID string, outcome location.Outcome) *model.LocationFixPG {
	row := &model.LocationFixPG{
		SessionID: sessionID,
		Outcome:   outcome.Kind,
	}
	if outcome.Point != nil {
		lng, lat := outcome.Point.Longitude, outcome.Point.Latitude
		row.Longitude = &lng
		row.Latitude = &lat
	}
	if outcome.Err != nil {
		row.Reason = outcome.Err.Error()
	}
	return row
}

type sessionFixLog struct {
	log       *FixLog
	sessionID string
}

func (s sessionFixLog) RecordOutcome(ctx context.Context, outcome location.Outcome) error {
	return s.log.Record(ctx, s.sessionID, outcome)
}
