package location

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lightningtracker/internal/model"
	"lightningtracker/internal/observability"

	"github.com/sourcegraph/conc/panics"
)

var (
	ErrUnsupported      = errors.New("geolocation is not supported")
	ErrPermissionDenied = errors.New("user denied geolocation")
	ErrInvalidPosition  = errors.New("reported position is out of range")
)

// Source is the device location capability: a single-shot position query
type Source interface {
	CurrentPosition(ctx context.Context) (model.GeoPoint, error)
}

// Outcome is the normalised result of one location request
type Outcome struct {
	Kind  model.LocationOutcome
	Point *model.GeoPoint
	Err   error
}

// OutcomeRecorder receives every outcome for diagnostics
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}

// Adapter wraps a Source and turns success or failure into an optional point
type Adapter struct {
	source   Source
	recorder OutcomeRecorder
	metrics  *observability.Metrics
}

// NewAdapter creates an adapter. A nil source means the capability is missing.
func NewAdapter(source Source, recorder OutcomeRecorder, metrics *observability.Metrics) *Adapter {
	return &Adapter{source: source, recorder: recorder, metrics: metrics}
}

// Acquire issues exactly one position request in the background. The returned
// channel yields the point, or nil on any failure, and is then closed.
// There is no retry and no timeout; ctx only ends an outstanding request.
func (a *Adapter) Acquire(ctx context.Context) <-chan *model.GeoPoint {
	result := make(chan *model.GeoPoint, 1)

	go func() {
		defer close(result)

		outcome := a.request(ctx)
		if outcome.Point == nil {
			log.Printf("Location access denied: %v", outcome.Err)
		} else {
			log.Printf("Location fix at lng=%.4f lat=%.4f", outcome.Point.Longitude, outcome.Point.Latitude)
		}

		a.metrics.LocationOutcome(string(outcome.Kind))
		if a.recorder != nil {
			if err := a.recorder.RecordOutcome(context.WithoutCancel(ctx), outcome); err != nil {
				log.Printf("Failed to record location outcome: %v", err)
			}
		}

		result <- outcome.Point
	}()

	return result
}

func (a *Adapter) request(ctx context.Context) Outcome {
	if a.source == nil {
		return Outcome{Kind: model.LocationOutcomeUnsupported, Err: ErrUnsupported}
	}

	var (
		point model.GeoPoint
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() {
		point, err = a.source.CurrentPosition(ctx)
	})
	if recovered := pc.Recovered(); recovered != nil {
		return Outcome{Kind: model.LocationOutcomeDenied, Err: recovered.AsError()}
	}

	switch {
	case errors.Is(err, ErrUnsupported):
		return Outcome{Kind: model.LocationOutcomeUnsupported, Err: err}
	case err != nil:
		return Outcome{Kind: model.LocationOutcomeDenied, Err: err}
	case !point.Valid():
		return Outcome{Kind: model.LocationOutcomeInvalid, Err: fmt.Errorf("%w: %+v", ErrInvalidPosition, point)}
	}

	return Outcome{Kind: model.LocationOutcomeFix, Point: &point}
}
