package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
)

// Lookback bounds aggregation cost: only events in the trailing window count.
const lookbackWindow = 30 * 24 * time.Hour

const upsertTimeout = 5 * time.Second

// EventSource supplies the risk event history for aggregation.
type EventSource interface {
	ListSince(ctx context.Context, vehicleNumber string, since time.Time) ([]models.RiskEvent, error)
}

// ScoreStore persists periodic aggregates keyed by (vehicle, period, window start).
type ScoreStore interface {
	Upsert(ctx context.Context, score *models.PeriodicRiskScore) error
}

// Aggregator recomputes rolling daily/monthly aggregates for a vehicle.
// Every run rebuilds each touched window from the full event history in the
// lookback rather than folding new values into a stale running mean; that
// keeps reruns idempotent and makes out-of-order samples converge to the
// same result as a sequential run.
type Aggregator struct {
	events EventSource
	scores ScoreStore
	locks  vehicleLocks
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator returns aggregator.
func NewAggregator(events EventSource, scores ScoreStore, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		events: events,
		scores: scores,
		logger: logger,
		now:    time.Now,
	}
}

// Recompute rebuilds all periodic windows touched by the vehicle's events in
// the trailing lookback. No-op when the vehicle has no recent events. A failed
// upsert is retried once; repeated failure is surfaced without rolling back
// the already-persisted events.
func (a *Aggregator) Recompute(ctx context.Context, vehicleNumber, userID string) error {
	unlock := a.locks.lock(vehicleNumber)
	defer unlock()

	now := a.now().UTC()
	lookbackStart := now.Add(-lookbackWindow)

	events, err := a.events.ListSince(ctx, vehicleNumber, lookbackStart)
	if err != nil {
		return &PersistenceError{Stage: "aggregate-load", Err: err}
	}
	if len(events) == 0 {
		return nil
	}

	daily := make(map[time.Time][]int)
	var total int
	for _, ev := range events {
		day := ev.Timestamp.UTC().Truncate(24 * time.Hour)
		daily[day] = append(daily[day], ev.RiskScore)
		total += ev.RiskScore
	}

	for day, scores := range daily {
		agg := &models.PeriodicRiskScore{
			VehicleNumber: vehicleNumber,
			UserID:        userID,
			RiskScore:     roundedMean(scores),
			Period:        models.PeriodDaily,
			StartDate:     day,
			EndDate:       day.Add(24 * time.Hour),
			DataPoints:    len(scores),
		}
		if err := a.upsertWithRetry(ctx, agg); err != nil {
			return err
		}
	}

	monthly := &models.PeriodicRiskScore{
		VehicleNumber: vehicleNumber,
		UserID:        userID,
		RiskScore:     int(math.Round(float64(total) / float64(len(events)))),
		Period:        models.PeriodMonthly,
		StartDate:     lookbackStart,
		EndDate:       now,
		DataPoints:    len(events),
	}
	return a.upsertWithRetry(ctx, monthly)
}

func (a *Aggregator) upsertWithRetry(ctx context.Context, score *models.PeriodicRiskScore) error {
	err := a.upsert(ctx, score)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &PersistenceError{Stage: "aggregate-upsert", Err: err}
	}

	a.logger.Warn("aggregate upsert failed, retrying",
		zap.String("vehicle_number", score.VehicleNumber),
		zap.String("period", string(score.Period)),
		zap.Error(err))

	if err := a.upsert(ctx, score); err != nil {
		return &PersistenceError{Stage: "aggregate-upsert", Err: err}
	}
	return nil
}

func (a *Aggregator) upsert(ctx context.Context, score *models.PeriodicRiskScore) error {
	ctx, cancel := context.WithTimeout(ctx, upsertTimeout)
	defer cancel()
	return a.scores.Upsert(ctx, score)
}

func roundedMean(scores []int) int {
	var sum int
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}
