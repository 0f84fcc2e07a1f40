package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
	"driverisk/backend/services/risk-service/internal/repository"
)

const predictorRetryBackoff = 200 * time.Millisecond

// Predictor abstracts the external ML risk predictor.
type Predictor interface {
	Predict(ctx context.Context, in models.FeatureVector) (models.Prediction, error)
}

// VehicleDataStore persists scored raw samples.
type VehicleDataStore interface {
	Insert(ctx context.Context, data *models.VehicleDataRecord) error
	ListByVehicle(ctx context.Context, vehicleNumber string, limit int) ([]models.VehicleDataRecord, error)
	LatestScore(ctx context.Context, vehicleNumber string) (int, time.Time, error)
}

// EventStore persists and queries risk events.
type EventStore interface {
	Insert(ctx context.Context, event *models.RiskEvent) error
	ListFiltered(ctx context.Context, filter repository.EventFilter) ([]models.RiskEvent, error)
}

// UserResolver maps a vehicle to its owning user.
type UserResolver interface {
	GetByVehicle(ctx context.Context, vehicleNumber string) (*models.User, error)
}

// ScoreCache holds the most recent score per vehicle for cheap dashboard reads.
type ScoreCache interface {
	SaveLatest(ctx context.Context, vehicleNumber string, score int, at time.Time) error
	GetLatest(ctx context.Context, vehicleNumber string) (int, time.Time, bool, error)
}

// ScoreReader lists periodic aggregates for the query boundary.
type ScoreReader interface {
	ListByVehicle(ctx context.Context, vehicleNumber string, period models.Period, limit int) ([]models.PeriodicRiskScore, error)
}

// RiskService runs the scoring pipeline: predict, score, persist, classify,
// record the event and refresh the vehicle's aggregates.
type RiskService struct {
	predictor       Predictor
	vehicleData     VehicleDataStore
	events          EventStore
	users           UserResolver
	periodicScores  ScoreReader
	aggregator      *Aggregator
	cache           ScoreCache
	fallbackEnabled bool
	logger          *zap.Logger
}

// NewRiskService returns service instance. cache may be nil when redis is disabled.
func NewRiskService(
	predictor Predictor,
	vehicleData VehicleDataStore,
	events EventStore,
	users UserResolver,
	periodicScores ScoreReader,
	aggregator *Aggregator,
	cache ScoreCache,
	fallbackEnabled bool,
	logger *zap.Logger,
) *RiskService {
	return &RiskService{
		predictor:       predictor,
		vehicleData:     vehicleData,
		events:          events,
		users:           users,
		periodicScores:  periodicScores,
		aggregator:      aggregator,
		cache:           cache,
		fallbackEnabled: fallbackEnabled,
		logger:          logger,
	}
}

// IngestResult is returned to the ingestion caller.
type IngestResult struct {
	RiskScore int    `json:"risk_score"`
	Degraded  bool   `json:"degraded,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// ProcessSample scores one telemetry sample and records its side effects.
// A non-Safe prediction produces a risk event and an aggregate refresh;
// a Safe one only stores the scored sample.
func (s *RiskService) ProcessSample(ctx context.Context, sample models.TelemetrySample) (IngestResult, error) {
	if err := validateSample(&sample); err != nil {
		return IngestResult{}, err
	}

	prediction, score, degraded, err := s.score(ctx, sample.Input)
	if err != nil {
		return IngestResult{}, err
	}

	record := &models.VehicleDataRecord{
		VehicleNumber: sample.VehicleNumber,
		Timestamp:     sample.Timestamp.UTC(),
		Input:         sample.Input,
		Location:      sample.Location,
		RiskScore:     score,
	}
	if err := s.vehicleData.Insert(ctx, record); err != nil {
		return IngestResult{}, &PersistenceError{Stage: "vehicle-data", Err: err}
	}

	result := IngestResult{RiskScore: score, Degraded: degraded}

	if prediction.RiskLevel != models.RiskSafe {
		warn, err := s.recordEvent(ctx, sample, prediction, score)
		if err != nil {
			return IngestResult{}, err
		}
		if warn != nil {
			result.Warning = warn.Error()
		}
	}

	if s.cache != nil {
		if err := s.cache.SaveLatest(ctx, sample.VehicleNumber, score, sample.Timestamp.UTC()); err != nil {
			s.logger.Warn("failed to cache latest score",
				zap.String("vehicle_number", sample.VehicleNumber), zap.Error(err))
		}
	}

	return result, nil
}

// score calls the predictor with one retry, then falls back to the rule-only
// scorer when enabled. The degraded flag tells the caller no model was involved.
func (s *RiskService) score(ctx context.Context, in models.FeatureVector) (models.Prediction, int, bool, error) {
	prediction, err := s.predictor.Predict(ctx, in)
	if err != nil && ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return models.Prediction{}, 0, false, &PredictorError{Err: ctx.Err()}
		case <-time.After(predictorRetryBackoff):
		}
		prediction, err = s.predictor.Predict(ctx, in)
	}
	if err != nil {
		if ctx.Err() != nil || !s.fallbackEnabled {
			return models.Prediction{}, 0, false, &PredictorError{Err: err}
		}
		s.logger.Warn("predictor unavailable, using rule-only fallback score", zap.Error(err))
		fallback := models.Prediction{RiskLevel: fallbackRiskLevel(in), Confidence: 100}
		return fallback, FallbackRiskScore(in), true, nil
	}

	score, err := CalculateRiskScore(prediction, in)
	if err != nil {
		return models.Prediction{}, 0, false, err
	}
	return prediction, score, false, nil
}

// recordEvent persists the risk event and refreshes aggregates. The first
// return value is a non-fatal warning (missing attribution, stale aggregates);
// the second is a hard failure the caller must see, since a risk event must
// never be dropped silently.
func (s *RiskService) recordEvent(ctx context.Context, sample models.TelemetrySample, prediction models.Prediction, score int) (error, error) {
	user, err := s.users.GetByVehicle(ctx, sample.VehicleNumber)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			warn := &AttributionWarning{VehicleNumber: sample.VehicleNumber}
			s.logger.Warn("risk event skipped", zap.String("vehicle_number", sample.VehicleNumber))
			return warn, nil
		}
		s.logger.Error("failed to resolve vehicle owner",
			zap.String("vehicle_number", sample.VehicleNumber), zap.Error(err))
		return nil, &PersistenceError{Stage: "user-lookup", Err: err}
	}

	event := &models.RiskEvent{
		VehicleNumber: sample.VehicleNumber,
		UserID:        user.ID,
		RiskScore:     score,
		EventType:     DetermineEventType(sample.Input),
		Speed:         sample.Input.Speed,
		Location:      sample.Location,
		Prediction:    prediction,
		RawData:       sample.Input,
		Timestamp:     sample.Timestamp.UTC(),
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("failed to persist risk event",
			zap.String("vehicle_number", sample.VehicleNumber), zap.Error(err))
		return nil, &PersistenceError{Stage: "risk-event", Err: err}
	}

	if err := s.aggregator.Recompute(ctx, sample.VehicleNumber, user.ID); err != nil {
		// Event capture takes priority over aggregate freshness: the event
		// stands, the stale aggregates heal on the next recompute.
		s.logger.Error("aggregate recompute failed",
			zap.String("vehicle_number", sample.VehicleNumber), zap.Error(err))
		return err, nil
	}
	return nil, nil
}

// RiskScores returns aggregates for a vehicle with the trend signal.
func (s *RiskService) RiskScores(ctx context.Context, vehicleNumber string, period models.Period, limit int) ([]models.PeriodicRiskScore, Trend, error) {
	if limit <= 0 {
		limit = 30
	}
	scores, err := s.periodicScores.ListByVehicle(ctx, vehicleNumber, period, limit)
	if err != nil {
		return nil, Trend{}, &PersistenceError{Stage: "periodic-scores", Err: err}
	}
	return scores, ComputeTrend(scores), nil
}

// EventStatistics summarizes a filtered set of risk events.
type EventStatistics struct {
	AverageRiskScore int            `json:"average_risk_score"`
	MaxRiskScore     int            `json:"max_risk_score"`
	TotalEvents      int            `json:"total_events"`
	EventTypeCounts  map[string]int `json:"event_type_counts"`
}

// RiskEvents returns events matching the filter plus summary statistics.
func (s *RiskService) RiskEvents(ctx context.Context, filter repository.EventFilter) ([]models.RiskEvent, EventStatistics, error) {
	events, err := s.events.ListFiltered(ctx, filter)
	if err != nil {
		return nil, EventStatistics{}, &PersistenceError{Stage: "risk-events", Err: err}
	}

	stats := EventStatistics{EventTypeCounts: make(map[string]int)}
	scores := make([]int, 0, len(events))
	for _, ev := range events {
		scores = append(scores, ev.RiskScore)
		if ev.RiskScore > stats.MaxRiskScore {
			stats.MaxRiskScore = ev.RiskScore
		}
		stats.EventTypeCounts[string(ev.EventType)]++
	}
	stats.TotalEvents = len(events)
	if len(scores) > 0 {
		stats.AverageRiskScore = roundedMean(scores)
	}
	return events, stats, nil
}

// VehicleData returns the most recent raw samples for a vehicle.
func (s *RiskService) VehicleData(ctx context.Context, vehicleNumber string, limit int) ([]models.VehicleDataRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	records, err := s.vehicleData.ListByVehicle(ctx, vehicleNumber, limit)
	if err != nil {
		return nil, &PersistenceError{Stage: "vehicle-data", Err: err}
	}
	return records, nil
}

// LatestScore returns the newest score for a vehicle, preferring the cache.
func (s *RiskService) LatestScore(ctx context.Context, vehicleNumber string) (int, time.Time, error) {
	if s.cache != nil {
		if score, at, ok, err := s.cache.GetLatest(ctx, vehicleNumber); err == nil && ok {
			return score, at, nil
		}
	}
	score, at, err := s.vehicleData.LatestScore(ctx, vehicleNumber)
	if err != nil {
		return 0, time.Time{}, &PersistenceError{Stage: "latest-score", Err: err}
	}
	return score, at, nil
}

func validateSample(sample *models.TelemetrySample) error {
	if strings.TrimSpace(sample.VehicleNumber) == "" {
		return &ValidationError{Field: "vehicle_number", Reason: "required"}
	}
	if sample.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "required"}
	}
	switch sample.Input.TrafficCondition {
	case models.TrafficLow, models.TrafficMedium, models.TrafficHigh:
	default:
		return &ValidationError{Field: "input.Traffic_Condition", Reason: "must be Low, Medium or High"}
	}
	if sample.Input.Speed < 0 {
		return &ValidationError{Field: "input.Speed", Reason: "must be non-negative"}
	}
	return nil
}

func fallbackRiskLevel(in models.FeatureVector) models.RiskLevel {
	if DetermineEventType(in) != models.EventNormal {
		return models.RiskMedium
	}
	return models.RiskSafe
}
