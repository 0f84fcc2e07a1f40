package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
	"driverisk/backend/services/risk-service/internal/repository"
)

type fakePredictor struct {
	mu         sync.Mutex
	prediction models.Prediction
	err        error
	failFirst  int
	calls      int
}

func (f *fakePredictor) Predict(_ context.Context, _ models.FeatureVector) (models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFirst > 0 {
		f.failFirst--
		return models.Prediction{}, errors.New("connection refused")
	}
	if f.err != nil {
		return models.Prediction{}, f.err
	}
	return f.prediction, nil
}

type fakeVehicleDataStore struct {
	mu      sync.Mutex
	records []models.VehicleDataRecord
	err     error
}

func (f *fakeVehicleDataStore) Insert(_ context.Context, data *models.VehicleDataRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	data.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *data)
	return nil
}

func (f *fakeVehicleDataStore) ListByVehicle(_ context.Context, vehicleNumber string, limit int) ([]models.VehicleDataRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.VehicleDataRecord
	for _, rec := range f.records {
		if rec.VehicleNumber == vehicleNumber && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeVehicleDataStore) LatestScore(_ context.Context, vehicleNumber string) (int, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].VehicleNumber == vehicleNumber {
			return f.records[i].RiskScore, f.records[i].Timestamp, nil
		}
	}
	return 0, time.Time{}, errors.New("no rows")
}

type fakeEventStore struct {
	mu        sync.Mutex
	events    []models.RiskEvent
	insertErr error
}

func (f *fakeEventStore) Insert(_ context.Context, event *models.RiskEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if event.ID == "" {
		event.ID = "ev-1"
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventStore) ListFiltered(_ context.Context, filter repository.EventFilter) ([]models.RiskEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RiskEvent
	for _, ev := range f.events {
		if ev.VehicleNumber == filter.VehicleNumber {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListSince(_ context.Context, vehicleNumber string, since time.Time) ([]models.RiskEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RiskEvent
	for _, ev := range f.events {
		if ev.VehicleNumber == vehicleNumber && !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeUserResolver struct {
	user *models.User
	err  error
}

func (f *fakeUserResolver) GetByVehicle(_ context.Context, _ string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeScoreReader struct {
	scores []models.PeriodicRiskScore
}

func (f *fakeScoreReader) ListByVehicle(_ context.Context, _ string, _ models.Period, limit int) ([]models.PeriodicRiskScore, error) {
	if len(f.scores) > limit {
		return f.scores[:limit], nil
	}
	return f.scores, nil
}

type fakeScoreCache struct {
	mu    sync.Mutex
	score int
	at    time.Time
	set   bool
}

func (f *fakeScoreCache) SaveLatest(_ context.Context, _ string, score int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.score, f.at, f.set = score, at, true
	return nil
}

func (f *fakeScoreCache) GetLatest(_ context.Context, _ string) (int, time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.score, f.at, f.set, nil
}

type testEnv struct {
	predictor *fakePredictor
	data      *fakeVehicleDataStore
	events    *fakeEventStore
	users     *fakeUserResolver
	cache     *fakeScoreCache
	service   *RiskService
}

func newTestEnv(pred models.Prediction) *testEnv {
	env := &testEnv{
		predictor: &fakePredictor{prediction: pred},
		data:      &fakeVehicleDataStore{},
		events:    &fakeEventStore{},
		users:     &fakeUserResolver{user: &models.User{ID: "user-1", VehicleNumber: "KA-01"}},
		cache:     &fakeScoreCache{},
	}
	scores := newFakeScoreStore()
	aggregator := NewAggregator(env.events, scores, zap.NewNop())
	env.service = NewRiskService(
		env.predictor,
		env.data,
		env.events,
		env.users,
		&fakeScoreReader{},
		aggregator,
		env.cache,
		true,
		zap.NewNop(),
	)
	return env
}

func sampleAt(ts time.Time, input models.FeatureVector) models.TelemetrySample {
	return models.TelemetrySample{
		VehicleNumber: "KA-01",
		Timestamp:     ts,
		Input:         input,
		Location:      models.Location{Latitude: 12.97, Longitude: 77.59},
	}
}

func TestProcessSampleRecordsEventForRiskyPrediction(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskHigh, Confidence: 90})
	input := models.FeatureVector{Speed: 130, TrafficCondition: models.TrafficHigh}

	result, err := env.service.ProcessSample(context.Background(), sampleAt(time.Now().UTC(), input))
	if err != nil {
		t.Fatalf("process sample: %v", err)
	}
	if result.RiskScore != 100 {
		t.Fatalf("expected score 100, got %d", result.RiskScore)
	}
	if result.Degraded {
		t.Fatalf("unexpected degraded flag")
	}
	if env.events.count() != 1 {
		t.Fatalf("expected one risk event, got %d", env.events.count())
	}
	if len(env.data.records) != 1 {
		t.Fatalf("expected raw sample stored, got %d records", len(env.data.records))
	}
	if !env.cache.set || env.cache.score != 100 {
		t.Fatalf("expected latest score cached")
	}
}

func TestProcessSampleSafePredictionSkipsEvent(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskSafe, Confidence: 100})
	// High score magnitude alone must not create an event for a Safe label.
	input := models.FeatureVector{Speed: 130, TrafficCondition: models.TrafficHigh}

	result, err := env.service.ProcessSample(context.Background(), sampleAt(time.Now().UTC(), input))
	if err != nil {
		t.Fatalf("process sample: %v", err)
	}
	if result.RiskScore != 50 { // 20 + 20 + 10
		t.Fatalf("expected score 50, got %d", result.RiskScore)
	}
	if env.events.count() != 0 {
		t.Fatalf("expected no risk events for Safe prediction, got %d", env.events.count())
	}
	if len(env.data.records) != 1 {
		t.Fatalf("raw sample must still be stored")
	}
}

func TestProcessSampleMissingOwnerWarnsAndKeepsTelemetry(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskHigh, Confidence: 80})
	env.users.err = repository.ErrUserNotFound

	result, err := env.service.ProcessSample(context.Background(),
		sampleAt(time.Now().UTC(), models.FeatureVector{Speed: 110, TrafficCondition: models.TrafficLow}))
	if err != nil {
		t.Fatalf("attribution failure must not fail ingestion: %v", err)
	}
	if result.Warning == "" {
		t.Fatalf("expected attribution warning in result")
	}
	if env.events.count() != 0 {
		t.Fatalf("expected event skipped without owner")
	}
	if len(env.data.records) != 1 {
		t.Fatalf("telemetry must not be lost over a missing user mapping")
	}
}

func TestProcessSampleRetriesPredictorOnce(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskMedium, Confidence: 100})
	env.predictor.failFirst = 1

	result, err := env.service.ProcessSample(context.Background(),
		sampleAt(time.Now().UTC(), models.FeatureVector{Speed: 60, TrafficCondition: models.TrafficLow}))
	if err != nil {
		t.Fatalf("process sample: %v", err)
	}
	if env.predictor.calls != 2 {
		t.Fatalf("expected 2 predictor calls, got %d", env.predictor.calls)
	}
	if result.Degraded {
		t.Fatalf("successful retry must not be degraded")
	}
	if result.RiskScore != 50 {
		t.Fatalf("expected score 50, got %d", result.RiskScore)
	}
}

func TestProcessSampleFallsBackWhenPredictorDown(t *testing.T) {
	env := newTestEnv(models.Prediction{})
	env.predictor.err = errors.New("connection refused")

	result, err := env.service.ProcessSample(context.Background(),
		sampleAt(time.Now().UTC(), models.FeatureVector{Speed: 130, TrafficCondition: models.TrafficHigh}))
	if err != nil {
		t.Fatalf("fallback path failed: %v", err)
	}
	if !result.Degraded {
		t.Fatalf("expected degraded result")
	}
	if result.RiskScore != 80 { // rule-only: 50 + 20 + 10
		t.Fatalf("expected fallback score 80, got %d", result.RiskScore)
	}
	// The rule-only label is risky here, so the event is still recorded.
	if env.events.count() != 1 {
		t.Fatalf("expected fallback event recorded, got %d", env.events.count())
	}
}

func TestProcessSampleSurfacesPredictorErrorWithoutFallback(t *testing.T) {
	env := newTestEnv(models.Prediction{})
	env.predictor.err = errors.New("connection refused")

	scores := newFakeScoreStore()
	strict := NewRiskService(
		env.predictor, env.data, env.events, env.users, &fakeScoreReader{},
		NewAggregator(env.events, scores, zap.NewNop()),
		env.cache, false, zap.NewNop(),
	)

	_, err := strict.ProcessSample(context.Background(),
		sampleAt(time.Now().UTC(), models.FeatureVector{Speed: 60, TrafficCondition: models.TrafficLow}))
	var predictorErr *PredictorError
	if !errors.As(err, &predictorErr) {
		t.Fatalf("expected PredictorError, got %v", err)
	}
	if len(env.data.records) != 0 {
		t.Fatalf("nothing must be persisted when scoring fails")
	}
}

func TestProcessSampleValidation(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskSafe, Confidence: 100})

	cases := []struct {
		name   string
		sample models.TelemetrySample
	}{
		{
			name: "missing vehicle",
			sample: models.TelemetrySample{
				Timestamp: time.Now(),
				Input:     models.FeatureVector{Speed: 10, TrafficCondition: models.TrafficLow},
			},
		},
		{
			name: "missing timestamp",
			sample: models.TelemetrySample{
				VehicleNumber: "KA-01",
				Input:         models.FeatureVector{Speed: 10, TrafficCondition: models.TrafficLow},
			},
		},
		{
			name: "bad traffic condition",
			sample: models.TelemetrySample{
				VehicleNumber: "KA-01",
				Timestamp:     time.Now(),
				Input:         models.FeatureVector{Speed: 10, TrafficCondition: "Gridlock"},
			},
		},
		{
			name: "negative speed",
			sample: models.TelemetrySample{
				VehicleNumber: "KA-01",
				Timestamp:     time.Now(),
				Input:         models.FeatureVector{Speed: -1, TrafficCondition: models.TrafficLow},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.service.ProcessSample(context.Background(), tc.sample)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	if env.predictor.calls != 0 {
		t.Fatalf("invalid samples must not reach the predictor")
	}
}

func TestProcessSampleEventInsertFailureSurfaces(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskHigh, Confidence: 80})
	env.events.insertErr = errors.New("store down")

	_, err := env.service.ProcessSample(context.Background(),
		sampleAt(time.Now().UTC(), models.FeatureVector{Speed: 110, TrafficCondition: models.TrafficLow}))
	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("a dropped risk event must surface as PersistenceError, got %v", err)
	}
	// The raw sample commits before the event; nothing rolls back.
	if len(env.data.records) != 1 {
		t.Fatalf("expected raw sample to remain persisted")
	}
}

func TestProcessSampleAggregateFailureKeepsEvent(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskHigh, Confidence: 80})

	// Every upsert attempt fails, so the recompute exhausts its retry.
	scores := newFakeScoreStore()
	scores.failures = 100
	svc := NewRiskService(
		env.predictor, env.data, env.events, env.users, &fakeScoreReader{},
		NewAggregator(env.events, scores, zap.NewNop()),
		env.cache, true, zap.NewNop(),
	)

	result, err := svc.ProcessSample(context.Background(),
		sampleAt(time.Now().UTC(), models.FeatureVector{Speed: 110, TrafficCondition: models.TrafficLow}))
	if err != nil {
		t.Fatalf("stale aggregates must not fail ingestion: %v", err)
	}
	if result.Warning == "" {
		t.Fatalf("expected aggregate warning in result")
	}
	// The committed event stands; the next recompute heals the window.
	if env.events.count() != 1 {
		t.Fatalf("expected risk event to remain recorded, got %d", env.events.count())
	}
	if len(env.data.records) != 1 {
		t.Fatalf("expected raw sample to remain persisted")
	}
}

func TestRiskEventsStatistics(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskSafe, Confidence: 100})
	now := time.Now().UTC()
	env.events.events = []models.RiskEvent{
		{VehicleNumber: "KA-01", RiskScore: 40, EventType: models.EventOverspeed, Timestamp: now},
		{VehicleNumber: "KA-01", RiskScore: 70, EventType: models.EventOverspeed, Timestamp: now},
		{VehicleNumber: "KA-01", RiskScore: 90, EventType: models.EventHardBrake, Timestamp: now},
	}

	events, stats, err := env.service.RiskEvents(context.Background(), repository.EventFilter{VehicleNumber: "KA-01"})
	if err != nil {
		t.Fatalf("risk events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if stats.AverageRiskScore != 67 {
		t.Fatalf("expected average 67, got %d", stats.AverageRiskScore)
	}
	if stats.MaxRiskScore != 90 {
		t.Fatalf("expected max 90, got %d", stats.MaxRiskScore)
	}
	if stats.TotalEvents != 3 {
		t.Fatalf("expected total 3, got %d", stats.TotalEvents)
	}
	if stats.EventTypeCounts["OVERSPEED"] != 2 || stats.EventTypeCounts["HARD_BRAKE"] != 1 {
		t.Fatalf("unexpected event type counts: %v", stats.EventTypeCounts)
	}
}

func TestLatestScorePrefersCache(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskSafe, Confidence: 100})
	at := time.Now().UTC()
	_ = env.cache.SaveLatest(context.Background(), "KA-01", 42, at)

	score, got, err := env.service.LatestScore(context.Background(), "KA-01")
	if err != nil {
		t.Fatalf("latest score: %v", err)
	}
	if score != 42 || !got.Equal(at) {
		t.Fatalf("expected cached score 42 at %s, got %d at %s", at, score, got)
	}
}

func TestLatestScoreStoreFallbackKeepsTimestamp(t *testing.T) {
	env := newTestEnv(models.Prediction{RiskLevel: models.RiskSafe, Confidence: 100})
	at := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	env.data.records = []models.VehicleDataRecord{
		{VehicleNumber: "KA-01", Timestamp: at, RiskScore: 35},
	}

	// Cache is cold, so the store answers and must carry the sample time.
	score, got, err := env.service.LatestScore(context.Background(), "KA-01")
	if err != nil {
		t.Fatalf("latest score: %v", err)
	}
	if score != 35 {
		t.Fatalf("expected score 35, got %d", score)
	}
	if !got.Equal(at) {
		t.Fatalf("expected recorded time %s, got %s", at, got)
	}
}
