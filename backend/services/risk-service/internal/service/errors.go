package service

import "fmt"

// ValidationError reports a malformed or missing input field. Not retryable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// InvalidPredictionError reports a predictor response that violates its contract
// (unknown label or confidence outside [0,100]). The scorer refuses to clamp these.
type InvalidPredictionError struct {
	Reason string
}

func (e *InvalidPredictionError) Error() string {
	return fmt.Sprintf("invalid prediction: %s", e.Reason)
}

// PredictorError reports an unreachable or misbehaving predictor.
type PredictorError struct {
	Err error
}

func (e *PredictorError) Error() string {
	return fmt.Sprintf("predictor: %v", e.Err)
}

func (e *PredictorError) Unwrap() error { return e.Err }

// PersistenceError reports a record store failure at the named stage.
type PersistenceError struct {
	Stage string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AttributionWarning is reported when a risky sample cannot be attributed to an
// owning user. The event is skipped but ingestion succeeds; telemetry is never
// lost over a missing user mapping.
type AttributionWarning struct {
	VehicleNumber string
}

func (e *AttributionWarning) Error() string {
	return fmt.Sprintf("no owning user for vehicle %s, risk event skipped", e.VehicleNumber)
}
