package httpserver

import "net/http"

// Routes defines HTTP endpoints.
type Routes struct {
	Telemetry   http.Handler
	Stream      http.HandlerFunc
	RiskScores  http.Handler
	RiskEvents  http.Handler
	VehicleData http.Handler
	LatestScore http.Handler
	Health      http.Handler

	// Auth wraps the query endpoints; ingestion callers authenticate upstream.
	Auth func(http.Handler) http.Handler
}

// NewRouter sets up HTTP routing.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.Handler) http.Handler {
		if routes.Auth != nil {
			return routes.Auth(h)
		}
		return h
	}

	if routes.Telemetry != nil {
		mux.Handle("POST /vehicles/{vehicleNumber}/telemetry", routes.Telemetry)
	}
	if routes.Stream != nil {
		mux.Handle("GET /vehicles/stream", routes.Stream)
	}
	if routes.RiskScores != nil {
		mux.Handle("GET /vehicles/{vehicleNumber}/risk-scores", authed(routes.RiskScores))
	}
	if routes.RiskEvents != nil {
		mux.Handle("GET /vehicles/{vehicleNumber}/risk-events", authed(routes.RiskEvents))
	}
	if routes.VehicleData != nil {
		mux.Handle("GET /vehicles/{vehicleNumber}/data", authed(routes.VehicleData))
	}
	if routes.LatestScore != nil {
		mux.Handle("GET /vehicles/{vehicleNumber}/risk-score/latest", authed(routes.LatestScore))
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	return mux
}
