package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections to WebSockets for streaming telemetry ingest.
type Server struct {
	manager      *Manager
	processor    SampleProcessor
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(manager *Manager, processor SampleProcessor, writeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		manager:      manager,
		processor:    processor,
		logger:       logger,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for the /vehicles/stream endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := r.URL.Query().Get("vehicle_number")
	if vehicleNumber == "" {
		http.Error(w, "vehicle_number is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	connection := NewConnection(vehicleNumber, conn, s.processor, s.writeTimeout, s.logger, func(id string) {
		s.manager.Remove(id)
		cancel()
	})
	s.manager.Add(connection)

	go connection.Start(ctx)
	s.logger.Info("vehicle stream connected", zap.String("vehicle_number", vehicleNumber))
}
