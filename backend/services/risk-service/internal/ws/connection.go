package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SampleProcessor scores raw telemetry frames arriving over a stream.
type SampleProcessor interface {
	Process(ctx context.Context, vehicleNumber string, raw []byte) ([]byte, error)
}

const (
	// Vehicles sample around once per second; a stream with no frames or
	// pongs for this long is treated as a dead vehicle.
	streamIdleTimeout = 90 * time.Second

	// A telemetry frame is a few hundred bytes of JSON. Anything near this
	// cap is not a telemetry stream, and the read fails with a 1009 close.
	maxFrameBytes = 32 * 1024
)

// Connection represents an active vehicle telemetry stream.
type Connection struct {
	vehicleNumber string
	ws            *websocket.Conn
	send          chan []byte
	logger        *zap.Logger
	processor     SampleProcessor
	writeTimeout  time.Duration
	onClose       func(vehicleNumber string)
	frames        int
}

// NewConnection builds connection wrapper.
func NewConnection(vehicleNumber string, ws *websocket.Conn, processor SampleProcessor, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		vehicleNumber: vehicleNumber,
		ws:            ws,
		send:          make(chan []byte, 16),
		logger:        logger,
		processor:     processor,
		writeTimeout:  writeTimeout,
		onClose:       onClose,
	}
}

// VehicleNumber returns identifier.
func (c *Connection) VehicleNumber() string {
	return c.vehicleNumber
}

// Start launches read/write pumps.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(maxFrameBytes)
	c.ws.SetReadDeadline(time.Now().Add(streamIdleTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(streamIdleTimeout))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("stream read failed", zap.String("vehicle_number", c.vehicleNumber), zap.Error(err))
			} else {
				c.logger.Info("stream closed", zap.String("vehicle_number", c.vehicleNumber))
			}
			return
		}
		// Each frame proves the vehicle is alive, not just the transport.
		c.ws.SetReadDeadline(time.Now().Add(streamIdleTimeout))
		c.frames++

		response, err := c.processor.Process(ctx, c.vehicleNumber, message)
		if err != nil {
			// Scoring failures travel in-band; an error here means the reply
			// itself could not be built, so the stream is torn down properly.
			c.logger.Error("failed to build stream reply", zap.String("vehicle_number", c.vehicleNumber), zap.Error(err))
			_ = c.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "reply failed"))
			return
		}
		if response != nil {
			c.Send(response)
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message for writing.
func (c *Connection) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel", zap.String("vehicle_number", c.vehicleNumber))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing message, buffer full", zap.String("vehicle_number", c.vehicleNumber))
	}
}

// Ping sends ping.
func (c *Connection) Ping() error {
	return c.write(websocket.PingMessage, []byte("ping"))
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	close(c.send)
	_ = c.ws.Close()
	c.logger.Info("vehicle stream disconnected",
		zap.String("vehicle_number", c.vehicleNumber), zap.Int("frames", c.frames))
	if c.onClose != nil {
		c.onClose(c.vehicleNumber)
	}
}
