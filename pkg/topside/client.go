// Package topside streams telemetry to a surface station over WebSocket and
// receives operator controls from it.
package topside

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/debug"
	"github.com/teslashibe/go-polrov/pkg/protocol"
)

// Config holds the topside link settings.
type Config struct {
	URL              string        `yaml:"url"`               // ws://host:port/ws/vehicle
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // Dial timeout
	PingInterval     time.Duration `yaml:"ping_interval"`     // WebSocket keepalive
	ReadTimeout      time.Duration `yaml:"read_timeout"`      // Max silence before reconnect
	QueueSize        int           `yaml:"queue_size"`        // Outbound messages buffered
	ReconnectMin     time.Duration `yaml:"reconnect_min"`
	ReconnectMax     time.Duration `yaml:"reconnect_max"`
	FrameEvery       int           `yaml:"frame_every"` // Send every Nth preview frame, 0 disables
}

// DefaultConfig returns settings for a tethered link.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     15 * time.Second,
		ReadTimeout:      45 * time.Second,
		QueueSize:        64,
		ReconnectMin:     time.Second,
		ReconnectMax:     30 * time.Second,
	}
}

// ErrNoURL is returned by Run when no topside URL is configured.
var ErrNoURL = errors.New("topside: no url configured")

// Client keeps a WebSocket connection to the topside station alive.
type Client struct {
	cfg     Config
	session string
	send    chan []byte

	// OnControl is called from the read goroutine for every control message
	OnControl func(protocol.ControlData)

	connected atomic.Bool
	dropped   atomic.Uint64
	latencyMs atomic.Int64
}

// NewClient creates a client. Call Run to connect.
func NewClient(cfg Config, session string) *Client {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = def.ReconnectMin
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = def.ReconnectMax
	}
	return &Client{
		cfg:     cfg,
		session: session,
		send:    make(chan []byte, cfg.QueueSize),
	}
}

// Connected reports whether the link is up.
func (c *Client) Connected() bool { return c.connected.Load() }

// Dropped returns how many outbound messages were discarded.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// LatencyMs returns the last measured round trip, or 0.
func (c *Client) LatencyMs() int64 { return c.latencyMs.Load() }

// Send queues a message. It never blocks; when the queue is full the
// message is dropped and false is returned.
func (c *Client) Send(msg *protocol.Message) bool {
	data, err := msg.WithSession(c.session).Bytes()
	if err != nil {
		log.Warn("topside encode failed", "type", msg.Type, "error", err)
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// SendTelemetry queues a telemetry message.
func (c *Client) SendTelemetry(data protocol.TelemetryData) bool {
	msg, err := protocol.NewTelemetryMessage(data)
	if err != nil {
		return false
	}
	return c.Send(msg)
}

// SendFrame queues a JPEG preview frame.
func (c *Client) SendFrame(width, height int, jpeg []byte, frameID uint64) bool {
	msg, err := protocol.NewFrameMessage(width, height, jpeg, frameID)
	if err != nil {
		return false
	}
	return c.Send(msg)
}

// Run dials the topside and keeps reconnecting with backoff until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	if c.cfg.URL == "" {
		return ErrNoURL
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	backoff := c.cfg.ReconnectMin

	for {
		conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			fmt.Printf("🛰️  Topside connected: %s\n", c.cfg.URL)
			backoff = c.cfg.ReconnectMin
			err = c.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("topside link down", "url", c.cfg.URL, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.cfg.ReconnectMax)
	}
}

// serve owns conn until it fails or ctx ends. Only this goroutine writes
// data frames; the read goroutine queues replies through Send.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.connected.Store(true)
	defer func() {
		c.connected.Store(false)
		conn.Close()
	}()

	errc := make(chan error, 1)
	go func() { errc <- c.readLoop(conn) }()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"), deadline)
			return ctx.Err()

		case err := <-errc:
			return err

		case data := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			if ping, err := protocol.NewPingMessage(protocol.NewSessionID()); err == nil {
				c.Send(ping)
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		debug.Log("⚠️  topside: %v\n", err)
		return
	}

	switch msg.Type {
	case protocol.TypeControl:
		ctl, err := msg.GetControlData()
		if err != nil {
			log.Warn("topside control decode failed", "error", err)
			return
		}
		if c.OnControl != nil {
			c.OnControl(*ctl)
		}

	case protocol.TypePing:
		if pong, err := protocol.PongFor(msg); err == nil {
			c.Send(pong)
		}

	case protocol.TypePong:
		if p, err := msg.GetPongData(); err == nil {
			c.latencyMs.Store(time.Now().UnixMilli() - p.PingTS)
		}
	}
}
