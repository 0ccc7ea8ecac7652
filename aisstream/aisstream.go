package aisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
)

const (
	DIAL_TIMEOUT      = 5  // seconds
	SUBSCRIBE_TIMEOUT = 5  // seconds
	PING_TIMEOUT      = 10 // seconds
	STALL_INTERVAL    = 30 // seconds without a frame before consumers should ping
)

var ErrMissingAPIKey = errors.New("aisstream api key is not set")

// State tracks a session through its lifecycle. Transitions only move
// forward: Disconnected -> Connecting -> Subscribed -> Listening, ending in
// Closed or Failed.
type State int32

const (
	Disconnected State = iota
	Connecting
	Subscribed
	Listening
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	case Listening:
		return "listening"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type SubMsg struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FiltersShipMMSI    []string      `json:"FiltersShipMMSI,omitempty"`
	FilterMessageTypes []string      `json:"FilterMessageTypes,omitempty"`
}

type Config struct {
	Url   string        `json:"url" yaml:"url"`
	Api   string        `json:"api" yaml:"api"`
	Boxes [][][]float64 `json:"boxes" yaml:"boxes"`
}

type Packet struct {
	Msg      Message  `json:"Message"`
	MsgType  string   `json:"MessageType"`
	Metadata Metadata `json:"Metadata"`
}

type Metadata struct {
	MMSI      int     `json:"MMSI"`
	ShipName  string  `json:"ShipName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeUtc   string  `json:"time_utc"`
}

type Message struct {
	PositionReport PositionReport `json:"PositionReport,omitempty"`
	ShipStaticData ShipStaticData `json:"ShipStaticData,omitempty"`
}

// Session is a single connect-subscribe-listen pass against the stream,
// bounded by the context handed to Open. Sessions are not reused; each scan
// builds a fresh one.
type Session struct {
	Url    string
	Sub    SubMsg
	Frames chan []byte

	conn      *websocket.Conn
	logger    *slog.Logger
	state     atomic.Int32
	closed    sync.Once
	requested atomic.Bool
	err       error
}

// NewSession validates the config and prepares a session. The subscription
// always narrows to position and static reports; anything else is noise
// here and costs stream quota.
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	if cfg.Api == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		Url: cfg.Url,
		Sub: SubMsg{
			APIKey:             cfg.Api,
			BoundingBoxes:      cfg.Boxes,
			FilterMessageTypes: []string{MSG_TYPE_POSITION, MSG_TYPE_STATIC},
		},
		Frames: make(chan []byte),
		logger: logger,
	}
	s.setState(Disconnected)
	return s, nil
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Err reports why the stream ended. It is meaningful only after Frames has
// closed and stays nil for a clean close or an expired deadline.
func (s *Session) Err() error { return s.err }

// Open dials the upstream, writes the subscription, and starts the reader
// that feeds Frames. Frames closes when the stream ends for any reason;
// inspect State and Err afterwards to tell a clean close from a fault.
func (s *Session) Open(ctx context.Context) error {
	s.setState(Connecting)

	hc := &http.Client{Timeout: time.Duration(DIAL_TIMEOUT) * time.Second}
	conn, _, err := websocket.Dial(ctx, s.Url, &websocket.DialOptions{HTTPClient: hc})
	if err != nil {
		s.setState(Failed)
		return fmt.Errorf("could not connect to websocket: %w", err)
	}
	s.conn = conn

	if err := s.subscribe(ctx); err != nil {
		s.setState(Failed)
		s.shutdown()
		return err
	}
	s.setState(Subscribed)

	go s.listen(ctx)
	return nil
}

func (s *Session) subscribe(ctx context.Context) error {
	b, err := json.Marshal(s.Sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	subCtx, cancel := context.WithTimeout(ctx, time.Duration(SUBSCRIBE_TIMEOUT)*time.Second)
	defer cancel()

	if err := s.conn.Write(subCtx, websocket.MessageText, b); err != nil {
		return fmt.Errorf("failed to write subscription message to websocket: %w", err)
	}
	return nil
}

// listen is the sole producer on Frames. Canceling ctx tears the connection
// down mid-Read, which is how a scan deadline stops the stream.
func (s *Session) listen(ctx context.Context) {
	s.setState(Listening)
	defer close(s.Frames)
	defer s.shutdown()

	for {
		_, b, err := s.conn.Read(ctx)
		if err != nil {
			s.finish(ctx, err)
			return
		}
		select {
		case s.Frames <- b:
		case <-ctx.Done():
			s.finish(ctx, ctx.Err())
			return
		}
	}
}

// finish classifies the error that ended the stream. An expired deadline, a
// local Close, or a close frame from the remote is an expected end; anything
// else marks the session failed so the caller can flag partial results.
func (s *Session) finish(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil, s.requested.Load():
		s.setState(Closed)
	case websocket.CloseStatus(err) != -1:
		s.logger.Debug("stream closed by remote", "status", int(websocket.CloseStatus(err)))
		s.setState(Closed)
	default:
		s.err = err
		s.setState(Failed)
	}
}

// Ping checks the connection during a receive stall. The pong is processed
// by the reader already blocked in Read, so pinging a listening session is
// safe. If Ping cannot complete within PING_TIMEOUT it closes the
// connection, which unblocks the reader.
// https://github.com/nhooyr/websocket/blob/e3a2d32f704fb06c439e56d2a85334de04b50d32/conn.go#L224
func (s *Session) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(PING_TIMEOUT)*time.Second)
	defer cancel()
	return s.conn.Ping(pingCtx)
}

// Close ends the session early. The reader observes the closed connection
// and winds down, closing Frames.
func (s *Session) Close() {
	s.requested.Store(true)
	s.shutdown()
}

// shutdown runs the close handshake once. Safe from any goroutine and on
// every exit path, including after the peer or a dead link already tore the
// connection down.
func (s *Session) shutdown() {
	s.closed.Do(func() {
		if s.conn != nil {
			s.conn.Close(websocket.StatusNormalClosure, "")
		}
	})
}
