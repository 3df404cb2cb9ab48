// Package scanfeed maintains the push connection to the reader-side
// agent.  Each inbound frame is an opaque text card identifier; the
// listener normalizes it, parks it in the latest-scan slot, and wakes a
// single consumer goroutine that runs the access decision.  Dropped
// connections are retried forever on a flat interval.
package scanfeed

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"cardgate/internal/cardgate/types"
	"cardgate/internal/metrics"
)

// Decider is the slice of the decision engine the feed needs.
type Decider interface {
	Decide(ctx context.Context, req types.ScanRequest) (types.Decision, error)
}

// frameConn is one established reader connection.  Abstracted so tests
// can drive the listener without a network.
type frameConn interface {
	ReadFrame() (string, error)
	Close() error
}

type dialFunc func() (frameConn, error)

type Config struct {
	// URL is the reader agent's websocket endpoint,
	// e.g. ws://localhost:8765.
	URL string

	// Reconnect is the flat wait between connection attempts.
	// Defaults to 5s.  Deliberately not exponential: the reader agent
	// is a fixed local peer, not a shared service to back off from.
	Reconnect time.Duration

	// QueueSize bounds the wake-up queue.  Defaults to 16.
	QueueSize int
}

// Listener owns the connection loop and the consumer task.
type Listener struct {
	cfg     Config
	dial    dialFunc
	decider Decider
	slot    *Slot
	logger  *log.Logger
	metrics *metrics.Metrics

	// signals carries one token per published scan; the consumer drains
	// the slot on each wake-up.
	signals chan struct{}

	cancel context.CancelFunc
	done   chan struct{}

	stateMu sync.Mutex
	isUp    bool
}

func NewListener(cfg Config, decider Decider, logger *log.Logger, m *metrics.Metrics) *Listener {
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	l := &Listener{
		cfg:     cfg,
		decider: decider,
		slot:    NewSlot(),
		logger:  logger,
		metrics: m,
		signals: make(chan struct{}, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	l.dial = l.dialWebsocket
	return l
}

// Start launches the read and consume loops.  Call Stop to shut down.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		l.consumeLoop(ctx)
	}()
	go func() {
		defer close(l.done)
		l.readLoop(ctx)
		<-consumerDone
	}()

	l.logger.Printf("scan feed connecting to %s (reconnect every %s)", l.cfg.URL, l.cfg.Reconnect)
}

// Stop signals both loops to exit and waits for them.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	<-l.done
}

// Status reports the connection state and the last observed identifier.
func (l *Listener) Status() types.FeedStatus {
	l.stateMu.Lock()
	up := l.isUp
	l.stateMu.Unlock()

	last, _ := l.slot.Last()
	return types.FeedStatus{Connected: up, LastIdentifier: last}
}

func (l *Listener) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := l.dial()
		if err != nil {
			l.metrics.FeedReconnects.Inc()
			l.logger.Printf("scan feed connect error: %v", err)
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		l.setConnected(true)
		l.logger.Printf("scan feed connected: reader ready")

		l.readFrames(ctx, conn)
		_ = conn.Close()
		l.setConnected(false)

		if ctx.Err() != nil {
			return
		}
		l.metrics.FeedReconnects.Inc()
		l.logger.Printf("scan feed disconnected, retrying in %s", l.cfg.Reconnect)
		if !l.sleep(ctx) {
			return
		}
	}
}

// readFrames pumps one connection until it errors or ctx ends.
func (l *Listener) readFrames(ctx context.Context, conn frameConn) {
	frames := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			frame, err := conn.ReadFrame()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErr:
			l.logger.Printf("scan feed read error: %v", err)
			return
		case frame := <-frames:
			id := types.NormalizeIdentifier(frame)
			if id == "" {
				continue
			}
			l.publish(id)
		}
	}
}

// publish parks the identifier in the slot and wakes the consumer.  If
// the wake-up queue is full the token is dropped; the slot still holds
// the newest identifier, so nothing is lost but a redundant wake-up.
func (l *Listener) publish(id string) {
	l.slot.Publish(id)
	select {
	case l.signals <- struct{}{}:
	default:
	}
}

// consumeLoop is the single reader task.  Each wake-up drains the slot;
// a wake-up whose scan was already collapsed into a newer one (or
// already decided) finds the slot consumed and skips.
func (l *Listener) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.signals:
		}

		id, ok := l.slot.Consume()
		if !ok {
			continue
		}

		dec, err := l.decider.Decide(ctx, types.ScanRequest{CardUID: id})
		if err != nil {
			l.logger.Printf("scan %s: decision error: %v", id, err)
			continue
		}
		l.logger.Printf("scan %s: %s (%s)", id, verdictWord(dec), dec.Reason)
	}
}

func (l *Listener) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.cfg.Reconnect):
		return true
	}
}

func (l *Listener) setConnected(up bool) {
	l.stateMu.Lock()
	l.isUp = up
	l.stateMu.Unlock()
}

func verdictWord(dec types.Decision) string {
	if dec.Authorized {
		return "granted"
	}
	return "denied"
}

// ── websocket transport ──────────────────────────────────────────────────────

type wsConn struct {
	conn *websocket.Conn
}

func (c wsConn) ReadFrame() (string, error) {
	var frame string
	if err := websocket.Message.Receive(c.conn, &frame); err != nil {
		return "", err
	}
	return frame, nil
}

func (c wsConn) Close() error { return c.conn.Close() }

func (l *Listener) dialWebsocket() (frameConn, error) {
	// The origin is a formality: the reader agent does not enforce
	// browser origin checks.
	conn, err := websocket.Dial(l.cfg.URL, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return wsConn{conn: conn}, nil
}
