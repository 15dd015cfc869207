package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// HealthState is the outcome of the most recent keep-alive ping.
type HealthState int

const (
	HealthUnknown HealthState = iota
	HealthOK
	HealthDown
)

// String returns a human-readable name for the state.
func (s HealthState) String() string {
	switch s {
	case HealthOK:
		return "ok"
	case HealthDown:
		return "down"
	default:
		return "unknown"
	}
}

// HealthMsg is a tea.Msg sent after every keep-alive ping.
type HealthMsg struct {
	State   HealthState
	Checked time.Time
	Body    map[string]any
	Error   error
}

// pingTimeout is the maximum time allowed for a single ping.
const pingTimeout = 30 * time.Second

// Pinger is the health endpoint of the backend.
type Pinger interface {
	Health(ctx context.Context) (map[string]any, error)
}

// KeepAlive pings the backend immediately and then on a fixed interval.
// Results are delivered as HealthMsg through the Bubble Tea runtime.
type KeepAlive struct {
	pinger    Pinger
	interval  time.Duration
	logger    *zap.Logger
	resultCh  chan HealthMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// NewKeepAlive creates a keep-alive timer. A non-positive interval uses
// the default of fifteen minutes.
func NewKeepAlive(p Pinger, interval time.Duration, logger *zap.Logger) *KeepAlive {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeepAlive{
		pinger:    p,
		interval:  interval,
		logger:    logger,
		resultCh:  make(chan HealthMsg, 4),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the ping loop and returns a command that delivers the
// first result. Calling Start twice is a no-op.
func (k *KeepAlive) Start() tea.Cmd {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return nil
	}
	k.running = true
	k.mu.Unlock()

	go k.loop()

	return k.WaitForNextResult()
}

// Stop halts the ping loop and waits for it to exit.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	k.running = false
	close(k.stopCh)
	k.mu.Unlock()

	<-k.doneCh
}

// Trigger requests an immediate ping, for example after the user asks to
// reconnect.
func (k *KeepAlive) Trigger() {
	select {
	case k.triggerCh <- struct{}{}:
	default:
		// A ping is already pending.
	}
}

func (k *KeepAlive) loop() {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	k.ping()

	for {
		select {
		case <-k.stopCh:
			return
		case <-ticker.C:
			k.ping()
		case <-k.triggerCh:
			k.ping()
		}
	}
}

func (k *KeepAlive) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	go func() {
		select {
		case <-k.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	body, err := k.pinger.Health(ctx)
	msg := HealthMsg{State: HealthOK, Checked: time.Now(), Body: body}
	if err != nil {
		msg.State = HealthDown
		msg.Error = err
		k.logger.Warn("health check failed", zap.Error(err))
	} else {
		k.logger.Debug("health check ok", zap.Any("body", body))
	}

	select {
	case k.resultCh <- msg:
	default:
		// Drop if nobody is listening to avoid blocking the loop.
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next ping result.
// Call it again after handling a HealthMsg to keep listening.
func (k *KeepAlive) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-k.resultCh:
			return msg
		case <-k.doneCh:
			return nil
		}
	}
}
