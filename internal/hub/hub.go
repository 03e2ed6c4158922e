package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
)

var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

// Exec runs Fn against the engine on the hub goroutine and closes Done.
type Exec struct {
	Fn   func(*engine.Engine)
	Done chan struct{}
}

// Fire runs a timer callback on the hub goroutine.
type Fire struct {
	Fn func()
}

type ShutdownHub struct{}

func (Exec) isHubMsg()        {}
func (Fire) isHubMsg()        {}
func (ShutdownHub) isHubMsg() {}

type Option func(*Hub)

func WithLogger(log *zap.Logger) Option {
	return func(h *Hub) { h.log = log }
}

// WithEngineOptions forwards options to the owned engine. A dispatch option
// is overridden: timers always fire through the hub.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(h *Hub) { h.engineOpts = append(h.engineOpts, opts...) }
}

// Hub owns the engine and serialises every access to it. Timer expiries are
// posted back into the inbox, so engine code never runs on two goroutines.
type Hub struct {
	inbox      chan HubMsg
	engine     *engine.Engine
	engineOpts []engine.Option
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewHub(parent context.Context, cfg engine.Config, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		log:    zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	engineOpts := append(h.engineOpts, engine.WithDispatch(h.Post))
	h.engine = engine.New(cfg, engineOpts...)
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub stops serving.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Do runs fn on the hub goroutine and waits for it. Never call Do from code
// that already runs on the hub; use the engine handed to you instead.
func (h *Hub) Do(ctx context.Context, fn func(*engine.Engine)) error {
	done := make(chan struct{})
	select {
	case h.inbox <- Exec{Fn: fn, Done: done}:
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting. Fires after shutdown are dropped.
func (h *Hub) Post(fn func()) {
	select {
	case h.inbox <- Fire{Fn: fn}:
	case <-h.ctx.Done():
		h.log.Debug("dropping timer fire after shutdown")
	}
}

// Shutdown force-closes every room and stops the loop. It is safe to call
// twice.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
		return
	}
	<-h.ctx.Done()
}

// ArmedTimers counts rooms waiting on a timeout.
func (h *Hub) ArmedTimers(ctx context.Context) (int, error) {
	var n int
	err := h.Do(ctx, func(e *engine.Engine) { n = e.ArmedTimers() })
	return n, err
}

// WaitTimers blocks until no timeout is armed, so running games can reach
// their next phase before the process exits.
func (h *Hub) WaitTimers(ctx context.Context, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		n, err := h.ArmedTimers(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		h.log.Debug("waiting on armed timers", zap.Int("armed", n))

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Exec:
				h.run(func() { msg.Fn(h.engine) })
				close(msg.Done)

			case Fire:
				h.run(msg.Fn)

			case ShutdownHub:
				rooms := h.engine.Rooms()
				for _, chatID := range rooms {
					h.engine.CloseRoom(chatID, true)
				}
				h.log.Info("hub stopped", zap.Int("closed_rooms", len(rooms)))
				h.cancel()
			}
		}
	}
}

// run keeps one failing handler from taking every room down with it.
func (h *Hub) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("hub handler panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}
