package pairing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/session"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Evictor periodically sweeps paired sessions whose last activity is older
// than the inactivity timeout and kicks them through the pairer. When both
// sides of a pairing went quiet, the first kick separates them and the
// second finds an already-unpaired user, which is fine.
type Evictor struct {
	log      zerolog.Logger
	table    *session.Table
	pairer   *Pairer
	timeout  time.Duration
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewEvictor creates an evictor with the configured timeout and tick.
func NewEvictor(table *session.Table, pairer *Pairer, cfg *types.Config) *Evictor {
	return &Evictor{
		log:      logging.Component("evictor"),
		table:    table,
		pairer:   pairer,
		timeout:  cfg.Chat.InactivityTimeout(),
		interval: cfg.Chat.InactivityCheckInterval(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (e *Evictor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	go e.run()
	e.log.Debug().Dur("timeout", e.timeout).Dur("interval", e.interval).
		Msg("inactivity evictor started")
}

func (e *Evictor) run() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.sweep(context.Background())
		}
	}
}

func (e *Evictor) sweep(ctx context.Context) {
	for _, userID := range e.table.InactiveUsers(e.timeout) {
		e.log.Info().Str("user", userID).Msg("kicking inactive user")
		e.pairer.KickInactive(ctx, userID)
	}
}

// Stop halts the sweep loop and waits for it to exit.
func (e *Evictor) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	e.mu.Unlock()

	<-e.doneCh
}
