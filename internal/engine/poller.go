package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// idleRecheck is how often a disabled poller re-reads settings.
const idleRecheck = 30 * time.Second

// Poller runs Engine.Scan on the interval chosen by the current settings.
type Poller struct {
	engine   *Engine
	logger   *slog.Logger
	interval func(model.Settings) time.Duration
	idle     time.Duration
}

// NewPoller creates a poller for engine.
func NewPoller(engine *Engine, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		engine:   engine,
		logger:   logger,
		interval: model.Settings.PollInterval,
		idle:     idleRecheck,
	}
}

// Run polls until ctx is cancelled. Settings are re-read before every tick,
// so toggling polling or realtime mode takes effect without a restart.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started")
	timer := time.NewTimer(p.next(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-timer.C:
			p.tick(ctx)
			timer.Reset(p.next(ctx))
		}
	}
}

func (p *Poller) next(ctx context.Context) time.Duration {
	settings, err := p.engine.Settings(ctx)
	if err != nil || !settings.PollingEnabled {
		return p.idle
	}
	if d := p.interval(*settings); d > 0 {
		return d
	}
	return p.idle
}

func (p *Poller) tick(ctx context.Context) {
	settings, err := p.engine.Settings(ctx)
	if err != nil {
		p.logger.Error("poller failed to load settings", "error", err)
		return
	}
	if !settings.PollingEnabled {
		return
	}

	result, err := p.engine.TryScan(ctx)
	switch {
	case errors.Is(err, ErrScanInProgress):
		p.logger.Debug("scan already running, skipping tick")
	case err != nil:
		if ctx.Err() == nil {
			p.logger.Error("scheduled scan failed", "error", err)
		}
	default:
		p.logger.Debug("scheduled scan complete", "created", result.Created, "failed", result.Failed)
	}
}
