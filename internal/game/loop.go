package game

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTickRate is the number of simulation steps per second.
const DefaultTickRate = 60

// Stepper advances a simulation by dt. Match implements it; a host world
// that integrates bodies before ticking the match can too.
type Stepper interface {
	Tick(dt time.Duration)
}

// Loop drives a Stepper at a fixed rate until its context is cancelled.
type Loop struct {
	stepper  Stepper
	interval time.Duration
	logger   *zap.Logger
	ticks    uint64
}

// NewLoop creates a loop running rate steps per second. A rate of zero or
// less uses DefaultTickRate.
func NewLoop(stepper Stepper, rate int, logger *zap.Logger) *Loop {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		stepper:  stepper,
		interval: time.Second / time.Duration(rate),
		logger:   logger,
	}
}

// Interval returns the simulation step.
func (l *Loop) Interval() time.Duration { return l.interval }

// Ticks returns the number of steps run so far. Only meaningful after Run
// returns.
func (l *Loop) Ticks() uint64 { return l.ticks }

// Run steps the simulation on every tick of a wall-clock ticker. Each step
// advances simulation time by exactly one interval.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("simulation loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("simulation loop stopped", zap.Uint64("ticks", l.ticks))
			return ctx.Err()
		case <-ticker.C:
			l.stepper.Tick(l.interval)
			l.ticks++
		}
	}
}
