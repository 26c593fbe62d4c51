package alerting

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

// DefaultDeliveryInterval paces the background delivery loop.
const DefaultDeliveryInterval = 10 * time.Second

// Deliverer drains the alert queue on a fixed cadence. Flush can be called
// at any time for an immediate pass, delivery passes never overlap.
type Deliverer struct {
	manager  *Manager
	deliver  DeliveryFunc
	interval time.Duration
	logger   log.Logger

	sem chan struct{}
}

// NewDeliverer wires the background delivery loop. A non-positive interval
// falls back to DefaultDeliveryInterval.
func NewDeliverer(manager *Manager, deliver DeliveryFunc, interval time.Duration, logger log.Logger) *Deliverer {
	if manager == nil {
		panic(xerrors.New("alert manager is required"))
	}
	if deliver == nil {
		panic(xerrors.New("delivery func is required"))
	}
	if interval <= 0 {
		interval = DefaultDeliveryInterval
	}
	if logger == nil {
		logger = log.Nop()
	}
	sem := make(chan struct{}, 1)
	sem <- struct{}{}
	return &Deliverer{
		manager:  manager,
		deliver:  deliver,
		interval: interval,
		logger:   logger,
		sem:      sem,
	}
}

// Run drains the queue every interval until ctx is cancelled.
func (d *Deliverer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Flush(ctx)
		}
	}
}

// Flush runs one delivery pass and reports what happened. If another pass
// is already in flight, Flush returns an empty report without waiting.
func (d *Deliverer) Flush(ctx context.Context) DeliveryReport {
	select {
	case <-d.sem:
	default:
		return DeliveryReport{}
	}
	defer func() { d.sem <- struct{}{} }()

	report := d.manager.Deliver(ctx, d.deliver)
	if report.Sent > 0 || report.Failed > 0 || report.Retried > 0 {
		d.logger.Info(ctx, "delivery pass complete",
			"sent", report.Sent,
			"failed", report.Failed,
			"retried", report.Retried,
			"queue_depth", d.manager.QueueDepth(),
		)
	}
	return report
}
