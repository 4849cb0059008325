package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/felixfuego/AppPark-sub000/internal/service"
	"github.com/felixfuego/AppPark-sub000/pkg/clock"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

// Expirer periodically sweeps pending visits whose scheduled date has passed.
type Expirer struct {
	cron   *cron.Cron
	visits service.VisitService
	clk    clock.Clock
}

func NewExpirer(visits service.VisitService, clk clock.Clock) *Expirer {
	return &Expirer{
		cron:   cron.New(),
		visits: visits,
		clk:    clk,
	}
}

func (e *Expirer) Start() {
	e.cron.AddFunc("@every 1m", e.run)
	e.cron.Start()
	logger.Info("Visit expirer started")
}

// Stop waits for an in-flight sweep to finish.
func (e *Expirer) Stop() {
	ctx := e.cron.Stop()
	<-ctx.Done()
	logger.Info("Visit expirer stopped")
}

func (e *Expirer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := e.visits.ExpireDue(ctx, e.clk.Now())
	if err != nil {
		logger.Error("Visit expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("Expired overdue visits", "count", n)
	}
}
