package notify

import (
	"context"
	"time"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
	"github.com/felixfuego/AppPark-sub000/pkg/events"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

// Sink emits fire-and-forget notifications for visit lifecycle events.
// Delivery failure never fails the originating operation.
type Sink interface {
	Notify(ctx context.Context, subject string, v *domain.Visit)
}

// Bus publishes visit events over NATS.
type Bus struct {
	pub events.Publisher
}

func NewBus(pub events.Publisher) *Bus { return &Bus{pub: pub} }

func (b *Bus) Notify(ctx context.Context, subject string, v *domain.Visit) {
	ev := events.VisitEvent{
		VisitID:       v.ID,
		VisitCode:     v.VisitCode,
		Status:        string(v.Status),
		CompanyID:     v.CompanyID,
		GateID:        v.GateID,
		VisitorID:     v.VisitorID,
		ScheduledDate: v.ScheduledDate,
		OccurredAt:    time.Now().UTC(),
	}
	if err := b.pub.Publish(ctx, subject, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish visit event",
			"error", err, "subject", subject, "visit_code", v.VisitCode)
	}
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, string, *domain.Visit) {}

var _ Sink = (*Bus)(nil)
var _ Sink = Nop{}
