package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixfuego/AppPark-sub000/internal/mailer"
	"github.com/felixfuego/AppPark-sub000/internal/repo/postgres"
	"github.com/felixfuego/AppPark-sub000/pkg/events"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

// Worker consumes visit events and delivers visitor emails. It runs on a
// queue subscription so multiple instances share the load; delivery is
// at-most-once and failures are only logged.
type Worker struct {
	sub      events.Subscriber
	mail     mailer.Service
	facility postgres.FacilityRepo
}

func NewWorker(sub events.Subscriber, mail mailer.Service, facility postgres.FacilityRepo) *Worker {
	return &Worker{sub: sub, mail: mail, facility: facility}
}

func (w *Worker) Start() error {
	for _, subject := range []string{events.VisitCheckedIn, events.VisitCheckedOut, events.VisitExpired} {
		if err := w.sub.QueueSubscribe(subject, "notify", w.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (w *Worker) handle(msg *events.Message) {
	ctx := context.Background()

	var ev events.VisitEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Malformed visit event", "error", err, "subject", msg.Subject)
		return
	}

	visitor, err := w.facility.GetVisitor(ctx, ev.VisitorID)
	if err != nil || visitor == nil || visitor.Email == "" {
		logger.Warn("No deliverable visitor for event",
			"subject", msg.Subject, "visit_code", ev.VisitCode, "visitor_id", ev.VisitorID)
		return
	}

	subject, body := w.compose(msg.Subject, &ev)
	if err := w.mail.Send(visitor.Email, visitor.Name, subject, body); err != nil {
		logger.Error("Failed to send visit notification",
			"error", err, "subject", msg.Subject, "visit_code", ev.VisitCode)
	}
}

func (w *Worker) compose(subject string, ev *events.VisitEvent) (string, string) {
	switch subject {
	case events.VisitCheckedIn:
		return "Visit check-in confirmed",
			fmt.Sprintf("Your visit %s was checked in at %s.", ev.VisitCode, ev.OccurredAt.Format("15:04 MST"))
	case events.VisitCheckedOut:
		return "Visit completed",
			fmt.Sprintf("Your visit %s was checked out at %s.", ev.VisitCode, ev.OccurredAt.Format("15:04 MST"))
	case events.VisitExpired:
		return "Visit expired",
			fmt.Sprintf("Your visit %s scheduled for %s expired unused.", ev.VisitCode, ev.ScheduledDate.Format("2006-01-02"))
	default:
		return "Visit update", fmt.Sprintf("Your visit %s is now %s.", ev.VisitCode, ev.Status)
	}
}
