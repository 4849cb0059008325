package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Visit lifecycle subjects.
const (
	VisitCreated     = "visit.created"
	VisitCheckedIn   = "visit.checked_in"
	VisitCheckedOut  = "visit.checked_out"
	VisitCancelled   = "visit.cancelled"
	VisitExpired     = "visit.expired"
	VisitMassCreated = "visit.mass_created"
)

type VisitEvent struct {
	VisitID       int64     `json:"visit_id"`
	VisitCode     string    `json:"visit_code"`
	Status        string    `json:"status"`
	CompanyID     int64     `json:"company_id"`
	GateID        int64     `json:"gate_id"`
	VisitorID     int64     `json:"visitor_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type MassVisitEvent struct {
	ParentVisitID int64     `json:"parent_visit_id"`
	ParentCode    string    `json:"parent_code"`
	ChildCount    int       `json:"child_count"`
	CompanyID     int64     `json:"company_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}
