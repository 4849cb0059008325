package domain

import "time"

type VisitStatus string

const (
	VisitPending    VisitStatus = "pending"
	VisitInProgress VisitStatus = "in_progress"
	VisitCompleted  VisitStatus = "completed"
	VisitCancelled  VisitStatus = "cancelled"
	VisitExpired    VisitStatus = "expired"
)

func ParseVisitStatus(s string) (VisitStatus, bool) {
	switch VisitStatus(s) {
	case VisitPending, VisitInProgress, VisitCompleted, VisitCancelled, VisitExpired:
		return VisitStatus(s), true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition may leave the status.
func (s VisitStatus) Terminal() bool {
	return s == VisitCompleted || s == VisitCancelled || s == VisitExpired
}

type Visit struct {
	ID        int64       `json:"id"`
	VisitCode string      `json:"visit_code"`
	Status    VisitStatus `json:"status"`

	ScheduledDate time.Time  `json:"scheduled_date"`
	EntryTime     *time.Time `json:"entry_time,omitempty"`
	ExitTime      *time.Time `json:"exit_time,omitempty"`

	CompanyID   int64 `json:"company_id"`
	GateID      int64 `json:"gate_id"`
	VisitorID   int64 `json:"visitor_id"`
	CreatedByID int64 `json:"created_by_id"`

	ParentVisitID *int64 `json:"parent_visit_id,omitempty"`
	IsMassVisit   bool   `json:"is_mass_visit"`

	Notes string `json:"notes"`

	// Version is the optimistic-concurrency token; bumped on every write.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VisitCreateReq struct {
	CompanyID     int64     `json:"company_id"`
	GateID        int64     `json:"gate_id"`
	VisitorID     int64     `json:"visitor_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Notes         string    `json:"notes"`
}

type MassVisitReq struct {
	CompanyID     int64     `json:"company_id"`
	GateID        int64     `json:"gate_id"`
	VisitorIDs    []int64   `json:"visitor_ids"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Notes         string    `json:"notes"`
}

// MassVisit is the parent/child aggregate: the parent carries the shared
// request metadata, each child is an independent visit with its own lifecycle.
type MassVisit struct {
	Parent   Visit   `json:"parent"`
	Children []Visit `json:"children"`
}
