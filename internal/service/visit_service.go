package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixfuego/AppPark-sub000/internal/access"
	"github.com/felixfuego/AppPark-sub000/internal/audit"
	"github.com/felixfuego/AppPark-sub000/internal/domain"
	"github.com/felixfuego/AppPark-sub000/internal/notify"
	"github.com/felixfuego/AppPark-sub000/internal/qr"
	"github.com/felixfuego/AppPark-sub000/internal/repo/postgres"
	"github.com/felixfuego/AppPark-sub000/internal/utils"
	"github.com/felixfuego/AppPark-sub000/internal/visit"
	"github.com/felixfuego/AppPark-sub000/pkg/clock"
	"github.com/felixfuego/AppPark-sub000/pkg/events"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

const (
	maxCodeAttempts = 5
	maxMassChildren = 200
)

// GateInput carries the optional gate-side credentials of a check-in or
// check-out request. A zero GuardID means no guard authorization is
// requested (trusted internal callers).
type GateInput struct {
	VisitCode string `json:"visit_code"`
	EncodedQR string `json:"qr,omitempty"`
	GuardID   int64  `json:"-"`
	GateID    int64  `json:"gate_id,omitempty"`
}

type VisitService interface {
	Create(ctx context.Context, req *domain.VisitCreateReq, creatorID int64) (*domain.Visit, error)
	CreateMass(ctx context.Context, req *domain.MassVisitReq, creatorID int64) (*domain.MassVisit, error)
	CheckIn(ctx context.Context, in GateInput) (*domain.Visit, error)
	CheckOut(ctx context.Context, in GateInput) (*domain.Visit, error)
	Cancel(ctx context.Context, visitID int64, actor domain.Actor) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
	List(ctx context.Context, actor domain.Actor, status *domain.VisitStatus, limit, offset int) ([]domain.Visit, error)
	GetByCode(ctx context.Context, code string, actor domain.Actor) (*domain.Visit, error)
	EncodedQR(ctx context.Context, code string, actor domain.Actor) (string, error)
}

type visitService struct {
	visits   postgres.VisitRepo
	accounts postgres.AccountRepo
	facility postgres.FacilityRepo
	signer   *qr.Signer
	auditor  audit.Sink
	notifier notify.Sink
	clk      clock.Clock
}

func NewVisitService(
	visits postgres.VisitRepo,
	accounts postgres.AccountRepo,
	facility postgres.FacilityRepo,
	signer *qr.Signer,
	auditor audit.Sink,
	notifier notify.Sink,
	clk clock.Clock,
) VisitService {
	return &visitService{
		visits:   visits,
		accounts: accounts,
		facility: facility,
		signer:   signer,
		auditor:  auditor,
		notifier: notifier,
		clk:      clk,
	}
}

func (s *visitService) Create(ctx context.Context, req *domain.VisitCreateReq, creatorID int64) (*domain.Visit, error) {
	if err := s.validateReferences(ctx, req.CompanyID, req.GateID, req.VisitorID); err != nil {
		return nil, err
	}

	v := &domain.Visit{
		ScheduledDate: req.ScheduledDate.UTC(),
		CompanyID:     req.CompanyID,
		GateID:        req.GateID,
		VisitorID:     req.VisitorID,
		CreatedByID:   creatorID,
		Notes:         req.Notes,
	}

	created, err := s.createWithUniqueCode(ctx, v)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action: "visit.create", Entity: "visit", EntityID: created.ID,
		ActorID: creatorID, After: created,
	})
	s.notifier.Notify(ctx, events.VisitCreated, created)
	return created, nil
}

// createWithUniqueCode retries code generation on collision, bounded.
func (s *visitService) createWithUniqueCode(ctx context.Context, v *domain.Visit) (*domain.Visit, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		v.VisitCode = newVisitCode(v.ScheduledDate)
		created, err := s.visits.Create(ctx, v)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateCode) {
			return nil, err
		}
		logger.WarnContext(ctx, "Visit code collision, retrying", "attempt", attempt+1)
	}
	return nil, fmt.Errorf("exhausted %d attempts: %w", maxCodeAttempts, domain.ErrDuplicateCode)
}

func newVisitCode(scheduled time.Time) string {
	return fmt.Sprintf("V-%s-%s", scheduled.UTC().Format("20060102"), utils.RandomCode(6))
}

// CreateMass builds the parent plus one child per visitor and writes them as
// one atomic unit; a single invalid visitor fails the whole batch up front.
func (s *visitService) CreateMass(ctx context.Context, req *domain.MassVisitReq, creatorID int64) (*domain.MassVisit, error) {
	if len(req.VisitorIDs) == 0 {
		return nil, errors.New("mass visit needs at least one visitor")
	}
	if len(req.VisitorIDs) > maxMassChildren {
		return nil, fmt.Errorf("mass visit limited to %d visitors", maxMassChildren)
	}
	if err := s.validateReferences(ctx, req.CompanyID, req.GateID, req.VisitorIDs...); err != nil {
		return nil, err
	}

	scheduled := req.ScheduledDate.UTC()
	parent := &domain.Visit{
		VisitCode:     newVisitCode(scheduled),
		ScheduledDate: scheduled,
		CompanyID:     req.CompanyID,
		GateID:        req.GateID,
		VisitorID:     req.VisitorIDs[0],
		CreatedByID:   creatorID,
		IsMassVisit:   true,
		Notes:         req.Notes,
	}

	children := make([]domain.Visit, 0, len(req.VisitorIDs))
	for i, visitorID := range req.VisitorIDs {
		children = append(children, domain.Visit{
			VisitCode:     fmt.Sprintf("%s-%02d", parent.VisitCode, i+1),
			ScheduledDate: scheduled,
			CompanyID:     req.CompanyID,
			GateID:        req.GateID,
			VisitorID:     visitorID,
			CreatedByID:   creatorID,
			Notes:         req.Notes,
		})
	}

	mass, err := s.visits.CreateMass(ctx, parent, children)
	if err != nil {
		return nil, fmt.Errorf("failed to create mass visit: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action: "visit.mass_create", Entity: "visit", EntityID: mass.Parent.ID,
		ActorID: creatorID, After: mass.Parent,
	})
	s.notifier.Notify(ctx, events.VisitMassCreated, &mass.Parent)
	return mass, nil
}

func (s *visitService) CheckIn(ctx context.Context, in GateInput) (*domain.Visit, error) {
	v, err := s.loadByCode(ctx, in.VisitCode)
	if err != nil {
		return nil, err
	}

	if in.EncodedQR != "" {
		p := qr.Decode(in.EncodedQR)
		if p == nil || !s.signer.Verify(*p) || p.VisitCode != v.VisitCode {
			return nil, domain.ErrInvalidQR
		}
	}

	if err := s.authorizeGate(ctx, in, v); err != nil {
		return nil, err
	}

	updated, before, err := s.transition(ctx, v, func(v *domain.Visit) error {
		return visit.CheckIn(v, s.clk.Now())
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action: "visit.check_in", Entity: "visit", EntityID: updated.ID,
		ActorID: in.GuardID, Before: before, After: updated,
	})
	s.notifier.Notify(ctx, events.VisitCheckedIn, updated)
	return updated, nil
}

func (s *visitService) CheckOut(ctx context.Context, in GateInput) (*domain.Visit, error) {
	v, err := s.loadByCode(ctx, in.VisitCode)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeGate(ctx, in, v); err != nil {
		return nil, err
	}

	updated, before, err := s.transition(ctx, v, func(v *domain.Visit) error {
		return visit.CheckOut(v, s.clk.Now())
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action: "visit.check_out", Entity: "visit", EntityID: updated.ID,
		ActorID: in.GuardID, Before: before, After: updated,
	})
	s.notifier.Notify(ctx, events.VisitCheckedOut, updated)
	return updated, nil
}

func (s *visitService) Cancel(ctx context.Context, visitID int64, actor domain.Actor) (bool, error) {
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return false, fmt.Errorf("failed to load visit: %w", err)
	}
	if v == nil {
		return false, domain.ErrNotFound
	}

	visible, err := s.visibleTo(ctx, actor, v)
	if err != nil {
		return false, err
	}
	if !visible {
		return false, domain.ErrNotFound
	}

	updated, before, err := s.transition(ctx, v, func(v *domain.Visit) error {
		return visit.Cancel(v)
	})
	if err != nil {
		return false, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action: "visit.cancel", Entity: "visit", EntityID: updated.ID,
		ActorID: actor.ID, Before: before, After: updated,
	})
	s.notifier.Notify(ctx, events.VisitCancelled, updated)
	return true, nil
}

// ExpireDue runs the scheduled expiry batch and returns how many visits
// moved to expired.
func (s *visitService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.visits.ExpirePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending visits: %w", err)
	}

	for i := range expired {
		v := &expired[i]
		s.auditor.Record(ctx, audit.Entry{
			Action: "visit.expire", Entity: "visit", EntityID: v.ID, After: v,
		})
		s.notifier.Notify(ctx, events.VisitExpired, v)
	}
	return len(expired), nil
}

func (s *visitService) List(ctx context.Context, actor domain.Actor, status *domain.VisitStatus, limit, offset int) ([]domain.Visit, error) {
	scope, err := s.resolveScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.visits.ListByScope(ctx, scope, status, limit, offset)
}

func (s *visitService) GetByCode(ctx context.Context, code string, actor domain.Actor) (*domain.Visit, error) {
	v, err := s.loadByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	visible, err := s.visibleTo(ctx, actor, v)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// EncodedQR derives, signs and encodes the payload embedded in the visit's
// QR image. The actor's scope applies exactly as it does for GetByCode: a
// visit the actor cannot see yields no signed payload.
func (s *visitService) EncodedQR(ctx context.Context, code string, actor domain.Actor) (string, error) {
	v, err := s.GetByCode(ctx, code, actor)
	if err != nil {
		return "", err
	}

	visitor, err := s.facility.GetVisitor(ctx, v.VisitorID)
	if err != nil {
		return "", err
	}
	company, err := s.facility.GetCompany(ctx, v.CompanyID)
	if err != nil {
		return "", err
	}
	gate, err := s.facility.GetGate(ctx, v.GateID)
	if err != nil {
		return "", err
	}
	if visitor == nil || company == nil || gate == nil {
		return "", domain.ErrNotFound
	}

	payload := s.signer.Issue(qr.Payload{
		VisitCode:     v.VisitCode,
		VisitorName:   visitor.Name,
		CompanyName:   company.Name,
		ScheduledDate: v.ScheduledDate,
		GateNumber:    gate.Number,
	})
	return qr.Encode(payload), nil
}

// transition applies a state-machine operation under optimistic concurrency:
// a losing writer reloads once and re-validates against fresh state before
// giving up with ErrConcurrentModification. The returned pre-image is the
// state the winning write actually applied against, so audit snapshots stay
// accurate after a lost race.
func (s *visitService) transition(ctx context.Context, v *domain.Visit, apply func(*domain.Visit) error) (*domain.Visit, domain.Visit, error) {
	for attempt := 0; ; attempt++ {
		before := *v
		if err := apply(v); err != nil {
			return nil, domain.Visit{}, err
		}
		ok, err := s.visits.UpdateTransition(ctx, v)
		if err != nil {
			return nil, domain.Visit{}, fmt.Errorf("failed to persist transition: %w", err)
		}
		if ok {
			return v, before, nil
		}
		if attempt >= 1 {
			return nil, domain.Visit{}, domain.ErrConcurrentModification
		}
		fresh, err := s.visits.GetByCode(ctx, v.VisitCode)
		if err != nil {
			return nil, domain.Visit{}, fmt.Errorf("failed to reload visit: %w", err)
		}
		if fresh == nil {
			return nil, domain.Visit{}, domain.ErrNotFound
		}
		v = fresh
	}
}

func (s *visitService) loadByCode(ctx context.Context, code string) (*domain.Visit, error) {
	if code == "" {
		return nil, domain.ErrNotFound
	}
	v, err := s.visits.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load visit: %w", err)
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// authorizeGate enforces the zone check when a guard identity accompanies
// the request. The gate defaults to the visit's own gate.
func (s *visitService) authorizeGate(ctx context.Context, in GateInput, v *domain.Visit) error {
	if in.GuardID == 0 {
		return nil
	}

	acc, err := s.accounts.FindByID(ctx, in.GuardID)
	if err != nil {
		return fmt.Errorf("failed to load guard account: %w", err)
	}
	if acc == nil {
		return domain.ErrNotFound
	}

	gateID := in.GateID
	if gateID == 0 {
		gateID = v.GateID
	}
	gate, err := s.facility.GetGate(ctx, gateID)
	if err != nil {
		return fmt.Errorf("failed to load gate: %w", err)
	}
	if gate == nil || !gate.Active {
		return domain.ErrNotFound
	}

	scope, err := s.resolveScope(ctx, acc.Actor())
	if err != nil {
		return err
	}
	return access.CanOperateGate(scope, gate)
}

func (s *visitService) resolveScope(ctx context.Context, actor domain.Actor) (access.Scope, error) {
	var grants []domain.ZoneGrant
	if actor.Role == domain.RoleGuardia && actor.ZoneID == nil {
		var err error
		grants, err = s.facility.GrantsForActor(ctx, actor.ID)
		if err != nil {
			return access.Scope{}, fmt.Errorf("failed to load zone grants: %w", err)
		}
	}
	return access.ResolveScope(actor, grants), nil
}

func (s *visitService) visibleTo(ctx context.Context, actor domain.Actor, v *domain.Visit) (bool, error) {
	scope, err := s.resolveScope(ctx, actor)
	if err != nil {
		return false, err
	}
	var gateZoneID int64
	if scope.Kind == access.ScopeZone {
		gate, err := s.facility.GetGate(ctx, v.GateID)
		if err != nil {
			return false, err
		}
		if gate != nil {
			gateZoneID = gate.ZoneID
		}
	}
	return access.CanSeeVisit(scope, v, gateZoneID), nil
}

// validateReferences checks that every referenced company, gate and visitor
// exists and is active. Inactive records are treated as absent.
func (s *visitService) validateReferences(ctx context.Context, companyID, gateID int64, visitorIDs ...int64) error {
	company, err := s.facility.GetCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load company: %w", err)
	}
	if company == nil || !company.Active {
		return fmt.Errorf("company %d: %w", companyID, domain.ErrNotFound)
	}

	gate, err := s.facility.GetGate(ctx, gateID)
	if err != nil {
		return fmt.Errorf("failed to load gate: %w", err)
	}
	if gate == nil || !gate.Active {
		return fmt.Errorf("gate %d: %w", gateID, domain.ErrNotFound)
	}

	for _, id := range visitorIDs {
		visitor, err := s.facility.GetVisitor(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load visitor: %w", err)
		}
		if visitor == nil || !visitor.Active {
			return fmt.Errorf("visitor %d: %w", id, domain.ErrNotFound)
		}
	}
	return nil
}
