package access

import (
	"errors"
	"testing"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

func i64(v int64) *int64 { return &v }

var (
	gates = []domain.Gate{
		{ID: 1, Number: "G-01", ZoneID: 1, Active: true},
		{ID: 2, Number: "G-02", ZoneID: 1, Active: true},
		{ID: 3, Number: "G-03", ZoneID: 2, Active: true},
	}
	visits = []domain.Visit{
		{ID: 10, VisitCode: "A", CompanyID: 100, GateID: 1},
		{ID: 11, VisitCode: "B", CompanyID: 100, GateID: 3},
		{ID: 12, VisitCode: "C", CompanyID: 200, GateID: 2},
	}
)

func TestResolveScopeAdmin(t *testing.T) {
	s := ResolveScope(domain.Actor{ID: 1, Role: domain.RoleAdmin}, nil)
	if s.Kind != ScopeUnrestricted {
		t.Fatalf("admin scope = %v, want unrestricted", s.Kind)
	}
	if got := FilterVisits(s, visits, gates); len(got) != len(visits) {
		t.Fatalf("admin sees %d visits, want %d", len(got), len(visits))
	}
}

func TestResolveScopeOperator(t *testing.T) {
	s := ResolveScope(domain.Actor{ID: 2, Role: domain.RoleOperador, CompanyID: i64(100)}, nil)
	if s.Kind != ScopeCompany || s.CompanyID != 100 {
		t.Fatalf("operator scope = %+v", s)
	}
	got := FilterVisits(s, visits, gates)
	if len(got) != 2 {
		t.Fatalf("operator sees %d visits, want 2", len(got))
	}
	for _, v := range got {
		if v.CompanyID != 100 {
			t.Fatalf("operator leaked visit of company %d", v.CompanyID)
		}
	}

	// Operators never operate gates.
	if err := CanOperateGate(s, &gates[0]); !errors.Is(err, domain.ErrZoneMismatch) {
		t.Fatalf("operator gate op: err = %v, want ErrZoneMismatch", err)
	}
}

func TestResolveScopeGuard(t *testing.T) {
	s := ResolveScope(domain.Actor{ID: 3, Role: domain.RoleGuardia, ZoneID: i64(1)}, nil)
	if s.Kind != ScopeZone || s.ZoneID != 1 {
		t.Fatalf("guard scope = %+v", s)
	}

	// Zone resolves to its gate set first, then visits on those gates.
	got := FilterVisits(s, visits, gates)
	if len(got) != 2 {
		t.Fatalf("guard sees %d visits, want 2", len(got))
	}
	for _, v := range got {
		if v.GateID != 1 && v.GateID != 2 {
			t.Fatalf("guard leaked visit at gate %d", v.GateID)
		}
	}
}

func TestGuardZoneFromGrant(t *testing.T) {
	grants := []domain.ZoneGrant{
		{ActorID: 9, ZoneID: 5, Active: false},
		{ActorID: 3, ZoneID: 2, Active: true},
	}
	s := ResolveScope(domain.Actor{ID: 3, Role: domain.RoleGuardia}, grants)
	if s.Kind != ScopeZone || s.ZoneID != 2 {
		t.Fatalf("guard grant scope = %+v, want zone 2", s)
	}
}

// A guard with no assigned zone resolves to the empty set: fail closed,
// never an error, never the unrestricted set.
func TestGuardWithoutZoneFailsClosed(t *testing.T) {
	s := ResolveScope(domain.Actor{ID: 4, Role: domain.RoleGuardia}, nil)
	if !s.Empty() {
		t.Fatalf("unassigned guard scope = %+v, want none", s)
	}
	if got := FilterVisits(s, visits, gates); len(got) != 0 {
		t.Fatalf("unassigned guard sees %d visits, want 0", len(got))
	}
	if err := CanOperateGate(s, &gates[0]); !errors.Is(err, domain.ErrZoneMismatch) {
		t.Fatalf("unassigned guard gate op: err = %v", err)
	}
}

// Guard assigned to zone 1, gate in zone 2: cross-zone check-in is rejected
// even for an otherwise valid guard.
func TestCrossZoneGateMismatch(t *testing.T) {
	s := ResolveScope(domain.Actor{ID: 3, Role: domain.RoleGuardia, ZoneID: i64(1)}, nil)

	if err := CanOperateGate(s, &gates[2]); !errors.Is(err, domain.ErrZoneMismatch) {
		t.Fatalf("cross-zone gate op: err = %v, want ErrZoneMismatch", err)
	}
	if err := CanOperateGate(s, &gates[0]); err != nil {
		t.Fatalf("same-zone gate op: %v", err)
	}
}

func TestCanSeeVisit(t *testing.T) {
	admin := Scope{Kind: ScopeUnrestricted}
	op := Scope{Kind: ScopeCompany, CompanyID: 100}
	guard := Scope{Kind: ScopeZone, ZoneID: 1}
	none := Scope{}

	v := &visits[0] // company 100, gate 1 (zone 1)
	if !CanSeeVisit(admin, v, 1) || !CanSeeVisit(op, v, 1) || !CanSeeVisit(guard, v, 1) {
		t.Fatal("visit should be visible to admin, its operator and its zone guard")
	}
	if CanSeeVisit(op, &visits[2], 1) {
		t.Fatal("operator must not see another company's visit")
	}
	if CanSeeVisit(guard, &visits[1], 2) {
		t.Fatal("guard must not see a visit in another zone")
	}
	if CanSeeVisit(none, v, 1) {
		t.Fatal("empty scope sees nothing")
	}
}
