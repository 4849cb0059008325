package access

import "github.com/felixfuego/AppPark-sub000/internal/domain"

// Scope is the visibility/mutation range of an actor, computed once per
// request from role and assignment and then applied uniformly to every
// query path. Per-row role branching is deliberately avoided.
type ScopeKind int

const (
	// ScopeNone is the fail-closed default: no resolvable assignment means
	// an empty result set, never an error and never the unrestricted set.
	ScopeNone ScopeKind = iota
	ScopeUnrestricted
	ScopeCompany
	ScopeZone
)

type Scope struct {
	Kind      ScopeKind
	CompanyID int64
	ZoneID    int64
}

func (s Scope) Empty() bool { return s.Kind == ScopeNone }

// ResolveScope computes the actor's scope. Admins are unrestricted,
// operators see their own company, guards see the gates of their assigned
// zone. A guard with no direct assignment falls back to the first active
// zone grant.
func ResolveScope(actor domain.Actor, grants []domain.ZoneGrant) Scope {
	switch actor.Role {
	case domain.RoleAdmin:
		return Scope{Kind: ScopeUnrestricted}
	case domain.RoleOperador:
		if actor.CompanyID != nil {
			return Scope{Kind: ScopeCompany, CompanyID: *actor.CompanyID}
		}
	case domain.RoleGuardia:
		if actor.ZoneID != nil {
			return Scope{Kind: ScopeZone, ZoneID: *actor.ZoneID}
		}
		for _, g := range grants {
			if g.Active && g.ActorID == actor.ID {
				return Scope{Kind: ScopeZone, ZoneID: g.ZoneID}
			}
		}
	}
	return Scope{Kind: ScopeNone}
}

// CanOperateGate decides whether the scope permits check-in/check-out at the
// gate. Only unrestricted actors and guards of the gate's zone may operate
// it; everyone else gets ErrZoneMismatch.
func CanOperateGate(s Scope, gate *domain.Gate) error {
	switch s.Kind {
	case ScopeUnrestricted:
		return nil
	case ScopeZone:
		if gate != nil && gate.ZoneID == s.ZoneID {
			return nil
		}
	}
	return domain.ErrZoneMismatch
}

// CanSeeVisit reports whether a single visit falls inside the scope. The
// gate's zone is needed for zone-scoped actors.
func CanSeeVisit(s Scope, v *domain.Visit, gateZoneID int64) bool {
	switch s.Kind {
	case ScopeUnrestricted:
		return true
	case ScopeCompany:
		return v.CompanyID == s.CompanyID
	case ScopeZone:
		return gateZoneID == s.ZoneID
	default:
		return false
	}
}

// FilterVisits applies the scope to an in-memory visit set: zone scopes
// resolve to the set of gates in the zone first, then filter by gate.
func FilterVisits(s Scope, visits []domain.Visit, gates []domain.Gate) []domain.Visit {
	if s.Kind == ScopeUnrestricted {
		return visits
	}
	inZone := make(map[int64]struct{})
	if s.Kind == ScopeZone {
		for _, g := range gates {
			if g.ZoneID == s.ZoneID {
				inZone[g.ID] = struct{}{}
			}
		}
	}
	out := make([]domain.Visit, 0, len(visits))
	for _, v := range visits {
		switch s.Kind {
		case ScopeCompany:
			if v.CompanyID == s.CompanyID {
				out = append(out, v)
			}
		case ScopeZone:
			if _, ok := inZone[v.GateID]; ok {
				out = append(out, v)
			}
		}
	}
	return out
}
