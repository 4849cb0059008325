package audit

import "context"

// Entry is one audit record: what happened, to what, by whom, with optional
// before/after snapshots.
type Entry struct {
	Action   string
	Entity   string
	EntityID int64
	ActorID  int64
	Before   any
	After    any
}

// Sink records entries after successful state transitions. Recording is
// best-effort: implementations log failures and never propagate them, so a
// broken audit trail cannot roll back a business transition.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
