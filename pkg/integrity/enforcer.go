package integrity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

// Lock is the row lock taken while checking that a row exists.
type Lock int

const (
	// LockNone reads without locking.
	LockNone Lock = iota
	// LockKeyShare keeps the row from being deleted until the transaction
	// ends. Used for rows a write is about to reference.
	LockKeyShare
	// LockUpdate locks the row for modification or deletion.
	LockUpdate
)

// Store is the storage the Enforcer reads and deletes through. All calls for
// one operation must share a transaction.
type Store interface {
	// Exists reports whether kind has a row with id, taking lock on it.
	Exists(ctx context.Context, kind Kind, id int64, lock Lock) (bool, error)
	// ChildIDs returns the ids of edge.Child rows whose edge.Column equals parentID.
	ChildIDs(ctx context.Context, edge Edge, parentID int64) ([]int64, error)
	// DeleteRows removes the given rows of kind and returns how many went.
	DeleteRows(ctx context.Context, kind Kind, ids []int64) (int64, error)
}

// Reference is a foreign-key value a write is about to store.
type Reference struct {
	Field string
	Kind  Kind
	ID    int64
}

// Ref is shorthand for building a Reference.
func Ref(field string, kind Kind, id int64) Reference {
	return Reference{Field: field, Kind: kind, ID: id}
}

// Blocker is a no-action edge that still has dependents outside the delete.
type Blocker struct {
	Edge     Edge  `json:"edge"`
	ParentID int64 `json:"parent_id"`
	Count    int64 `json:"count"`
}

// DeletePlan is every row a delete would remove, grouped by kind, plus what
// would stop it.
type DeletePlan struct {
	Kind     Kind             `json:"kind"`
	ID       int64            `json:"id"`
	Rows     map[Kind][]int64 `json:"rows"`
	Blockers []Blocker        `json:"blockers,omitempty"`

	seen map[Kind]map[int64]bool
}

// Blocked reports whether the delete would be refused.
func (p *DeletePlan) Blocked() bool {
	return len(p.Blockers) > 0
}

// Counts returns the number of rows per kind.
func (p *DeletePlan) Counts() map[Kind]int {
	out := make(map[Kind]int, len(p.Rows))
	for k, ids := range p.Rows {
		out[k] = len(ids)
	}
	return out
}

// Err returns the DependentsError for the first blocker, or nil.
func (p *DeletePlan) Err() error {
	if !p.Blocked() {
		return nil
	}
	b := p.Blockers[0]
	return &apperrors.DependentsError{
		Kind:          string(b.Edge.Parent),
		ID:            b.ParentID,
		DependentKind: string(b.Edge.Child),
		Count:         b.Count,
	}
}

func (p *DeletePlan) contains(kind Kind, id int64) bool {
	return p.seen[kind][id]
}

func (p *DeletePlan) add(kind Kind, id int64) {
	if p.seen[kind] == nil {
		p.seen[kind] = make(map[int64]bool)
	}
	p.seen[kind][id] = true
	p.Rows[kind] = append(p.Rows[kind], id)
}

// Enforcer applies a Graph through a Store.
type Enforcer struct {
	graph  *Graph
	store  Store
	order  []Kind
	logger *zap.Logger
}

// NewEnforcer validates graph and binds it to store.
func NewEnforcer(graph *Graph, store Store, logger *zap.Logger) (*Enforcer, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid integrity graph: %w", err)
	}
	order, err := graph.DeleteOrder()
	if err != nil {
		return nil, err
	}
	return &Enforcer{
		graph:  graph,
		store:  store,
		order:  order,
		logger: logger.Named("integrity"),
	}, nil
}

// Graph returns the graph being enforced.
func (e *Enforcer) Graph() *Graph {
	return e.graph
}

// CheckReferences verifies every reference resolves, locking each target so
// it cannot be deleted before the caller's transaction commits. The first
// missing target is returned as an *apperrors.ReferenceError.
func (e *Enforcer) CheckReferences(ctx context.Context, refs ...Reference) error {
	for _, ref := range refs {
		ok, err := e.store.Exists(ctx, ref.Kind, ref.ID, LockKeyShare)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", ref.Field, err)
		}
		if !ok {
			return &apperrors.ReferenceError{Field: ref.Field, Kind: string(ref.Kind), ID: ref.ID}
		}
	}
	return nil
}

// Plan walks everything deleting (kind, id) would remove without changing
// anything. The root row is locked for update.
func (e *Enforcer) Plan(ctx context.Context, kind Kind, id int64) (*DeletePlan, error) {
	ok, err := e.store.Exists(ctx, kind, id, LockUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s %d: %w", kind, id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", kind, id, apperrors.ErrNotFound)
	}

	plan := &DeletePlan{Kind: kind, ID: id, Rows: make(map[Kind][]int64), seen: make(map[Kind]map[int64]bool)}
	type pending struct {
		edge     Edge
		parentID int64
		ids      []int64
	}
	var held []pending

	var walk func(k Kind, id int64) error
	walk = func(k Kind, id int64) error {
		if plan.contains(k, id) {
			return nil
		}
		plan.add(k, id)
		for _, edge := range e.graph.ChildEdges(k) {
			ids, err := e.store.ChildIDs(ctx, edge, id)
			if err != nil {
				return fmt.Errorf("failed to list %s of %s %d: %w", edge.Child.Table(), k, id, err)
			}
			if !edge.RemovesChildren() {
				if len(ids) > 0 {
					held = append(held, pending{edge: edge, parentID: id, ids: ids})
				}
				continue
			}
			for _, childID := range ids {
				if err := walk(edge.Child, childID); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(kind, id); err != nil {
		return nil, err
	}

	// A dependent on a blocking edge is fine if another path removes it,
	// e.g. deleting a country removes both a product and the orders using it.
	for _, h := range held {
		var outside int64
		for _, childID := range h.ids {
			if !plan.contains(h.edge.Child, childID) {
				outside++
			}
		}
		if outside > 0 {
			plan.Blockers = append(plan.Blockers, Blocker{Edge: h.edge, ParentID: h.parentID, Count: outside})
		}
	}
	return plan, nil
}

// Delete removes (kind, id) and everything the graph says goes with it, or
// nothing. It fails with apperrors.ErrNotFound if the row does not exist and
// with an *apperrors.DependentsError if a no-action edge still has dependents.
// The caller must run it inside a transaction.
func (e *Enforcer) Delete(ctx context.Context, kind Kind, id int64) (*DeletePlan, error) {
	plan, err := e.Plan(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := plan.Err(); err != nil {
		e.logger.Debug("Delete blocked by dependents",
			zap.String("kind", string(kind)),
			zap.Int64("id", id),
			zap.Error(err))
		return plan, err
	}

	for _, k := range e.order {
		ids := plan.Rows[k]
		if len(ids) == 0 {
			continue
		}
		n, err := e.store.DeleteRows(ctx, k, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", k.Table(), err)
		}
		// Only the root is locked; a concurrent delete may have removed some rows already.
		if n != int64(len(ids)) {
			e.logger.Debug("Fewer rows deleted than planned",
				zap.String("kind", string(k)),
				zap.Int("planned", len(ids)),
				zap.Int64("deleted", n))
		}
	}

	e.logger.Debug("Deleted",
		zap.String("kind", string(kind)),
		zap.Int64("id", id),
		zap.Any("counts", plan.Counts()))
	return plan, nil
}
