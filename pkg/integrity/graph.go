// Package integrity holds the parent→child delete rules of the schema and
// applies them: cascading through owned subtrees and refusing deletes that
// would orphan rows on a no-action edge.
package integrity

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// Kind names an entity kind. Its plural is the table name.
type Kind string

const (
	KindCountry   Kind = "country"
	KindCity      Kind = "city"
	KindCustomer  Kind = "customer"
	KindSupplier  Kind = "supplier"
	KindProduct   Kind = "product"
	KindOrder     Kind = "order"
	KindOrderItem Kind = "order_item"
)

// Kinds lists every kind, parents before children.
var Kinds = []Kind{KindCountry, KindCity, KindCustomer, KindSupplier, KindProduct, KindOrder, KindOrderItem}

// Table returns the table storing rows of this kind.
func (k Kind) Table() string {
	return inflection.Plural(string(k))
}

// ParseKind accepts a kind in singular or plural form.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == k.Table() {
			return k, true
		}
	}
	return "", false
}

// Policy is what deleting a parent does to the rows of one child edge.
type Policy int

const (
	// Cascade deletes the children with the parent.
	Cascade Policy = iota
	// NoActionRequireExplicit leaves the children alone; the parent cannot be
	// deleted while any remain unless the delete removes them itself.
	NoActionRequireExplicit
)

func (p Policy) String() string {
	switch p {
	case Cascade:
		return "cascade"
	case NoActionRequireExplicit:
		return "no_action"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// MarshalText renders the policy by name.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Edge is a foreign key from Child.Column to Parent.
//
// Owned marks a no-action edge whose children belong to the parent: the
// application removes them explicitly when the parent is deleted. A no-action
// edge that is not owned blocks the delete instead.
type Edge struct {
	Parent Kind   `json:"parent"`
	Child  Kind   `json:"child"`
	Column string `json:"column"`
	Policy Policy `json:"policy"`
	Owned  bool   `json:"owned"`
}

// RemovesChildren reports whether deleting the parent removes the children.
func (e Edge) RemovesChildren() bool {
	return e.Policy == Cascade || e.Owned
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s.%s (%s)", e.Parent, e.Child.Table(), e.Column, e.Policy)
}

// Graph is a fixed set of kinds and the edges between them.
type Graph struct {
	kinds []Kind
	edges []Edge
}

// New builds a graph. Edge order is the order children are visited.
func New(kinds []Kind, edges []Edge) *Graph {
	return &Graph{kinds: kinds, edges: edges}
}

// Default returns the schema's graph. Both edges into order_items are
// no-action so that order_items is never reachable by two cascade paths;
// items of a deleted order are removed by the application.
func Default() *Graph {
	return New(Kinds, []Edge{
		{Parent: KindCountry, Child: KindCity, Column: "country_id", Policy: Cascade},
		{Parent: KindCity, Child: KindCustomer, Column: "city_id", Policy: Cascade},
		{Parent: KindCity, Child: KindSupplier, Column: "city_id", Policy: Cascade},
		{Parent: KindSupplier, Child: KindProduct, Column: "supplier_id", Policy: Cascade},
		{Parent: KindCustomer, Child: KindOrder, Column: "customer_id", Policy: Cascade},
		{Parent: KindOrder, Child: KindOrderItem, Column: "order_id", Policy: NoActionRequireExplicit, Owned: true},
		{Parent: KindProduct, Child: KindOrderItem, Column: "product_id", Policy: NoActionRequireExplicit},
	})
}

// Kinds returns the graph's kinds.
func (g *Graph) Kinds() []Kind {
	return g.kinds
}

// Edges returns every edge.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// ChildEdges returns the edges leaving parent.
func (g *Graph) ChildEdges(parent Kind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Parent == parent {
			out = append(out, e)
		}
	}
	return out
}

// ParentEdges returns the edges entering child.
func (g *Graph) ParentEdges(child Kind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Child == child {
			out = append(out, e)
		}
	}
	return out
}

// Validate rejects graphs a storage engine with single-path cascades cannot
// express: unknown kinds, cycles, or a kind reachable from one ancestor along
// two distinct cascade paths.
func (g *Graph) Validate() error {
	known := make(map[Kind]bool, len(g.kinds))
	for _, k := range g.kinds {
		known[k] = true
	}
	for _, e := range g.edges {
		if !known[e.Parent] || !known[e.Child] {
			return fmt.Errorf("edge %s references an unknown kind", e)
		}
		if e.Column == "" {
			return fmt.Errorf("edge %s has no column", e)
		}
		if e.Policy == Cascade && e.Owned {
			return fmt.Errorf("edge %s: owned applies to no-action edges only", e)
		}
	}

	if _, err := g.DeleteOrder(); err != nil {
		return err
	}

	for _, root := range g.kinds {
		paths := make(map[Kind]int)
		g.countCascadePaths(root, paths)
		for kind, n := range paths {
			if n > 1 {
				return fmt.Errorf("%s is reachable from %s by %d cascade paths", kind, root, n)
			}
		}
	}
	return nil
}

// countCascadePaths adds, for every kind below from, the number of distinct
// cascade-only paths leading to it. The graph is acyclic when this runs.
func (g *Graph) countCascadePaths(from Kind, paths map[Kind]int) {
	for _, e := range g.ChildEdges(from) {
		if e.Policy != Cascade {
			continue
		}
		paths[e.Child]++
		g.countCascadePaths(e.Child, paths)
	}
}

// DeleteOrder returns the kinds children first, so deleting rows kind by kind
// in this order never removes a parent before a row that references it.
func (g *Graph) DeleteOrder() ([]Kind, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Kind]int, len(g.kinds))
	order := make([]Kind, 0, len(g.kinds))

	var visit func(k Kind) error
	visit = func(k Kind) error {
		switch state[k] {
		case visiting:
			return fmt.Errorf("cycle through %s", k)
		case done:
			return nil
		}
		state[k] = visiting
		for _, e := range g.ChildEdges(k) {
			if err := visit(e.Child); err != nil {
				return err
			}
		}
		state[k] = done
		order = append(order, k)
		return nil
	}

	for _, k := range g.kinds {
		if err := visit(k); err != nil {
			return nil, err
		}
	}
	return order, nil
}
