/*
Package relation implements cross-token morphological agreement
constraints (spec §3/§4.5): named relations such as gender/number/case
concord, and a persistent relation-graph snapshot that package tree
narrows per candidate derivation while interpreting it.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package relation

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/token"
)

func tracer() tracing.Trace {
	if t := tracing.Select("yargo.relation"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

var idCounter int64

func nextID() int64 { return atomic.AddInt64(&idCounter, 1) }

// Checker decides whether two forms agree for a given relation.
type Checker func(a, b token.Form) bool

// Relation is a named, decidable agreement test between two token forms.
// A Relation's identity (ID) distinguishes it from other relations of the
// same Name used elsewhere in a grammar; spec §3 requires every Relation
// to appear in the grammar exactly twice (once per side), which the
// normalize package enforces by walking the compiled grammar once and
// counting predicate-to-relation bindings (see normalize.checkRelationArity).
type Relation struct {
	ID    int64
	Name  string
	check Checker
}

func newRelation(name string, check Checker) *Relation {
	return &Relation{ID: nextID(), Name: name, check: check}
}

// Check reports whether forms a and b agree under this relation.
func (r *Relation) Check(a, b token.Form) bool { return r.check(a, b) }

func (r *Relation) String() string { return fmt.Sprintf("%s#%d", r.Name, r.ID) }

var genderGrams = []string{"masc", "femn", "neut"}
var numberGrams = []string{"sing", "plur"}
var caseGrams = []string{"nomn", "gent", "datv", "accs", "ablt", "loct", "voct", "gen1", "gen2", "acc2", "loc1", "loc2"}

func anyShared(a, b token.Form, grams []string) bool {
	for _, g := range grams {
		if a.HasGram(g) && b.HasGram(g) {
			return true
		}
	}
	return false
}

// Gender constructs a fresh gender-agreement relation.
func Gender() *Relation {
	return newRelation("gender", func(a, b token.Form) bool { return anyShared(a, b, genderGrams) })
}

// Number constructs a fresh number-agreement relation.
func Number() *Relation {
	return newRelation("number", func(a, b token.Form) bool { return anyShared(a, b, numberGrams) })
}

// Case constructs a fresh case-agreement relation.
func Case() *Relation {
	return newRelation("case", func(a, b token.Form) bool { return anyShared(a, b, caseGrams) })
}

// GNC constructs a fresh gender-number-case agreement relation (spec
// glossary: GNC).
func GNC() *Relation {
	return newRelation("gnc", func(a, b token.Form) bool {
		return anyShared(a, b, genderGrams) && anyShared(a, b, numberGrams) && anyShared(a, b, caseGrams)
	})
}

// And combines relations conjunctively into a fresh relation.
func And(rs ...*Relation) *Relation {
	names := names(rs)
	return newRelation("and("+names+")", func(a, b token.Form) bool {
		for _, r := range rs {
			if !r.Check(a, b) {
				return false
			}
		}
		return true
	})
}

// Or combines relations disjunctively into a fresh relation.
func Or(rs ...*Relation) *Relation {
	names := names(rs)
	return newRelation("or("+names+")", func(a, b token.Form) bool {
		for _, r := range rs {
			if r.Check(a, b) {
				return true
			}
		}
		return false
	})
}

func names(rs []*Relation) string {
	ns := make([]string, len(rs))
	for i, r := range rs {
		ns[i] = r.Name
	}
	return strings.Join(ns, ",")
}

// --- Relation graph snapshot -------------------------------------------

// node holds a token's currently surviving form list, keyed by the
// token's span so distinct occurrences of the same word are distinct
// nodes.
type node struct {
	tok   token.Morph
	forms []token.Form
}

func formKey(f token.Form) string {
	keys := make([]string, 0, len(f.Grams))
	for g := range f.Grams {
		keys = append(keys, g)
	}
	sort.Strings(keys)
	return f.Lemma + "|" + strings.Join(keys, ",")
}

func cloneNode(n *node) *node {
	forms := make([]token.Form, len(n.forms))
	for i, f := range n.forms {
		forms[i] = f.Clone()
	}
	return &node{tok: n.tok, forms: forms}
}

// edge holds up to two endpoints for a single relation instance.
type edge struct {
	rel   *Relation
	sides [2]*node
}

func cloneEdge(e *edge, nodes map[token.Span]*node) *edge {
	ne := &edge{rel: e.rel}
	for i, n := range e.sides {
		if n != nil {
			ne.sides[i] = nodes[n.tok.Span]
		}
	}
	return ne
}

// Graph is a persistent relation-graph snapshot (spec §3/§4.5). The zero
// value is an empty, satisfiable graph.
type Graph struct {
	nodes map[token.Span]*node
	edges map[int64]*edge
	bad   bool
}

// Empty returns a fresh, empty, satisfiable snapshot.
func Empty() *Graph {
	return &Graph{nodes: map[token.Span]*node{}, edges: map[int64]*edge{}}
}

// Copy returns a deep, independent copy of g.
func (g *Graph) Copy() *Graph {
	if g == nil {
		return Empty()
	}
	ng := &Graph{
		nodes: make(map[token.Span]*node, len(g.nodes)),
		edges: make(map[int64]*edge, len(g.edges)),
		bad:   g.bad,
	}
	for span, n := range g.nodes {
		ng.nodes[span] = cloneNode(n)
	}
	for id, e := range g.edges {
		ng.edges[id] = cloneEdge(e, ng.nodes)
	}
	return ng
}

// Satisfiable reports whether every node in the snapshot still has at
// least one surviving form and no relation was driven into the
// ill-formed "same side twice" state.
func (g *Graph) Satisfiable() bool {
	if g == nil {
		return true
	}
	if g.bad {
		return false
	}
	for _, n := range g.nodes {
		if len(n.forms) == 0 {
			return false
		}
	}
	return true
}

func (g *Graph) nodeFor(tok token.Morph) *node {
	if n, ok := g.nodes[tok.Span]; ok {
		return n
	}
	n := &node{tok: tok, forms: cloneFormSlice(tok.Forms)}
	g.nodes[tok.Span] = n
	return n
}

func cloneFormSlice(forms []token.Form) []token.Form {
	out := make([]token.Form, len(forms))
	for i, f := range forms {
		out[i] = f.Clone()
	}
	return out
}

// Add narrows the snapshot by registering that tok participates in rel.
// It returns a new snapshot (g is left unmodified) and whether the
// result is still satisfiable, per spec §4.5.
func (g *Graph) Add(tok token.Morph, rel *Relation) (*Graph, bool) {
	ng := g.Copy()
	n := ng.nodeFor(tok)
	e, ok := ng.edges[rel.ID]
	if !ok {
		e = &edge{rel: rel}
		ng.edges[rel.ID] = e
	}
	switch {
	case e.sides[0] == n || e.sides[1] == n:
		// Re-registering the same occurrence (e.g. revisited during
		// ambiguous derivation); no-op.
	case e.sides[0] == nil:
		e.sides[0] = n
	case e.sides[1] == nil:
		e.sides[1] = n
	default:
		tracer().Debugf("relation %s already fully bound, rejecting third occurrence", rel)
		ng.bad = true
		return ng, false
	}
	if e.sides[0] != nil && e.sides[1] != nil {
		ng.propagateFrom(e)
	}
	return ng, ng.Satisfiable()
}

// propagateFrom runs eval on e and then on every edge touching a node
// that changed, until a fixpoint (monotonic narrowing guarantees
// termination within len(edges) rounds, per spec §4.5).
func (g *Graph) propagateFrom(e *edge) {
	dirty := []*edge{e}
	rounds := 0
	for len(dirty) > 0 && rounds <= len(g.edges)+1 {
		rounds++
		next := dirty[0]
		dirty = dirty[1:]
		changed := g.eval(next)
		if !changed {
			continue
		}
		for _, other := range g.edges {
			if other == next {
				continue
			}
			if touches(other, next.sides[0]) || touches(other, next.sides[1]) {
				dirty = append(dirty, other)
			}
		}
	}
}

func touches(e *edge, n *node) bool {
	if n == nil {
		return false
	}
	return e.sides[0] == n || e.sides[1] == n
}

// eval narrows both endpoints of e to mutually-agreeing forms, reporting
// whether either endpoint's form list actually shrank.
func (g *Graph) eval(e *edge) bool {
	a, b := e.sides[0], e.sides[1]
	if a == nil || b == nil {
		return false
	}
	keepA := filterForms(a.forms, func(fa token.Form) bool {
		return anyMatch(b.forms, func(fb token.Form) bool { return e.rel.Check(fa, fb) })
	})
	keepB := filterForms(b.forms, func(fb token.Form) bool {
		return anyMatch(a.forms, func(fa token.Form) bool { return e.rel.Check(fa, fb) })
	})
	changed := len(keepA) != len(a.forms) || len(keepB) != len(b.forms)
	a.forms, b.forms = keepA, keepB
	if len(keepA) == 0 || len(keepB) == 0 {
		g.bad = true
	}
	return changed
}

func filterForms(forms []token.Form, keep func(token.Form) bool) []token.Form {
	out := make([]token.Form, 0, len(forms))
	for _, f := range forms {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func anyMatch(forms []token.Form, pred func(token.Form) bool) bool {
	for _, f := range forms {
		if pred(f) {
			return true
		}
	}
	return false
}

// Merge unions g with other (both left unmodified), returning a new
// snapshot and whether it is satisfiable. Nodes present in both are
// intersected by surviving forms; if the same relation has the same side
// populated by two different tokens in g and other, the configuration is
// ill-formed and Merge returns an unsatisfiable snapshot (spec §9 open
// question: such cross-derivation collisions are specified, not guessed).
func (g *Graph) Merge(other *Graph) (*Graph, bool) {
	ng := g.Copy()
	if other == nil {
		return ng, ng.Satisfiable()
	}
	for span, on := range other.nodes {
		if existing, ok := ng.nodes[span]; ok {
			ng.nodes[span] = intersectNode(existing, on)
		} else {
			ng.nodes[span] = cloneNode(on)
		}
	}
	for id, oe := range other.edges {
		me, ok := ng.edges[id]
		if !ok {
			ng.edges[id] = cloneEdge(oe, ng.nodes)
			continue
		}
		for i, on := range oe.sides {
			if on == nil {
				continue
			}
			mn := ng.nodes[on.tok.Span]
			if me.sides[i] == nil {
				me.sides[i] = mn
			} else if me.sides[i].tok.Span != mn.tok.Span {
				tracer().Debugf("relation %s: incompatible merge on side %d", me.rel, i)
				ng.bad = true
			}
		}
	}
	for _, e := range ng.edges {
		if e.sides[0] != nil && e.sides[1] != nil {
			ng.propagateFrom(e)
		}
	}
	return ng, ng.Satisfiable()
}

func intersectNode(a, b *node) *node {
	keys := map[string]struct{}{}
	for _, f := range b.forms {
		keys[formKey(f)] = struct{}{}
	}
	var kept []token.Form
	for _, f := range a.forms {
		if _, ok := keys[formKey(f)]; ok {
			kept = append(kept, f)
		}
	}
	return &node{tok: a.tok, forms: kept}
}
